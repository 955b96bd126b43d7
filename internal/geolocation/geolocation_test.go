package geolocation

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/httpclient"
)

const testEndpoint = "https://ipinfo.test/json"

func newMockedLocator(t *testing.T) (*IPInfoLocator, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	l := NewIPInfoLocator(Config{
		Endpoint:   testEndpoint,
		HTTPClient: httpclient.New(&httpclient.Config{Transport: transport}),
	}, nil)
	return l, transport
}

func TestLocateParsesResponse(t *testing.T) {
	l, transport := newMockedLocator(t)
	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"ip":"203.0.113.7","city":"Tampere","loc":"61.4991,23.7871"}`))

	loc, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tampere", loc.City)
	require.NotNil(t, loc.Latitude)
	require.NotNil(t, loc.Longitude)
	assert.InDelta(t, 61.4991, *loc.Latitude, 1e-9)
	assert.InDelta(t, 23.7871, *loc.Longitude, 1e-9)
}

func TestLocateCachesSuccess(t *testing.T) {
	l, transport := newMockedLocator(t)
	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"city":"Oulu","loc":"65.01,25.47"}`))

	for range 3 {
		_, err := l.Locate(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, transport.GetTotalCallCount())

	l.Flush()
	_, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestLocateMissingFields(t *testing.T) {
	l, transport := newMockedLocator(t)
	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"ip":"203.0.113.7","loc":"bogus"}`))

	loc, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UnknownLocation, loc.City)
	assert.Nil(t, loc.Latitude)
	assert.Nil(t, loc.Longitude)
}

func TestLocateFailureIsNotCached(t *testing.T) {
	l, transport := newMockedLocator(t)
	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusTooManyRequests, `rate limited`))

	loc, err := l.Locate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryGeolocation))
	assert.Equal(t, Unknown(), loc)

	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)

	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"city":"Turku","loc":"60.45,22.26"}`))
	loc, err = l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Turku", loc.City)
}

func TestLocateTransportError(t *testing.T) {
	l, transport := newMockedLocator(t)
	transport.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewErrorResponder(assert.AnError))

	_, err := l.Locate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestParseLatLon(t *testing.T) {
	tests := []struct {
		in      string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{in: "60.1699,24.9384", lat: 60.1699, lon: 24.9384},
		{in: " -33.86 , 151.20 ", lat: -33.86, lon: 151.20},
		{in: "60.1699", wantErr: true},
		{in: "north,24.9", wantErr: true},
		{in: "95,10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lat, lon, err := parseLatLon(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}
