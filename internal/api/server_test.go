package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/wildlife-alert/internal/alerts"
	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

type mockAlertService struct {
	mock.Mock
}

func (m *mockAlertService) Process(ctx context.Context, n alerts.Notifier, label, imagePath, message string) alerts.Outcome {
	args := m.Called(ctx, n, label, imagePath, message)
	return args.Get(0).(alerts.Outcome)
}

func (m *mockAlertService) GetLatestAlerts(ctx context.Context, limit int) ([]datastore.AlertSummary, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]datastore.AlertSummary)
	return items, args.Error(1)
}

func (m *mockAlertService) UpdateAlertStatus(ctx context.Context, imagePath string, upd datastore.StatusUpdate) (int64, error) {
	args := m.Called(ctx, imagePath, upd)
	return args.Get(0).(int64), args.Error(1)
}

type stubNotifier struct{ disabled bool }

func (stubNotifier) SendAlert(context.Context, string, string, string, string) bool { return true }

func (n stubNotifier) Enabled() bool { return !n.disabled }

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func setupTestServer(t *testing.T, svc *mockAlertService, opts ...ServerOption) *echo.Echo {
	t.Helper()
	s, err := New(DefaultConfig(), svc, logger.NewSlogLogger(nil, logger.LogLevelDebug, nil), opts...)
	require.NoError(t, err)
	return s.Echo()
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		e := setupTestServer(t, &mockAlertService{}, WithHealthChecker(stubPinger{}))
		rec := doRequest(e, http.MethodGet, "/api/v1/health", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "ok", body["database"])
		assert.Equal(t, false, body["notifications"])
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("notifier configured", func(t *testing.T) {
		e := setupTestServer(t, &mockAlertService{}, WithNotifier(stubNotifier{}))
		rec := doRequest(e, http.MethodGet, "/api/v1/health", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, mustBool(t, rec.Body.Bytes(), "notifications"))
	})

	t.Run("notifier without credentials", func(t *testing.T) {
		e := setupTestServer(t, &mockAlertService{}, WithNotifier(stubNotifier{disabled: true}))
		rec := doRequest(e, http.MethodGet, "/api/v1/health", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, mustBool(t, rec.Body.Bytes(), "notifications"))
	})

	t.Run("database down", func(t *testing.T) {
		e := setupTestServer(t, &mockAlertService{}, WithHealthChecker(stubPinger{err: datastore.ErrNotOpen}))
		rec := doRequest(e, http.MethodGet, "/api/v1/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestListAlerts(t *testing.T) {
	svc := &mockAlertService{}
	url := "https://res.cloudinary.com/demo/fox.jpg"
	svc.On("GetLatestAlerts", mock.Anything, 2).Return([]datastore.AlertSummary{
		{Label: "fox", Timestamp: "2024-05-01 10:05:00", CloudURL: &url, Location: "Helsinki"},
		{Label: "deer", Timestamp: "2024-05-01 10:00:00", Location: "Unknown"},
	}, nil)
	svc.On("GetLatestAlerts", mock.Anything, 0).Return(nil, nil)

	e := setupTestServer(t, svc)

	rec := doRequest(e, http.MethodGet, "/api/v1/alerts?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Alerts []map[string]any `json:"alerts"`
		Count  int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "fox", body.Alerts[0]["label"])
	assert.Equal(t, url, body.Alerts[0]["cloud_url"])
	assert.Nil(t, body.Alerts[1]["cloud_url"])

	rec = doRequest(e, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, mustField(t, rec.Body.Bytes(), "alerts"))

	svc.AssertExpectations(t)
}

func TestListAlertsBadLimit(t *testing.T) {
	svc := &mockAlertService{}
	e := setupTestServer(t, svc)

	rec := doRequest(e, http.MethodGet, "/api/v1/alerts?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), body.CorrelationID)
	svc.AssertNotCalled(t, "GetLatestAlerts", mock.Anything, mock.Anything)
}

func TestListAlertsStoreError(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("GetLatestAlerts", mock.Anything, 20).Return(nil, errors.NewStd("database is locked"))
	e := setupTestServer(t, svc)

	rec := doRequest(e, http.MethodGet, "/api/v1/alerts?limit=20", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateAlert(t *testing.T) {
	svc := &mockAlertService{}
	outcome := alerts.Outcome{
		StoreResult: alerts.StoreResult{
			AlertID:   7,
			Timestamp: "2024-05-01 10:00:00",
			Location:  "Unknown",
			TraceID:   "trace-1",
			Failures: []*errors.EnhancedError{
				errors.New(errors.NewStd("upload rejected")).Category(errors.CategoryImageUpload).Build(),
			},
		},
		Notified: true,
	}
	svc.On("Process", mock.Anything, mock.AnythingOfType("api.stubNotifier"), "fox", "/img/fox.jpg", "near the barn").
		Return(outcome)

	e := setupTestServer(t, svc, WithNotifier(stubNotifier{}))
	rec := doRequest(e, http.MethodPost, "/api/v1/alerts",
		`{"label":"fox","image_path":"/img/fox.jpg","message":"near the barn","notify":true}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body AlertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint(7), body.AlertID)
	assert.True(t, body.Notified)
	assert.True(t, body.Degraded)
	require.Len(t, body.Failures, 1)
	assert.Equal(t, "image-upload", body.Failures[0].Category)
	svc.AssertExpectations(t)
}

func TestCreateAlertWithoutNotify(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Process", mock.Anything, nil, "fox", "/img/fox.jpg", "").
		Return(alerts.Outcome{StoreResult: alerts.StoreResult{Location: "Unknown"}})

	e := setupTestServer(t, svc, WithNotifier(stubNotifier{}))
	rec := doRequest(e, http.MethodPost, "/api/v1/alerts", `{"label":"fox","image_path":"/img/fox.jpg"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestCreateAlertValidation(t *testing.T) {
	svc := &mockAlertService{}
	e := setupTestServer(t, svc)

	rec := doRequest(e, http.MethodPost, "/api/v1/alerts", `{"label":"  ","image_path":"/img/fox.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodPost, "/api/v1/alerts", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateAlertStatus(t *testing.T) {
	svc := &mockAlertService{}
	sent := true
	svc.On("UpdateAlertStatus", mock.Anything, "/img/fox.jpg", datastore.StatusUpdate{TelegramSent: &sent}).
		Return(int64(1), nil)
	svc.On("UpdateAlertStatus", mock.Anything, "/img/none.jpg", datastore.StatusUpdate{TelegramSent: &sent}).
		Return(int64(0), nil)

	e := setupTestServer(t, svc)

	rec := doRequest(e, http.MethodPatch, "/api/v1/alerts/status", `{"image_path":"/img/fox.jpg","telegram_sent":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"image_path":"/img/fox.jpg","rows_affected":1}`, rec.Body.String())

	rec = doRequest(e, http.MethodPatch, "/api/v1/alerts/status", `{"image_path":"/img/none.jpg","telegram_sent":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"image_path":"/img/none.jpg","rows_affected":0}`, rec.Body.String())

	rec = doRequest(e, http.MethodPatch, "/api/v1/alerts/status", `{"synced":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("alerts_stored_total 0\n"))
	})
	e := setupTestServer(t, &mockAlertService{}, WithMetricsHandler(metrics))

	rec := doRequest(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alerts_stored_total")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(&Config{Listen: "nonsense", ShutdownTimeout: DefaultShutdownTimeout}, &mockAlertService{}, nil)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), nil, nil)
	assert.Error(t, err)
}

func mustField(t *testing.T, data []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	return string(m[field])
}

func mustBool(t *testing.T, data []byte, field string) bool {
	t.Helper()
	var v bool
	require.NoError(t, json.Unmarshal([]byte(mustField(t, data, field)), &v))
	return v
}
