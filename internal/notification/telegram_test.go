package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tphakala/wildlife-alert/internal/logger"
	"github.com/tphakala/wildlife-alert/internal/observability/metrics"
)

const (
	testToken  = "123456:ABC-secret-token"
	testChatID = "-100200300"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// receivedPhoto is one sendPhoto request as seen by the mock server.
type receivedPhoto struct {
	path        string
	chatID      string
	caption     string
	fileName    string
	contentType string
	content     []byte
}

// mockTelegramServer simulates the sendPhoto endpoint.
type mockTelegramServer struct {
	server *httptest.Server
	status int

	mu       sync.Mutex
	requests []receivedPhoto
}

func newMockTelegramServer(t *testing.T, status int) *mockTelegramServer {
	t.Helper()
	m := &mockTelegramServer{status: status}
	m.server = httptest.NewServer(http.HandlerFunc(m.handleRequest))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockTelegramServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, "bad multipart body", http.StatusBadRequest)
		return
	}
	got := receivedPhoto{
		path:    r.URL.Path,
		chatID:  r.FormValue("chat_id"),
		caption: r.FormValue("caption"),
	}
	if file, header, err := r.FormFile("photo"); err == nil {
		got.fileName = header.Filename
		got.contentType = header.Header.Get("Content-Type")
		got.content, _ = io.ReadAll(file)
		_ = file.Close()
	}

	m.mu.Lock()
	m.requests = append(m.requests, got)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(m.status)
	if m.status == http.StatusOK {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
}

func (m *mockTelegramServer) Requests() []receivedPhoto {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]receivedPhoto(nil), m.requests...)
}

type fakeObserver struct {
	mu         sync.Mutex
	results    []string
	broadcasts []string
	codes      []string
}

func (f *fakeObserver) RecordNotification(result string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
}

func (f *fakeObserver) RecordBroadcast(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, status)
}

func (f *fakeObserver) RecordAPIResponse(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
}

type fakeBroadcaster struct {
	err      error
	messages []string
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, _, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fox.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))
	return path
}

func TestFormatCaption(t *testing.T) {
	assert.Equal(t, "[ALERT] fox detected at 2024-05-01 10:00:00",
		FormatCaption("fox", "2024-05-01 10:00:00", ""))
	assert.Equal(t, "[ALERT] fox detected at 2024-05-01 10:00:00\nnear the henhouse",
		FormatCaption("fox", "2024-05-01 10:00:00", "near the henhouse"))
}

func TestSendAlertSuccess(t *testing.T) {
	srv := newMockTelegramServer(t, http.StatusOK)
	obs := &fakeObserver{}
	n := New(Config{BotToken: testToken, ChatID: testChatID, APIBase: srv.server.URL}, nil, WithObserver(obs))

	img := writePNG(t)
	ok := n.SendAlert(context.Background(), "fox", "2024-05-01 10:00:00", img, "near the henhouse")
	require.True(t, ok)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, "/bot"+testToken+"/sendPhoto", got.path)
	assert.Equal(t, testChatID, got.chatID)
	assert.Equal(t, "[ALERT] fox detected at 2024-05-01 10:00:00\nnear the henhouse", got.caption)
	assert.Equal(t, "fox.png", got.fileName)
	assert.Equal(t, "image/png", got.contentType)
	assert.Equal(t, pngHeader, got.content)
	assert.Equal(t, []string{metrics.ResultSent}, obs.results)
	assert.Equal(t, []string{"200"}, obs.codes)
}

func TestSendAlertUnauthorized(t *testing.T) {
	srv := newMockTelegramServer(t, http.StatusUnauthorized)
	var buf bytes.Buffer
	obs := &fakeObserver{}
	n := New(Config{BotToken: testToken, ChatID: testChatID, APIBase: srv.server.URL},
		logger.NewSlogLogger(&buf, logger.LogLevelDebug, nil), WithObserver(obs))

	assert.NotPanics(t, func() {
		assert.False(t, n.SendAlert(context.Background(), "fox", "2024-05-01 10:00:00", writePNG(t), ""))
	})
	assert.Len(t, srv.Requests(), 1)
	assert.Contains(t, buf.String(), "401")
	assert.Contains(t, buf.String(), "Unauthorized")
	assert.Equal(t, []string{metrics.ResultFailed}, obs.results)
	assert.Equal(t, []string{"401"}, obs.codes)
}

func TestSendAlertTransportErrorScrubsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	var buf bytes.Buffer
	obs := &fakeObserver{}
	n := New(Config{BotToken: testToken, ChatID: testChatID, APIBase: base, Timeout: time.Second},
		logger.NewSlogLogger(&buf, logger.LogLevelDebug, nil), WithObserver(obs))

	assert.False(t, n.SendAlert(context.Background(), "fox", "2024-05-01 10:00:00", writePNG(t), ""))
	assert.Contains(t, buf.String(), "failed to send telegram alert")
	assert.NotContains(t, buf.String(), "ABC-secret-token")
	assert.Equal(t, []string{metrics.CodeTransportError}, obs.codes)
}

func TestSendAlertMissingImage(t *testing.T) {
	srv := newMockTelegramServer(t, http.StatusOK)
	n := New(Config{BotToken: testToken, ChatID: testChatID, APIBase: srv.server.URL}, nil)

	assert.False(t, n.SendAlert(context.Background(), "fox", "2024-05-01 10:00:00", filepath.Join(t.TempDir(), "gone.jpg"), ""))
	assert.Empty(t, srv.Requests())
}

func TestDisabledNotifier(t *testing.T) {
	var buf bytes.Buffer
	obs := &fakeObserver{}
	n := New(Config{ChatID: testChatID}, logger.NewSlogLogger(&buf, logger.LogLevelInfo, nil), WithObserver(obs))

	assert.False(t, n.Enabled())
	assert.False(t, n.SendAlert(context.Background(), "fox", "2024-05-01 10:00:00", writePNG(t), ""))
	assert.Contains(t, buf.String(), "alert not sent")
	assert.Equal(t, []string{metrics.ResultDisabled}, obs.results)
}

func TestBroadcastDoesNotChangeResult(t *testing.T) {
	srv := newMockTelegramServer(t, http.StatusOK)

	t.Run("broadcast failure after successful send", func(t *testing.T) {
		b := &fakeBroadcaster{err: assert.AnError}
		obs := &fakeObserver{}
		n := New(Config{BotToken: testToken, ChatID: testChatID, APIBase: srv.server.URL}, nil,
			WithBroadcaster(b), WithObserver(obs))

		assert.True(t, n.SendAlert(context.Background(), "owl", "2024-05-01 22:00:00", writePNG(t), ""))
		assert.Equal(t, []string{"[ALERT] owl detected at 2024-05-01 22:00:00"}, b.messages)
		assert.Equal(t, []string{metrics.StatusError}, obs.broadcasts)
	})

	t.Run("broadcast success while telegram disabled", func(t *testing.T) {
		b := &fakeBroadcaster{}
		obs := &fakeObserver{}
		n := New(Config{}, nil, WithBroadcaster(b), WithObserver(obs))

		assert.False(t, n.SendAlert(context.Background(), "owl", "2024-05-01 22:00:00", writePNG(t), "extra"))
		assert.Equal(t, []string{"[ALERT] owl detected at 2024-05-01 22:00:00\nextra"}, b.messages)
		assert.Equal(t, []string{metrics.StatusSuccess}, obs.broadcasts)
	})
}

func TestInvalidExtraURLsAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	n := New(Config{BotToken: testToken, ChatID: testChatID, ExtraURLs: []string{"notaservice://nothing"}},
		logger.NewSlogLogger(&buf, logger.LogLevelInfo, nil))

	assert.Nil(t, n.broadcaster)
	assert.Contains(t, buf.String(), "extra notification channels disabled")
}

func TestTruncateCaption(t *testing.T) {
	short := "[ALERT] fox"
	assert.Equal(t, short, truncateCaption(short))

	long := strings.Repeat("ä", maxCaptionRunes+10)
	got := truncateCaption(long)
	assert.Equal(t, maxCaptionRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestNewShoutrrrBroadcasterRequiresURLs(t *testing.T) {
	_, err := NewShoutrrrBroadcaster(nil, time.Second)
	assert.Error(t, err)
}

func TestSendAlertRateLimitedByContext(t *testing.T) {
	srv := newMockTelegramServer(t, http.StatusOK)
	obs := &fakeObserver{}
	n := New(Config{BotToken: testToken, ChatID: testChatID, APIBase: srv.server.URL}, nil,
		WithObserver(obs), WithRateLimit(rate.Every(time.Hour), 1))
	img := writePNG(t)

	assert.True(t, n.SendAlert(context.Background(), "fox", "2024-05-01 10:00:00", img, ""))

	// The bucket is empty; a deadline shorter than the refill fails fast.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.False(t, n.SendAlert(ctx, "fox", "2024-05-01 10:00:01", img, ""))

	assert.Len(t, srv.Requests(), 1)
	assert.Equal(t, []string{metrics.ResultSent, metrics.ResultFailed}, obs.results)
}
