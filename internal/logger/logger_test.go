package logger_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/wildlife-alert/internal/logger"
)

func TestLogLevels(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		configLevel   logger.LogLevel
		logFunc       func(l logger.Logger, msg string)
		shouldContain bool
	}{
		{"debug in debug", logger.LogLevelDebug, func(l logger.Logger, m string) { l.Debug(m) }, true},
		{"debug in info", logger.LogLevelInfo, func(l logger.Logger, m string) { l.Debug(m) }, false},
		{"trace in debug", logger.LogLevelDebug, func(l logger.Logger, m string) { l.Trace(m) }, false},
		{"trace in trace", logger.LogLevelTrace, func(l logger.Logger, m string) { l.Trace(m) }, true},
		{"warn in info", logger.LogLevelInfo, func(l logger.Logger, m string) { l.Warn(m) }, true},
		{"warn in error", logger.LogLevelError, func(l logger.Logger, m string) { l.Warn(m) }, false},
		{"error in error", logger.LogLevelError, func(l logger.Logger, m string) { l.Error(m) }, true},
		{"explicit level", logger.LogLevelInfo, func(l logger.Logger, m string) { l.Log(logger.LogLevelWarn, m) }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.NewSlogLogger(&buf, tc.configLevel, time.UTC)

			msg := "message for " + tc.name
			tc.logFunc(log, msg)

			if tc.shouldContain {
				assert.Contains(t, buf.String(), msg)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestModuleScopes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	root := logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC)

	root.Module("alerts").Module("upload").Info("uploaded", logger.String("public_id", "wildlife/abc"))

	out := buf.String()
	assert.Contains(t, out, "[alerts.upload] uploaded")
	assert.Contains(t, out, "public_id=wildlife/abc")
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	parent := logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC).Module("datastore")
	child := parent.With(logger.String("label", "fox"))

	child.Info("child line")
	parent.Info("parent line")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "label=fox")
	assert.NotContains(t, string(lines[1]), "label=fox")
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC)

	ctx, id := logger.NewTraceID(context.Background())
	require.NotEmpty(t, id)

	log.WithContext(ctx).Info("traced")
	log.WithContext(context.Background()).Info("untraced")

	out := buf.String()
	assert.Contains(t, out, "trace_id="+id)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("trace_id=")))
}

func TestFieldRendering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC)

	log.Info("fields",
		logger.Float64("lat", 60.1234567),
		logger.Duration("took", 1500*time.Millisecond),
		logger.Error(errors.New("boom")),
		logger.Error(nil),
		logger.String("caption", "two words"))

	out := buf.String()
	assert.Contains(t, out, "lat=60.123")
	assert.Contains(t, out, "took=1.5s")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, `caption="two words"`)
}

func TestSensitiveValuesAreRedacted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC)

	log.Info("request failed",
		logger.String("bot_token", "123456:ABCDEF"),
		logger.String("url", "https://api.telegram.org/bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/sendPhoto"))

	out := buf.String()
	assert.NotContains(t, out, "123456:ABCDEF")
	assert.NotContains(t, out, "AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw")
	assert.Contains(t, out, "[REDACTED]")
}

func TestRedactSensitiveData(t *testing.T) {
	t.Parallel()

	assert.Empty(t, logger.RedactSensitiveData(""))
	assert.Equal(t, "plain text", logger.RedactSensitiveData("plain text"))
	assert.Equal(t, "upload?api_key=[REDACTED]&folder=x",
		logger.RedactSensitiveData("upload?api_key=12345&folder=x"))
}

func TestCentralLoggerWritesJSONFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "alerts.log")
	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path},
		ModuleLevels: map[string]string{"alerts": "warn"},
	})
	require.NoError(t, err)

	cl.Module("datastore").Debug("schema ready", logger.Int("columns", 6))
	cl.Module("alerts").Info("suppressed by module level")
	cl.Module("alerts.upload").Warn("inherits parent level")
	require.NoError(t, cl.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)

	assert.Equal(t, "schema ready", records[0]["msg"])
	assert.Equal(t, "datastore", records[0]["module"])
	assert.InDelta(t, 6, records[0]["columns"], 0)
	assert.Equal(t, "alerts.upload", records[1]["module"])
}

func TestCentralLoggerRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(nil)
	require.Error(t, err)

	_, err = logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Nowhere/Invalid"})
	require.Error(t, err)
}
