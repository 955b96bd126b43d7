package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigSampleNeedsNoConfiguration(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCommand(t, "config", "--sample")
	require.NoError(t, err)
	assert.Contains(t, out, "wildlife-alert sample configuration")
}

func TestDatabaseCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "alerts.db")
	t.Setenv("WILDLIFE_DB_PATH", dbPath)

	out, err := runCommand(t, "initdb")
	require.NoError(t, err)
	assert.Contains(t, out, "Database ready: "+dbPath)
	assert.Contains(t, out, "telegram_sent")

	out, err = runCommand(t, "latest", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "TIMESTAMP")

	out, err = runCommand(t, "status", "missing.jpg", "--telegram")
	require.NoError(t, err)
	assert.Contains(t, out, "No alert stored for missing.jpg")

	_, err = runCommand(t, "status", "missing.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestArgumentValidation(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCommand(t, "store", "fox")
	assert.Error(t, err)

	_, err = runCommand(t, "notify")
	assert.Error(t, err)
}

func TestConfigDumpMasksSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("WILDLIFE_DB_PATH", filepath.Join(dir, "alerts.db"))
	t.Setenv("CLOUD_API_SECRET", "very-secret-value")

	out, err := runCommand(t, "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "very-secret-value")
	assert.Contains(t, out, "********")
}

func TestMalformedCredentialsDoNotBlockCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{"CLOUD_NAME", "CLOUD_API_KEY", "CLOUD_API_SECRET", "SENTRY_DSN"} {
		t.Setenv(name, "")
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "invalid-token")
	t.Setenv("TELEGRAM_CHAT_ID", "mychannel")
	t.Setenv("FIREBASE_CREDENTIALS", "../secrets/serviceAccountKey.json")
	t.Setenv("WILDLIFE_DB_PATH", filepath.Join(dir, "alerts.db"))

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"city":"Helsinki","loc":"60.1699,24.9384"}`))
	}))
	defer geo.Close()
	t.Setenv("WILDLIFE_GEOLOCATION_ENDPOINT", geo.URL)

	telegram := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false,"error_code":404,"description":"Not Found"}`, http.StatusNotFound)
	}))
	defer telegram.Close()
	t.Setenv("WILDLIFE_TELEGRAM_APIBASE", telegram.URL)

	img := filepath.Join(dir, "fox.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg"), 0o600))

	_, err := runCommand(t, "initdb")
	require.NoError(t, err)

	out, err := runCommand(t, "store", "fox", img)
	require.NoError(t, err)
	assert.Contains(t, out, "Helsinki")
	assert.Contains(t, out, "Alert ID:")

	out, err = runCommand(t, "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "fox")

	// the bad token is only rejected when Telegram is called
	_, err = runCommand(t, "notify", "fox", img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not delivered")
}

func TestServeRefusesWhenWebServerDisabled(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("WILDLIFE_DB_PATH", filepath.Join(dir, "alerts.db"))
	t.Setenv("WILDLIFE_WEBSERVER_ENABLED", "false")

	_, err := runCommand(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webserver is disabled")
}

func TestShutdownAfterFailedCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCommand(t, "status", "missing.jpg")
	require.Error(t, err)
	assert.NotPanics(t, Shutdown)
}
