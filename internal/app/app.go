// Package app assembles the alert pipeline from settings. Commands share
// one App per process so the SQLite pool is opened once.
package app

import (
	"context"
	"fmt"

	"github.com/tphakala/wildlife-alert/internal/alerts"
	"github.com/tphakala/wildlife-alert/internal/conf"
	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/geolocation"
	"github.com/tphakala/wildlife-alert/internal/imagehost"
	"github.com/tphakala/wildlife-alert/internal/logger"
	"github.com/tphakala/wildlife-alert/internal/mirror"
	"github.com/tphakala/wildlife-alert/internal/notification"
	"github.com/tphakala/wildlife-alert/internal/observability"
)

// App holds the wired components.
type App struct {
	Settings *conf.Settings
	Store    *datastore.Store
	Recorder *alerts.Recorder
	Notifier *notification.TelegramNotifier
	Metrics  *observability.Metrics

	locator *geolocation.IPInfoLocator
	mirror  mirror.Mirror
	logger  logger.Logger
}

// OpenStore opens the configured database and ensures its schema.
func OpenStore(ctx context.Context, settings *conf.Settings, log logger.Logger) (*datastore.Store, error) {
	store, err := datastore.Open(settings.Database.Path, log)
	if err != nil {
		return nil, err
	}
	if err := store.InitDB(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// New wires every component. Collaborators without credentials come up
// disabled instead of failing.
func New(ctx context.Context, settings *conf.Settings, log logger.Logger) (*App, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	if log == nil {
		log = logger.Global().Module("app")
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	store, err := OpenStore(ctx, settings, log)
	if err != nil {
		return nil, err
	}

	locator := geolocation.NewIPInfoLocator(geolocation.Config{
		Endpoint: settings.Geolocation.Endpoint,
		Timeout:  settings.Geolocation.Timeout,
		CacheTTL: settings.Geolocation.CacheTTL,
	}, log)

	uploader, err := imagehost.New(imagehost.Config{
		CloudName: settings.ImageHost.CloudName,
		APIKey:    settings.ImageHost.APIKey,
		APISecret: settings.ImageHost.APISecret,
		Folder:    settings.ImageHost.Folder,
	}, log)
	if err != nil {
		log.Warn("image upload disabled", logger.Error(err))
		uploader = imagehost.Disabled{}
	}

	mir, err := mirror.New(ctx, mirror.Config{
		CredentialsFile: settings.Mirror.CredentialsFile,
		Collection:      settings.Mirror.Collection,
	}, log)
	if err != nil {
		log.Warn("firestore mirror disabled", logger.Error(err))
		mir = mirror.Disabled{}
	}

	notifier := notification.New(notification.Config{
		BotToken:  settings.Telegram.BotToken,
		ChatID:    settings.Telegram.ChatID,
		APIBase:   settings.Telegram.APIBase,
		Timeout:   settings.Telegram.Timeout,
		ExtraURLs: settings.Notification.ExtraURLs,
	}, log, notification.WithObserver(m.Notification))

	recorder := alerts.NewRecorder(store, locator, uploader, mir, log, alerts.WithObserver(m.Alerts))

	return &App{
		Settings: settings,
		Store:    store,
		Recorder: recorder,
		Notifier: notifier,
		Metrics:  m,
		locator:  locator,
		mirror:   mir,
		logger:   log,
	}, nil
}

// Refresh drops the cached location, so the next alert looks it up again,
// and reopens the log file for external rotation tools.
func (a *App) Refresh() {
	a.locator.Flush()
	if err := logger.Global().Rotate(); err != nil {
		a.logger.Warn("failed to rotate log file", logger.Error(err))
	}
	a.logger.Info("location cache cleared, log file rotated")
}

// Close releases the mirror client and the database pool.
func (a *App) Close() error {
	if err := a.mirror.Close(); err != nil {
		a.logger.Warn("failed to close firestore client", logger.Error(err))
	}
	return a.Store.Close()
}
