// Package alerts records detection events: it resolves the host location,
// uploads the image, upserts the local row and mirrors it remotely. Each
// step is best effort; failures are collected, never fatal.
package alerts

import (
	"context"
	"time"

	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/geolocation"
	"github.com/tphakala/wildlife-alert/internal/imagehost"
	"github.com/tphakala/wildlife-alert/internal/logger"
	"github.com/tphakala/wildlife-alert/internal/mirror"
	"github.com/tphakala/wildlife-alert/internal/observability/metrics"
)

const componentName = "alerts"

// Repository is the local store used by the Recorder. *datastore.Store
// implements it.
type Repository interface {
	UpsertAlert(ctx context.Context, a *datastore.Alert) error
	GetLatestAlerts(ctx context.Context, limit int) ([]datastore.AlertSummary, error)
	UpdateAlertStatus(ctx context.Context, imagePath string, upd datastore.StatusUpdate) (int64, error)
}

// Observer receives per-run statistics. *metrics.AlertMetrics implements it.
type Observer interface {
	RecordStore(duration time.Duration, failedSteps []string)
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now, used for alert timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithObserver reports each StoreAlert run to o.
func WithObserver(o Observer) Option {
	return func(r *Recorder) { r.observer = o }
}

// Recorder runs the store pipeline against injected collaborators.
type Recorder struct {
	repo     Repository
	locator  geolocation.Locator
	uploader imagehost.Uploader
	mirror   mirror.Mirror
	observer Observer
	now      func() time.Time
	logger   logger.Logger
}

// NewRecorder creates a Recorder. A nil locator, uploader or mirror turns
// the matching step off.
func NewRecorder(repo Repository, locator geolocation.Locator, uploader imagehost.Uploader, m mirror.Mirror, log logger.Logger, opts ...Option) *Recorder {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	if uploader == nil {
		uploader = imagehost.Disabled{}
	}
	if m == nil {
		m = mirror.Disabled{}
	}
	r := &Recorder{
		repo:     repo,
		locator:  locator,
		uploader: uploader,
		mirror:   m,
		now:      time.Now,
		logger:   log.Module(componentName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StoreAlert records label and imagePath. It always returns a result;
// failed steps are listed in StoreResult.Failures. A trace ID already on
// ctx is reused, otherwise one is generated.
func (r *Recorder) StoreAlert(ctx context.Context, label, imagePath string) StoreResult {
	traceID := logger.TraceID(ctx)
	if traceID == "" {
		ctx, traceID = logger.NewTraceID(ctx)
	}
	log := r.logger.WithContext(ctx).With(logger.String("label", label))
	start := time.Now()

	res := StoreResult{
		Timestamp: r.now().Local().Format(datastore.TimestampLayout),
		TraceID:   traceID,
	}
	log.Debug("storing alert", logger.String("image_path", imagePath))

	r.locate(ctx, log, &res)
	r.upload(ctx, log, label, imagePath, &res)
	r.persist(ctx, log, label, imagePath, &res)
	r.mirrorRecord(ctx, log, label, imagePath, &res)

	if r.observer != nil {
		r.observer.RecordStore(time.Since(start), res.FailedSteps())
	}
	log.Info("alert stored",
		logger.Bool("uploaded", res.CloudURL != ""),
		logger.Bool("mirrored", res.DocumentID != ""),
		logger.String("location", res.Location),
		logger.Int("failures", len(res.Failures)),
		logger.Duration("duration", time.Since(start)))
	return res
}

func (r *Recorder) locate(ctx context.Context, log logger.Logger, res *StoreResult) {
	res.Location = geolocation.UnknownLocation
	if r.locator == nil {
		return
	}
	loc, err := r.locator.Locate(ctx)
	if err != nil {
		log.Warn("geolocation lookup failed", logger.Error(err))
		res.addFailure(err, errors.CategoryGeolocation, metrics.StepGeolocation)
		return
	}
	res.Latitude, res.Longitude = loc.Latitude, loc.Longitude
	if loc.City != "" {
		res.Location = loc.City
	}
}

func (r *Recorder) upload(ctx context.Context, log logger.Logger, label, imagePath string, res *StoreResult) {
	up, err := r.uploader.Upload(ctx, imagePath, map[string]string{
		"label":     label,
		"timestamp": res.Timestamp,
	})
	switch {
	case errors.Is(err, imagehost.ErrDisabled):
		log.Debug("image upload skipped, image host not configured")
	case err != nil:
		log.Error("image upload failed", logger.Error(err))
		res.addFailure(err, errors.CategoryImageUpload, metrics.StepUpload)
	case up.SecureURL == "" || up.PublicID == "":
		// both or neither
		log.Warn("image upload returned an incomplete result")
		res.addFailure(errors.NewStd("incomplete upload result"), errors.CategoryImageUpload, metrics.StepUpload)
	default:
		res.CloudURL, res.PublicID = up.SecureURL, up.PublicID
	}
}

func (r *Recorder) persist(ctx context.Context, log logger.Logger, label, imagePath string, res *StoreResult) {
	if r.repo == nil {
		return
	}
	row := &datastore.Alert{
		Label:     label,
		Timestamp: res.Timestamp,
		ImagePath: imagePath,
		Synced:    res.CloudURL != "",
		Latitude:  res.Latitude,
		Longitude: res.Longitude,
		Location:  res.Location,
	}
	if res.CloudURL != "" {
		cloudURL := res.CloudURL
		row.CloudURL = &cloudURL
	}
	if err := r.repo.UpsertAlert(ctx, row); err != nil {
		log.Error("failed to save alert locally", logger.Error(err))
		res.addFailure(err, errors.CategoryDatabase, metrics.StepDatabase)
		return
	}
	res.AlertID = row.ID
}

func (r *Recorder) mirrorRecord(ctx context.Context, log logger.Logger, label, imagePath string, res *StoreResult) {
	if !r.mirror.Enabled() || res.CloudURL == "" {
		return
	}
	id, err := r.mirror.Record(ctx, mirror.Document{
		Label:     label,
		Timestamp: res.Timestamp,
		CloudURL:  res.CloudURL,
		LocalPath: imagePath,
		Latitude:  res.Latitude,
		Longitude: res.Longitude,
		Location:  res.Location,
	})
	if err != nil {
		log.Error("failed to mirror alert", logger.Error(err))
		res.addFailure(err, errors.CategoryMirror, metrics.StepMirror)
		return
	}
	res.DocumentID = id
}

// GetLatestAlerts returns up to limit alerts, newest first. A
// non-positive limit means datastore.DefaultLatestLimit.
func (r *Recorder) GetLatestAlerts(ctx context.Context, limit int) ([]datastore.AlertSummary, error) {
	if limit <= 0 {
		limit = datastore.DefaultLatestLimit
	}
	if r.repo == nil {
		return nil, datastore.ErrNotOpen
	}
	alerts, err := r.repo.GetLatestAlerts(ctx, limit)
	if err != nil {
		r.logger.WithContext(ctx).Error("failed to read latest alerts", logger.Error(err))
		return nil, categorize(err, errors.CategoryDatabase)
	}
	return alerts, nil
}

// UpdateAlertStatus sets the flags given in upd on the row for imagePath.
// An empty update touches nothing; an unknown path returns zero rows.
func (r *Recorder) UpdateAlertStatus(ctx context.Context, imagePath string, upd datastore.StatusUpdate) (int64, error) {
	if upd.IsEmpty() {
		return 0, nil
	}
	if r.repo == nil {
		return 0, datastore.ErrNotOpen
	}
	log := r.logger.WithContext(ctx).With(logger.String("image_path", imagePath))

	n, err := r.repo.UpdateAlertStatus(ctx, imagePath, upd)
	if err != nil {
		log.Error("failed to update alert status", logger.Error(err))
		return 0, categorize(err, errors.CategoryDatabase)
	}
	log.Debug("alert status updated", logger.Int64("rows", n))
	return n, nil
}

// categorize returns err as an EnhancedError of category, reusing err when
// it already carries that category.
func categorize(err error, category errors.ErrorCategory) *errors.EnhancedError {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) && ee.Category == category {
		return ee
	}
	return errors.New(err).
		Component(componentName).
		Category(category).
		Build()
}
