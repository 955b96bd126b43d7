// Package mirror copies alert records into a remote Firestore collection.
package mirror

import (
	"context"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

const (
	DefaultCredentialsFile = "serviceAccountKey.json"
	DefaultCollection      = "animal_alerts"

	componentName = "mirror"
)

// ErrDisabled is returned by the mirror used when no credentials exist.
var ErrDisabled = errors.NewStd("remote mirror not configured")

// Document is the remote copy of an alert.
type Document struct {
	Label     string   `firestore:"label"`
	Timestamp string   `firestore:"timestamp"`
	CloudURL  string   `firestore:"cloud_url"`
	LocalPath string   `firestore:"local_path"`
	Latitude  *float64 `firestore:"latitude"`
	Longitude *float64 `firestore:"longitude"`
	Location  string   `firestore:"location"`
}

// Mirror writes documents to the remote store.
type Mirror interface {
	// Record adds doc under a generated id and returns that id.
	Record(ctx context.Context, doc Document) (string, error)
	Enabled() bool
	Close() error
}

// Config selects the credentials file and target collection.
type Config struct {
	CredentialsFile string
	Collection      string
}

// New connects to Firestore. When the credentials file does not exist the
// returned mirror is Disabled and no error is reported.
func New(ctx context.Context, cfg Config, log logger.Logger) (Mirror, error) {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	log = log.Module(componentName)

	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = DefaultCredentialsFile
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		log.Warn("firebase credentials not found, remote mirror disabled",
			logger.String("credentials_file", cfg.CredentialsFile))
		return Disabled{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, mirrorError(err, "init_app")
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, mirrorError(err, "init_firestore")
	}

	log.Info("firestore mirror ready", logger.String("collection", cfg.Collection))
	return newFirestore(client, cfg.Collection, log), nil
}

// Firestore mirrors into a single collection.
type Firestore struct {
	client     *firestore.Client
	collection string
	add        func(ctx context.Context, doc Document) (string, error)
	logger     logger.Logger
}

func newFirestore(client *firestore.Client, collection string, log logger.Logger) *Firestore {
	f := &Firestore{client: client, collection: collection, logger: log}
	f.add = func(ctx context.Context, doc Document) (string, error) {
		ref, _, err := client.Collection(collection).Add(ctx, doc)
		if err != nil {
			return "", err
		}
		return ref.ID, nil
	}
	return f
}

func (f *Firestore) Enabled() bool { return true }

func (f *Firestore) Record(ctx context.Context, doc Document) (string, error) {
	start := time.Now()
	id, err := f.add(ctx, doc)
	if err != nil {
		return "", errors.New(err).
			Component(componentName).
			Category(errors.CategoryMirror).
			Context("operation", "add_document").
			Context("collection", f.collection).
			Timing("mirror_write", time.Since(start)).
			Build()
	}
	f.logger.WithContext(ctx).Info("alert mirrored",
		logger.String("collection", f.collection),
		logger.String("document_id", id),
		logger.Duration("duration", time.Since(start)))
	return id, nil
}

// Close releases the Firestore client.
func (f *Firestore) Close() error {
	if f.client == nil {
		return nil
	}
	if err := f.client.Close(); err != nil {
		return mirrorError(err, "close")
	}
	return nil
}

func mirrorError(err error, operation string) error {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryMirror).
		Context("operation", operation).
		Build()
}

// Disabled is the Mirror used without credentials.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Record(context.Context, Document) (string, error) {
	return "", ErrDisabled
}

func (Disabled) Close() error { return nil }
