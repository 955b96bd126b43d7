// Package imagehost uploads alert images to Cloudinary.
package imagehost

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
	"github.com/tphakala/wildlife-alert/internal/privacy"
)

const (
	DefaultFolder = "wildlife_alerts"

	componentName = "imagehost"
)

// ErrDisabled is returned by the uploader used when no credentials are
// configured.
var ErrDisabled = errors.NewStd("image host not configured")

// Result identifies an uploaded image. Both fields are set together.
type Result struct {
	SecureURL string
	PublicID  string
}

// Uploader uploads a local image with key/value metadata.
type Uploader interface {
	Upload(ctx context.Context, imagePath string, metadata map[string]string) (Result, error)
	Enabled() bool
}

// Config holds Cloudinary credentials and the target folder.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// UploadPrefix overrides the API host, e.g. for tests.
	UploadPrefix string
}

// Configured reports whether all credentials are present.
func (c Config) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// New returns a Cloudinary uploader, or a disabled one when credentials
// are missing.
func New(cfg Config, log logger.Logger) (Uploader, error) {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	log = log.Module(componentName)

	if !cfg.Configured() {
		log.Warn("cloudinary credentials missing, image upload disabled")
		return Disabled{}, nil
	}
	return NewCloudinary(cfg, log)
}

// Cloudinary uploads through the Cloudinary upload API.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	secret string
	logger logger.Logger
}

// NewCloudinary creates an uploader from cfg.
func NewCloudinary(cfg Config, log logger.Logger) (*Cloudinary, error) {
	cldConfig, err := config.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, errors.New(privacy.WrapError(err, cfg.APISecret)).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	// Each SDK API keeps its own copy of the configuration, so the prefix
	// must be set before the client is built.
	if cfg.UploadPrefix != "" {
		cldConfig.API.UploadPrefix = cfg.UploadPrefix
	}
	cld, err := cloudinary.NewFromConfiguration(*cldConfig)
	if err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	folder := cfg.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Cloudinary{cld: cld, folder: folder, secret: cfg.APISecret, logger: log}, nil
}

func (c *Cloudinary) Enabled() bool { return true }

// Upload sends imagePath into the configured folder with metadata as the
// image context.
func (c *Cloudinary) Upload(ctx context.Context, imagePath string, metadata map[string]string) (Result, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return Result{}, errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Context("operation", "stat_image").
			Build()
	}

	params := uploader.UploadParams{
		Folder:  c.folder,
		Context: api.CldAPIMap(metadata),
	}

	start := time.Now()
	resp, err := c.cld.Upload.Upload(ctx, imagePath, params)
	if err == nil && resp != nil && resp.Error.Message != "" {
		err = fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	if err == nil && (resp == nil || resp.SecureURL == "" || resp.PublicID == "") {
		err = errors.NewStd("cloudinary: response missing secure_url or public_id")
	}
	if err != nil {
		return Result{}, errors.New(privacy.WrapError(err, c.secret)).
			Component(componentName).
			Category(errors.CategoryImageUpload).
			FileContext(imagePath, info.Size()).
			Timing("upload_image", time.Since(start)).
			Context("folder", c.folder).
			Build()
	}

	c.logger.WithContext(ctx).Info("image uploaded",
		logger.String("public_id", resp.PublicID),
		logger.Int64("bytes", info.Size()),
		logger.Duration("duration", time.Since(start)))
	return Result{SecureURL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

// Disabled is the Uploader used without credentials.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Upload(context.Context, string, map[string]string) (Result, error) {
	return Result{}, ErrDisabled
}
