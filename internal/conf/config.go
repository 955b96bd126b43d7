// Package conf loads wildlife-alert settings from defaults, an optional
// config.yaml, a .env file and the process environment.
package conf

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

const (
	appName       = "wildlife-alert"
	secretMask    = "********"
	dotEnvFile    = ".env"
	defaultFolder = "wildlife_alerts"
)

// DatabaseSettings holds the local SQLite store settings.
type DatabaseSettings struct {
	Path string `yaml:"path"` // SQLite file, created on first use
}

// TelegramSettings configures the photo alert bot.
type TelegramSettings struct {
	BotToken string        `yaml:"bottoken"`
	ChatID   string        `yaml:"chatid"`
	APIBase  string        `yaml:"apibase"` // Bot API root, without the /bot<token> suffix
	Timeout  time.Duration `yaml:"timeout"`
}

// NotificationSettings lists additional text-only channels.
type NotificationSettings struct {
	ExtraURLs []string `yaml:"extraurls"` // shoutrrr service URLs
}

// ImageHostSettings holds Cloudinary credentials.
type ImageHostSettings struct {
	CloudName string `yaml:"cloudname"`
	APIKey    string `yaml:"apikey"`
	APISecret string `yaml:"apisecret"`
	Folder    string `yaml:"folder"`
}

// MirrorSettings configures the Firestore document mirror.
type MirrorSettings struct {
	CredentialsFile string `yaml:"credentialsfile"`
	Collection      string `yaml:"collection"`
}

// GeolocationSettings configures the IP location lookup.
type GeolocationSettings struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cachettl"`
}

// WebServerSettings configures the HTTP API.
type WebServerSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// TelemetrySettings configures error reporting.
type TelemetrySettings struct {
	SentryDSN string `yaml:"sentrydsn"`
}

// Settings is the root configuration tree.
type Settings struct {
	Debug        bool                 `yaml:"debug"`
	Logging      logger.LoggingConfig `yaml:"logging"`
	Database     DatabaseSettings     `yaml:"database"`
	Telegram     TelegramSettings     `yaml:"telegram"`
	Notification NotificationSettings `yaml:"notification"`
	ImageHost    ImageHostSettings    `yaml:"imagehost"`
	Mirror       MirrorSettings       `yaml:"mirror"`
	Geolocation  GeolocationSettings  `yaml:"geolocation"`
	WebServer    WebServerSettings    `yaml:"webserver"`
	Telemetry    TelemetrySettings    `yaml:"telemetry"`

	// Warnings lists suspicious values found while loading; they are
	// logged once logging is up.
	Warnings []string `yaml:"-" mapstructure:"-"`
}

// Load builds Settings. configFile may be empty, in which case config.yaml
// is looked up in the working directory and the user config directory and
// is optional. A .env file in the working directory is applied first
// without overriding variables already set.
func Load(configFile string) (*Settings, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaultConfig(v)

	warnings, err := configureEnvironmentVariables(v)
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	settings.Warnings = warnings

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return settings, nil
}

func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range defaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName))
	}
	return paths
}

// Redacted returns a copy with credentials masked, for display.
func (s *Settings) Redacted() Settings {
	out := *s
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return secretMask
	}
	out.Telegram.BotToken = mask(s.Telegram.BotToken)
	out.ImageHost.APIKey = mask(s.ImageHost.APIKey)
	out.ImageHost.APISecret = mask(s.ImageHost.APISecret)
	out.Telemetry.SentryDSN = mask(s.Telemetry.SentryDSN)
	if len(s.Notification.ExtraURLs) > 0 {
		out.Notification.ExtraURLs = make([]string, len(s.Notification.ExtraURLs))
		for i := range s.Notification.ExtraURLs {
			out.Notification.ExtraURLs[i] = secretMask
		}
	}
	return out
}

// DumpYAML renders the redacted settings.
func DumpYAML(s *Settings) ([]byte, error) {
	redacted := s.Redacted()
	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings: %w", err)
	}
	return data, nil
}

// SampleConfig returns the annotated sample config.yaml.
func SampleConfig() ([]byte, error) {
	data, err := configFiles.ReadFile("config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded sample config: %w", err)
	}
	return data, nil
}

// TelegramEnabled reports whether both bot credentials are present.
func (s *Settings) TelegramEnabled() bool {
	return s.Telegram.BotToken != "" && s.Telegram.ChatID != ""
}

// ImageHostEnabled reports whether all Cloudinary credentials are present.
func (s *Settings) ImageHostEnabled() bool {
	return s.ImageHost.CloudName != "" && s.ImageHost.APIKey != "" && s.ImageHost.APISecret != ""
}
