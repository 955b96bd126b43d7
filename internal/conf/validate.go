package conf

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError collects every malformed setting found.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings rejects malformed values. Missing credentials are not
// errors; the matching feature is disabled at startup instead.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}
	add := func(err error) {
		if err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	add(validateLoggingSettings(settings))
	add(validateDatabaseSettings(&settings.Database))
	add(validateTelegramSettings(&settings.Telegram))
	add(validateNotificationSettings(&settings.Notification))
	add(validateMirrorSettings(&settings.Mirror))
	add(validateGeolocationSettings(&settings.Geolocation))
	add(validateWebServerSettings(&settings.WebServer))

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLoggingSettings(settings *Settings) error {
	check := func(field, level string) error {
		switch strings.ToLower(level) {
		case "", "trace", "debug", "info", "warn", "warning", "error":
			return nil
		}
		return fmt.Errorf("%s: unknown log level %q", field, level)
	}
	if err := check("logging.defaultlevel", settings.Logging.DefaultLevel); err != nil {
		return err
	}
	for module, level := range settings.Logging.ModuleLevels {
		if err := check("logging.modulelevels."+module, level); err != nil {
			return err
		}
	}
	return nil
}

func validateDatabaseSettings(settings *DatabaseSettings) error {
	if strings.TrimSpace(settings.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	return nil
}

func validateTelegramSettings(settings *TelegramSettings) error {
	if err := validateHTTPURL("telegram.apibase", settings.APIBase); err != nil {
		return err
	}
	if settings.Timeout <= 0 {
		return fmt.Errorf("telegram.timeout must be positive, got %s", settings.Timeout)
	}
	return nil
}

func validateNotificationSettings(settings *NotificationSettings) error {
	for i, raw := range settings.ExtraURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("notification.extraurls[%d] is not a service URL", i)
		}
	}
	return nil
}

func validateMirrorSettings(settings *MirrorSettings) error {
	if settings.Collection == "" {
		return fmt.Errorf("mirror.collection must not be empty")
	}
	if strings.Contains(settings.Collection, "/") {
		return fmt.Errorf("mirror.collection must be a top-level collection name, got %q", settings.Collection)
	}
	return nil
}

func validateGeolocationSettings(settings *GeolocationSettings) error {
	if err := validateHTTPURL("geolocation.endpoint", settings.Endpoint); err != nil {
		return err
	}
	if settings.Timeout <= 0 {
		return fmt.Errorf("geolocation.timeout must be positive, got %s", settings.Timeout)
	}
	if settings.CacheTTL < 0 {
		return fmt.Errorf("geolocation.cachettl must not be negative, got %s", settings.CacheTTL)
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("webserver.listen %q: %w", settings.Listen, err)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	return nil
}
