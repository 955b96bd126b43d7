package conf

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/tphakala/wildlife-alert/internal/errors"
)

type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

var chatIDPattern = regexp.MustCompile(`^(-?\d+|@[A-Za-z][A-Za-z0-9_]{4,})$`)

func getEnvBindings() []envBinding {
	return []envBinding{
		{"telegram.bottoken", "TELEGRAM_BOT_TOKEN", validateEnvBotToken},
		{"telegram.chatid", "TELEGRAM_CHAT_ID", validateEnvChatID},
		{"imagehost.cloudname", "CLOUD_NAME", nil},
		{"imagehost.apikey", "CLOUD_API_KEY", nil},
		{"imagehost.apisecret", "CLOUD_API_SECRET", nil},
		{"mirror.credentialsfile", "FIREBASE_CREDENTIALS", nil},
		{"database.path", "WILDLIFE_DB_PATH", nil},
		{"telemetry.sentrydsn", "SENTRY_DSN", nil},
	}
}

// bindEnvVars binds the fixed variable names. Values that look malformed
// are reported as warnings and still used: a bad credential only disables
// its own feature once it is tried.
func bindEnvVars(v *viper.Viper) (warnings []string, err error) {
	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			return warnings, fmt.Errorf("failed to bind %s: %w", binding.EnvVar, err)
		}
		if binding.Validate == nil {
			continue
		}
		if value := os.Getenv(binding.EnvVar); value != "" {
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s looks malformed: %v", binding.EnvVar, err))
			}
		}
	}
	return warnings, nil
}

// configureEnvironmentVariables also maps WILDLIFE_<SECTION>_<KEY> onto
// every config key, e.g. WILDLIFE_GEOLOCATION_ENDPOINT.
func configureEnvironmentVariables(v *viper.Viper) ([]string, error) {
	v.SetEnvPrefix("WILDLIFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return bindEnvVars(v)
}

func validateEnvBotToken(value string) error {
	if !strings.Contains(value, ":") {
		return errors.NewStd("expected <bot id>:<secret>")
	}
	return nil
}

func validateEnvChatID(value string) error {
	if !chatIDPattern.MatchString(value) {
		return errors.NewStd("expected a numeric id or @channelname")
	}
	return nil
}

// loadDotEnv reads KEY=VALUE pairs from path into the process
// environment. Variables that are already set win. A missing file is fine.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error checking %s: %w", path, err)
	}

	dotenv := viper.New()
	dotenv.SetConfigFile(path)
	dotenv.SetConfigType("env")
	if err := dotenv.ReadInConfig(); err != nil {
		return errors.New(fmt.Errorf("error reading %s: %w", path, err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	for _, key := range dotenv.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, dotenv.GetString(key)); err != nil {
			return fmt.Errorf("error setting %s: %w", name, err)
		}
	}
	return nil
}
