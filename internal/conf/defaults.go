package conf

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/wildlife-alert.log")
	v.SetDefault("logging.fileoutput.level", "debug")
	v.SetDefault("logging.fileoutput.maxsize", 10)
	v.SetDefault("logging.fileoutput.maxage", 14)
	v.SetDefault("logging.fileoutput.maxbackups", 5)
	v.SetDefault("logging.fileoutput.compress", true)

	v.SetDefault("database.path", "alerts.db")

	v.SetDefault("telegram.apibase", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 30*time.Second)

	v.SetDefault("notification.extraurls", []string{})

	v.SetDefault("imagehost.folder", defaultFolder)

	v.SetDefault("mirror.credentialsfile", "serviceAccountKey.json")
	v.SetDefault("mirror.collection", "animal_alerts")

	v.SetDefault("geolocation.endpoint", "https://ipinfo.io/json")
	v.SetDefault("geolocation.timeout", 10*time.Second)
	v.SetDefault("geolocation.cachettl", 10*time.Minute)

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.listen", "127.0.0.1:8080")

	v.SetDefault("telemetry.sentrydsn", "")
}
