package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel string            `yaml:"defaultlevel" json:"default_level" mapstructure:"defaultlevel"` // default log level for all modules
	Timezone     string            `yaml:"timezone" json:"timezone"`                                      // "Local", "UTC", or IANA name
	Console      *ConsoleOutput    `yaml:"console" json:"console"`                                        // console output configuration
	FileOutput   *FileOutput       `yaml:"fileoutput" json:"file_output" mapstructure:"fileoutput"`       // file output configuration
	ModuleLevels map[string]string `yaml:"modulelevels" json:"module_levels" mapstructure:"modulelevels"` // per-module log levels
}

// ConsoleOutput represents console logging configuration.
// Console output is text without timestamps; journald or Docker add them.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Level   string `yaml:"level" json:"level"`
}

// FileOutput represents file logging configuration. File output is JSON,
// rotated by lumberjack once MaxSize is reached.
type FileOutput struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Path       string `yaml:"path" json:"path"`
	Level      string `yaml:"level" json:"level"`
	MaxSize    int    `yaml:"maxsize" json:"max_size" mapstructure:"maxsize"`          // MB before rotation
	MaxAge     int    `yaml:"maxage" json:"max_age" mapstructure:"maxage"`             // days to keep rotated files
	MaxBackups int    `yaml:"maxbackups" json:"max_backups" mapstructure:"maxbackups"` // rotated files to keep
	Compress   bool   `yaml:"compress" json:"compress"`
}

const (
	DefaultLogLevel       = "info"
	DefaultLogPath        = "logs/wildlife-alert.log"
	DefaultMaxSize        = 10
	DefaultMaxAge         = 14
	DefaultMaxBackups     = 5
	DefaultConsoleEnabled = true
)

// applyConfigDefaults fills nil sections so an empty config still logs to
// the console. File output stays off unless configured.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg == nil {
		return
	}
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}
	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{
			Enabled: DefaultConsoleEnabled,
			Level:   cfg.DefaultLevel,
		}
	}
	if cfg.FileOutput != nil && cfg.FileOutput.Enabled {
		if cfg.FileOutput.Path == "" {
			cfg.FileOutput.Path = DefaultLogPath
		}
		if cfg.FileOutput.MaxSize == 0 {
			cfg.FileOutput.MaxSize = DefaultMaxSize
		}
		if cfg.FileOutput.MaxAge == 0 {
			cfg.FileOutput.MaxAge = DefaultMaxAge
		}
		if cfg.FileOutput.MaxBackups == 0 {
			cfg.FileOutput.MaxBackups = DefaultMaxBackups
		}
	}
}
