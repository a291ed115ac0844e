package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geosearch GeosearchConfig `yaml:"geosearch" mapstructure:"geosearch"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GeosearchConfig locates the remote geosearch service.
type GeosearchConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Port              string  `yaml:"port" mapstructure:"port"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ExportConfig configures where flattened results are written.
type ExportConfig struct {
	Format      string `yaml:"format" mapstructure:"format"`
	Path        string `yaml:"path" mapstructure:"path"`
	Table       string `yaml:"table" mapstructure:"table"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INDICATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("geosearch.base_url", "http://ec2-13-229-144-6.ap-southeast-1.compute.amazonaws.com")
	v.SetDefault("geosearch.port", "5000")
	v.SetDefault("geosearch.timeout_secs", 60)
	v.SetDefault("geosearch.requests_per_second", 0)
	v.SetDefault("export.format", "json")
	v.SetDefault("export.table", "indicators")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is "search" or "export".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "search":
		if c.Geosearch.BaseURL == "" {
			problems = append(problems, "geosearch.base_url is required")
		}
		if c.Geosearch.TimeoutSecs < 0 {
			problems = append(problems, "geosearch.timeout_secs must be >= 0")
		}
		if c.Geosearch.RequestsPerSecond < 0 {
			problems = append(problems, "geosearch.requests_per_second must be >= 0")
		}
	case "export":
		switch strings.ToLower(c.Export.Format) {
		case "json", "yaml", "csv":
		case "xlsx", "sqlite":
			if c.Export.Path == "" {
				problems = append(problems, "export.path is required for "+c.Export.Format)
			}
		case "postgres":
			if c.Export.DatabaseURL == "" {
				problems = append(problems, "export.database_url is required for postgres")
			}
		default:
			problems = append(problems, "export.format must be one of json, yaml, csv, xlsx, sqlite, postgres")
		}
		if c.Export.Table == "" {
			problems = append(problems, "export.table is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
