package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete application configuration. Values resolve in
// order: defaults, config.yaml, KEIRIDOCS_* environment variables.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Storage struct {
		// Dir is the local root the filesystem backend writes under.
		Dir string `mapstructure:"dir" yaml:"dir"`
		// DocumentsRoot is the top segment of generated document paths.
		DocumentsRoot string `mapstructure:"documents_root" yaml:"documents_root"`
		// PaceMillis is the delay inserted before every storage write,
		// copy and move, to respect the backend's rate limit.
		PaceMillis int `mapstructure:"pace_millis" yaml:"pace_millis"`
	} `mapstructure:"storage" yaml:"storage"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Export struct {
		Root string `mapstructure:"root" yaml:"root"`
	} `mapstructure:"export" yaml:"export"`

	Intake struct {
		Dir string `mapstructure:"dir" yaml:"dir"`
	} `mapstructure:"intake" yaml:"intake"`

	Server struct {
		Address string `mapstructure:"address" yaml:"address"`
	} `mapstructure:"server" yaml:"server"`
}

// InitializeConfig loads the configuration with hierarchical resolution.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.keiridocs")
	v.AddConfigPath(".keiridocs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KEIRIDOCS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Invalid config file: warn and continue with defaults + env.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// The API key is always taken from the unprefixed env variable.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "data/keiridocs.db")

	v.SetDefault("storage.dir", "data/storage")
	v.SetDefault("storage.documents_root", "documents")
	v.SetDefault("storage.pace_millis", 50)

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	v.SetDefault("export.root", "会計士エクスポート")

	v.SetDefault("intake.dir", "data/intake")

	v.SetDefault("server.address", ":8080")
}

func validateConfig(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	if cfg.Storage.PaceMillis < 0 {
		return fmt.Errorf("storage.pace_millis must not be negative")
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be positive")
	}
	return nil
}
