package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	StorageDriver       string   `mapstructure:"STORAGE_DRIVER"`
	StoragePath         string   `mapstructure:"STORAGE_PATH"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	RedisURL            string   `mapstructure:"REDIS_URL"`
	ExportDir           string   `mapstructure:"EXPORT_DIR"`
	AuthTokenSecret     string   `mapstructure:"AUTH_TOKEN_SECRET"`
	CanvasMinImageChars int      `mapstructure:"CANVAS_MIN_IMAGE_CHARS"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_DRIVER", "sqlite")
	v.SetDefault("STORAGE_PATH", "roundshub.db")
	v.SetDefault("EXPORT_DIR", ".")
	v.SetDefault("CANVAS_MIN_IMAGE_CHARS", 400)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORAGE_DRIVER")
	v.BindEnv("STORAGE_PATH")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("REDIS_URL")
	v.BindEnv("EXPORT_DIR")
	v.BindEnv("AUTH_TOKEN_SECRET")
	v.BindEnv("CANVAS_MIN_IMAGE_CHARS")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. The server refuses
// to start when the selected storage driver is missing its settings.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "sqlite":
		if c.StoragePath == "" {
			return fmt.Errorf("STORAGE_PATH is required when STORAGE_DRIVER is \"sqlite\"")
		}
	case "memory":
		// nothing to configure; data is lost on restart
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is \"postgres\"")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORAGE_DRIVER is \"redis\"")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be \"sqlite\", \"memory\", \"postgres\", or \"redis\", got %q", c.StorageDriver)
	}

	if c.CanvasMinImageChars < 0 {
		return fmt.Errorf("CANVAS_MIN_IMAGE_CHARS must not be negative, got %d", c.CanvasMinImageChars)
	}

	if !c.IsDev() && c.AuthTokenSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET is required outside development (ENV=%q)", c.Env)
	}

	return nil
}
