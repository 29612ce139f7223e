// Package config loads application settings from the environment, an
// optional .env file, and an optional configs/config.yml.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"golang.org/x/crypto/bcrypt"
)

const minBcryptCost = 10

// Config holds everything the server needs at startup.
type Config struct {
	Port          string
	GinMode       string
	LogLevel      string
	DBPath        string
	SessionSecret string
	SessionMaxAge time.Duration
	BcryptCost    int
}

// Load reads configuration. Precedence: environment (including values
// loaded from .env) over configs/config.yml over defaults.
func Load() (*Config, error) {
	// .env is optional; missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "app.db")
	v.SetDefault("session_max_age", 24*time.Hour)
	v.SetDefault("bcrypt_cost", minBcryptCost)

	v.AddConfigPath("configs") // configs/config.yml
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:          v.GetString("port"),
		GinMode:       v.GetString("gin_mode"),
		LogLevel:      v.GetString("log_level"),
		DBPath:        v.GetString("db_path"),
		SessionSecret: v.GetString("session_secret"),
		SessionMaxAge: v.GetDuration("session_max_age"),
		BcryptCost:    v.GetInt("bcrypt_cost"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.BcryptCost < minBcryptCost {
		c.BcryptCost = minBcryptCost
	}
	if c.BcryptCost > bcrypt.MaxCost {
		c.BcryptCost = bcrypt.MaxCost
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = 24 * time.Hour
	}
	return nil
}
