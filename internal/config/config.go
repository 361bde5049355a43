package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env            string
	HTTPAddr       string
	Timezone       string
	BotToken       string
	BotPassword    string
	MigrationsPath string
	Database       DatabaseConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("app_env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("timezone", "Europe/Moscow")
	v.SetDefault("migrations_path", "file://migrations")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_name", "lexis")
	v.SetDefault("db_user", "lexis")
	v.SetDefault("db_sslmode", "disable")
	v.AutomaticEnv()

	cfg := &Config{
		Env:            v.GetString("app_env"),
		HTTPAddr:       v.GetString("http_addr"),
		Timezone:       v.GetString("timezone"),
		BotToken:       v.GetString("bot_token"),
		BotPassword:    v.GetString("bot_password"),
		MigrationsPath: v.GetString("migrations_path"),
		Database: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			Name:     v.GetString("db_name"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			SSLMode:  v.GetString("db_sslmode"),
		},
	}

	// Validate required fields
	if cfg.BotToken != "" && cfg.BotPassword == "" {
		return nil, fmt.Errorf("BOT_PASSWORD is required when BOT_TOKEN is set")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the time zone that defines calendar days
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BotEnabled reports whether the Telegram bot should run
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}
