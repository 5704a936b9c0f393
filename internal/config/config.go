package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding an optional YAML config path.
const ConfigFileEnv = "TODOPRO_CONFIG"

// Config keeps runtime settings.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	DatabaseURL     string        `yaml:"database_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	Timezone        string        `yaml:"timezone"`
	TelegramToken   string        `yaml:"telegram_token"`
	DigestTime      string        `yaml:"digest_time"`
	ReportInterval  time.Duration `yaml:"report_interval"`
	AuthRateLimit   float64       `yaml:"auth_rate_limit"`
	AuthRateBurst   int           `yaml:"auth_rate_burst"`
}

// Load reads an optional YAML file named by TODOPRO_CONFIG, then environment variables,
// and fills the remaining fields with defaults.
func Load() (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return cfg, fmt.Errorf("TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

// Validate checks the settings needed to serve HTTP traffic.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// Location returns the configured time zone, or UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.DigestTime, "DIGEST_TIME")

	if err := setDuration(&cfg.AccessTokenTTL, "ACCESS_TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RefreshTokenTTL, "REFRESH_TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ReportInterval, "EXPIRED_REPORT_INTERVAL"); err != nil {
		return err
	}
	if err := setInt(&cfg.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if err := setInt(&cfg.AuthRateBurst, "AUTH_RATE_BURST"); err != nil {
		return err
	}
	if raw := strings.TrimSpace(os.Getenv("AUTH_RATE_LIMIT")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("AUTH_RATE_LIMIT %q must be a positive number", raw)
		}
		cfg.AuthRateLimit = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "todopro.db"
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "09:00"
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = time.Hour
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 5
	}
	if cfg.AuthRateBurst <= 0 {
		cfg.AuthRateBurst = 10
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s %q must be a positive duration", key, raw)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s %q must be an integer", key, raw)
	}
	*dst = v
	return nil
}
