package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DBConfig holds the Postgres connection string.
type DBConfig struct {
	URL          string        `yaml:"url"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig selects level, encoding and an optional rotating file.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MQConfig points at the AMQP broker. Empty URL disables publishing.
type MQConfig struct {
	URL string `yaml:"url"`
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	DB       DBConfig     `yaml:"db"`
	JWT      JWTConfig    `yaml:"jwt"`
	Log      LogConfig    `yaml:"log"`
	MQ       MQConfig     `yaml:"mq"`
	TimeZone string       `yaml:"time_zone"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080", CORSOrigins: []string{"*"}},
		DB:       DBConfig{MaxOpenConns: 10, ConnLifetime: 2 * time.Hour},
		JWT:      JWTConfig{TTL: 24 * time.Hour},
		Log:      LogConfig{Level: "info", Format: "json"},
		TimeZone: "UTC",
	}
}

// Load reads .env, then the optional YAML file at path, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadDB is Load for tools that only talk to the database. It requires
// DATABASE_URL and nothing else.
func LoadDB(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return cfg, err
	}
	if cfg.DB.URL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

func load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = getEnv("CONFIG_FILE", "config.yaml")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	return cfg, overrideFromEnv(&cfg)
}

func overrideFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DB.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		cfg.JWT.TTL = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.MQ.URL = v
	}
	if v := os.Getenv("TIME_ZONE"); v != "" {
		cfg.TimeZone = v
	}
	return nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("time zone %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location resolves TimeZone. Validate has already rejected unknown names.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
