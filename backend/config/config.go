package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen       string        `yaml:"listen"`
	Environment  string        `yaml:"environment"` // tag written into log lines, e.g. "Produccion"
	DatabasePath string        `yaml:"database_path"`
	LogPath      string        `yaml:"log_path"`
	Session      SessionConfig `yaml:"session"`
}

type SessionConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Secret  string        `yaml:"secret"`
}

var C Config

func Load() error {
	// Defaults
	C = Config{
		Listen:       ":8080",
		Environment:  "Produccion",
		DatabasePath: "salud.db",
		LogPath:      "storage/logs/app.log",
		Session: SessionConfig{
			Timeout: 24 * time.Hour,
		},
	}

	// .env values become plain environment variables, overridden below
	_ = godotenv.Load()

	// Load from YAML if exists
	if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &C); err != nil {
			return err
		}
	}

	// Environment overrides
	if v := os.Getenv("LISTEN"); v != "" {
		C.Listen = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		C.Environment = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		C.DatabasePath = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		C.LogPath = v
	}
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Session.Timeout = d
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		C.Session.Secret = v
	}

	return nil
}
