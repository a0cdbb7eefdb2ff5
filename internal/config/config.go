package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"dev"`
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`
	GinMode  string `env:"GIN_MODE" env-default:"debug"`

	// SyncStrict makes every lifecycle operation run its entity write and its
	// counterpart reconciliation inside one transaction. The default is
	// best-effort reconciliation: the primary write always wins and a failed
	// counterpart write is only logged.
	SyncStrict bool `env:"SYNC_STRICT" env-default:"false"`

	DB DBConfig
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" env-default:"postgres"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"taskuser"`
	Password string `env:"DB_PASSWORD" env-default:"taskpassword"`
	Name     string `env:"DB_NAME" env-default:"task_tracker"`
	SSLMode  string `env:"DB_SSL_MODE" env-default:"disable"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}
