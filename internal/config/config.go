package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	Timezone    string `env:"TIMEZONE" envDefault:"UTC"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`

	// RedisAddr enables the period close scheduler when set.
	RedisAddr     string        `env:"REDIS_ADDR"`
	CloseInterval time.Duration `env:"CLOSE_INTERVAL" envDefault:"1h"`
	CloseLockTTL  time.Duration `env:"CLOSE_LOCK_TTL" envDefault:"5m"`
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, fills variables that are not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.CloseInterval <= 0 || cfg.CloseLockTTL <= 0 {
		return nil, fmt.Errorf("config.Load: CLOSE_INTERVAL and CLOSE_LOCK_TTL must be positive")
	}
	return &cfg, nil
}

// Location is the business timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
