package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultSessionTTL       = 24 * time.Hour
	defaultExpiringSoonDays = 7
)

type Database struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns a lib/pq keyword/value connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Config struct {
	Host             string
	Port             int
	Debug            bool
	Environment      string
	LogLevel         string
	SessionSecret    []byte
	SessionTTL       time.Duration
	ExpiringSoonDays int
	DB               Database
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var errs *multierror.Error
	intEnv := func(key string, def int) int {
		v, err := getInt(key, def)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		return v
	}
	durEnv := func(key string, def time.Duration) time.Duration {
		v, err := getDuration(key, def)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Host:             getEnv("HOST", "0.0.0.0"),
		Port:             intEnv("PORT", 8111),
		Debug:            os.Getenv("DEBUG") == "true",
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SessionSecret:    []byte(os.Getenv("SESSION_SECRET")),
		SessionTTL:       durEnv("SESSION_TTL", defaultSessionTTL),
		ExpiringSoonDays: intEnv("EXPIRING_SOON_DAYS", defaultExpiringSoonDays),
		DB: Database{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            intEnv("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        os.Getenv("DB_PASSWORD"),
			Name:            getEnv("DB_NAME", "recipebox"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    intEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.Port < 1 || c.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("port %d is out of range 1-65535", c.Port))
	}
	if len(c.SessionSecret) == 0 {
		errs = multierror.Append(errs, errors.New("SESSION_SECRET is not set"))
	}
	if c.SessionTTL <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	if c.ExpiringSoonDays < 0 {
		errs = multierror.Append(errs, fmt.Errorf("expiring soon window must not be negative, got %d", c.ExpiringSoonDays))
	}
	if c.DB.Host == "" {
		errs = multierror.Append(errs, errors.New("DB_HOST is not set"))
	}
	if c.DB.Name == "" {
		errs = multierror.Append(errs, errors.New("DB_NAME is not set"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
