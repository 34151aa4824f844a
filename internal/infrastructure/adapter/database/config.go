package database

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents database configuration
type Config struct {
	Driver          string
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	SQLitePath      string // file path or DSN used when Driver is sqlite
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
	LogLevel        string
	RetryAttempts   int           // connection attempts at startup
	RetryDelay      time.Duration // delay between connection attempts
	TxMaxRetries    int           // attempts of one unit of work
	TxRetryInterval time.Duration // base backoff between unit of work attempts
}

// DefaultConfig returns a Config with default values.
// Credentials come from UL_ environment variables only.
func DefaultConfig() *Config {
	return &Config{
		Driver:          configEnvOrDefault("UL_DB_DRIVER", DriverPostgres),
		Host:            configEnv("UL_DB_HOST"),
		Port:            configEnvAsInt("UL_DB_PORT", 5432),
		Username:        configEnv("UL_DB_USERNAME"),
		Password:        configEnv("UL_DB_PASSWORD"),
		Database:        configEnv("UL_DB_NAME"),
		SSLMode:         configEnvOrDefault("UL_DB_SSL_MODE", "disable"),
		SQLitePath:      configEnvOrDefault("UL_DB_SQLITE_PATH", "usage-ledger.db"),
		MaxOpenConns:    configEnvAsInt("UL_DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    configEnvAsInt("UL_DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: time.Duration(configEnvAsInt("UL_DB_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		ConnMaxIdleTime: time.Duration(configEnvAsInt("UL_DB_CONN_MAX_IDLE_TIME_MINUTES", 5)) * time.Minute,
		QueryTimeout:    time.Duration(configEnvAsInt("UL_DB_QUERY_TIMEOUT_SECONDS", 10)) * time.Second,
		LogLevel:        configEnvOrDefault("UL_LOGGER_LEVEL", "info"),
		RetryAttempts:   configEnvAsInt("UL_DB_RETRY_ATTEMPTS", 3),
		RetryDelay:      time.Duration(configEnvAsInt("UL_DB_RETRY_DELAY_SECONDS", 5)) * time.Second,
		TxMaxRetries:    configEnvAsInt("UL_DB_TX_MAX_RETRIES", 5),
		TxRetryInterval: 20 * time.Millisecond,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" {
			return errors.New("database host is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port number: %d", c.Port)
		}
		if c.Username == "" {
			return errors.New("database username is required")
		}
		if c.Database == "" {
			return errors.New("database name is required")
		}
		validSSLModes := map[string]bool{
			"disable":     true,
			"require":     true,
			"verify-ca":   true,
			"verify-full": true,
			"prefer":      true,
		}
		if !validSSLModes[c.SSLMode] {
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive, got: %d", c.MaxOpenConns)
	}
	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("max idle connections must be positive, got: %d", c.MaxIdleConns)
	}
	if c.QueryTimeout <= 0 {
		return errors.New("query timeout must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got: %d", c.RetryAttempts)
	}
	if c.TxMaxRetries < 1 {
		return fmt.Errorf("transaction retries must be at least 1, got: %d", c.TxMaxRetries)
	}

	validLogLevels := map[string]bool{
		"silent": true,
		"debug":  true,
		"info":   true,
		"warn":   true,
		"error":  true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// DSN returns the database connection string for the configured driver
func (c *Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode,
	)
}

// RetryConfig derives the unit of work retry policy
func (c *Config) RetryConfig() RetryConfig {
	rc := DefaultRetryConfig()
	if c.TxMaxRetries > 0 {
		rc.MaxRetries = c.TxMaxRetries
	}
	if c.TxRetryInterval > 0 {
		rc.RetryInterval = c.TxRetryInterval
	}
	return rc
}

// ParsePort converts a port string, returning 0 when it is not a number
func ParsePort(port string) int {
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return p
}

// configEnv gets a value from environment variables with no default
func configEnv(key string) string {
	return os.Getenv(key)
}

// configEnvOrDefault gets a value from environment variables with a default value
func configEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// configEnvAsInt gets an integer value from environment variables with a default
func configEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
