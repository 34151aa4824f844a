package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// Scheduler job names
const (
	JobPublishRates      = "publish_rates"
	JobCloseCycles       = "close_cycles"
	JobReprocessWebhooks = "reprocess_webhooks"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		fmt.Println("Warning: no config file for environment", env, "- using defaults")
	}

	return decode(v, env)
}

// LoadFromFile loads one explicit YAML file, used by tools and tests
func LoadFromFile(path, env string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return decode(v, env)
}

func decode(v *viper.Viper, env string) (*Config, error) {
	v.SetEnvPrefix("UL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			lastError = err
			continue
		}
		return nil
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds
	v.SetDefault("server.allowedOrigins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.sqlitePath", "usage-ledger.db")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1) // seconds
	v.SetDefault("database.txMaxRetries", 5)
	v.SetDefault("database.txRetryInterval", 20) // milliseconds

	v.SetDefault("logger.level", "info")

	v.SetDefault("billing.markupBps", 0)
	v.SetDefault("billing.cyclePeriod", 30*24) // hours
	v.SetDefault("billing.closeBatchSize", 100)
	v.SetDefault("billing.maxBatches", 50)

	v.SetDefault("quota.defaultDailyMicro", 0)

	v.SetDefault("referral.welcomeMicro", 0)
	v.SetDefault("referral.friendMicro", 0)
	v.SetDefault("referral.selfMicro", 0)

	v.SetDefault("webhook.provider", "default")
	v.SetDefault("webhook.tolerance", 300) // seconds
	v.SetDefault("webhook.batchSize", 100)

	v.SetDefault("redis.db", 0)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.tickInterval", 60)                           // seconds
	v.SetDefault("scheduler.jobs."+JobPublishRates+".interval", 24*60)   // minutes
	v.SetDefault("scheduler.jobs."+JobPublishRates+".timeout", 60)       // seconds
	v.SetDefault("scheduler.jobs."+JobCloseCycles+".interval", 24*60)    // minutes
	v.SetDefault("scheduler.jobs."+JobCloseCycles+".timeout", 600)       // seconds
	v.SetDefault("scheduler.jobs."+JobReprocessWebhooks+".interval", 60) // minutes
	v.SetDefault("scheduler.jobs."+JobReprocessWebhooks+".timeout", 120) // seconds

	v.SetDefault("idNode", 1)
}

// getEnvironment determines the environment to use based on the UL_ENV environment variable
func getEnvironment() string {
	env := os.Getenv("UL_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides ensures environment variables override config values.
// AutomaticEnv only covers keys viper already knows about, secrets usually are not in the file.
func processEnvOverrides(v *viper.Viper) {
	overrides := map[string]string{
		"UL_DB_DRIVER":        "database.driver",
		"UL_DB_HOST":          "database.host",
		"UL_DB_PORT":          "database.port",
		"UL_DB_USERNAME":      "database.username",
		"UL_DB_PASSWORD":      "database.password",
		"UL_DB_NAME":          "database.database",
		"UL_DB_SSL_MODE":      "database.sslMode",
		"UL_DB_SQLITE_PATH":   "database.sqlitePath",
		"UL_SERVER_HOST":      "server.host",
		"UL_SERVER_PORT":      "server.port",
		"UL_LOGGER_LEVEL":     "logger.level",
		"UL_SERVICE_TOKEN":    "auth.serviceToken",
		"UL_ADMIN_TOKEN":      "auth.adminToken",
		"UL_WEBHOOK_SECRET":   "webhook.secret",
		"UL_REDIS_ADDR":       "redis.addr",
		"UL_REDIS_PASSWORD":   "redis.password",
		"UL_SCHEDULER_ENABLE": "scheduler.enabled",
	}
	for envKey, configKey := range overrides {
		if value := os.Getenv(envKey); value != "" {
			v.Set(configKey, value)
		}
	}

	if maxOpenConns := getEnvInt("UL_DB_MAX_OPEN_CONNS", 0); maxOpenConns > 0 {
		v.Set("database.maxOpenConns", maxOpenConns)
	}
	if maxIdleConns := getEnvInt("UL_DB_MAX_IDLE_CONNS", 0); maxIdleConns > 0 {
		v.Set("database.maxIdleConns", maxIdleConns)
	}
	if txMaxRetries := getEnvInt("UL_DB_TX_MAX_RETRIES", 0); txMaxRetries > 0 {
		v.Set("database.txMaxRetries", txMaxRetries)
	}
	if markup := getEnvInt("UL_BILLING_MARKUP_BPS", -1); markup >= 0 {
		v.Set("billing.markupBps", markup)
	}
	if node := getEnvInt("UL_ID_NODE", -1); node >= 0 {
		v.Set("idNode", node)
	}
}

// Helper function to get environment variable as int
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// processDurations converts time.Duration fields from their raw unit counts to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second
	config.Database.TxRetryInterval = time.Duration(config.Database.TxRetryInterval) * time.Millisecond

	config.Billing.CyclePeriod = time.Duration(config.Billing.CyclePeriod) * time.Hour
	config.Webhook.Tolerance = time.Duration(config.Webhook.Tolerance) * time.Second
	config.Scheduler.TickInterval = time.Duration(config.Scheduler.TickInterval) * time.Second

	for name, job := range config.Scheduler.Jobs {
		job.Interval = time.Duration(job.Interval) * time.Minute
		job.Timeout = time.Duration(job.Timeout) * time.Second
		config.Scheduler.Jobs[name] = job
	}
}
