package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Billing     BillingConfig   `mapstructure:"billing"`
	Quota       QuotaConfig     `mapstructure:"quota"`
	Referral    ReferralConfig  `mapstructure:"referral"`
	Webhook     WebhookConfig   `mapstructure:"webhook"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Rates       []RateConfig    `mapstructure:"rates"`
	IDNode      int64           `mapstructure:"idNode"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	SQLitePath      string        `mapstructure:"sqlitePath"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
	TxMaxRetries    int           `mapstructure:"txMaxRetries"`
	TxRetryInterval time.Duration `mapstructure:"txRetryInterval"` // milliseconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig holds the shared secrets of internal callers
type AuthConfig struct {
	ServiceToken string `mapstructure:"serviceToken"`
	AdminToken   string `mapstructure:"adminToken"`
}

// BillingConfig controls pricing and postpaid cycles
type BillingConfig struct {
	MarkupBps      int64         `mapstructure:"markupBps"`
	CyclePeriod    time.Duration `mapstructure:"cyclePeriod"` // hours
	CloseBatchSize int           `mapstructure:"closeBatchSize"`
	MaxBatches     int           `mapstructure:"maxBatches"`
}

// QuotaConfig holds the free-mode defaults for new users
type QuotaConfig struct {
	DefaultDailyMicro int64 `mapstructure:"defaultDailyMicro"`
}

// ReferralConfig holds grant amounts
type ReferralConfig struct {
	WelcomeMicro int64 `mapstructure:"welcomeMicro"`
	FriendMicro  int64 `mapstructure:"friendMicro"`
	SelfMicro    int64 `mapstructure:"selfMicro"`
}

// WebhookConfig configures payment webhook verification
type WebhookConfig struct {
	Provider  string        `mapstructure:"provider"`
	Secret    string        `mapstructure:"secret"`
	Tolerance time.Duration `mapstructure:"tolerance"` // seconds
	BatchSize int           `mapstructure:"batchSize"`
}

// RedisConfig configures the scheduler lock store; an empty Addr disables it
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SchedulerConfig controls the background job loop
type SchedulerConfig struct {
	Enabled      bool               `mapstructure:"enabled"`
	TickInterval time.Duration      `mapstructure:"tickInterval"` // seconds
	Jobs         map[string]JobSpec `mapstructure:"jobs"`
}

// JobSpec is the cadence of one scheduler job
type JobSpec struct {
	Interval time.Duration `mapstructure:"interval"` // minutes
	Timeout  time.Duration `mapstructure:"timeout"`  // seconds
}

// RateConfig is one entry of the static provider price list, prices in micro-units per million tokens
type RateConfig struct {
	ModelID               string `mapstructure:"modelId"`
	Provider              string `mapstructure:"provider"`
	InputPerMillionMicro  int64  `mapstructure:"inputPerMillionMicro"`
	OutputPerMillionMicro int64  `mapstructure:"outputPerMillionMicro"`
}
