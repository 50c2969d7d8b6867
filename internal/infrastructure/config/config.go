package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Telemetry  TelemetryConfig
	Storage    StorageConfig
	Queue      QueueConfig
	Accounting AccountingConfig
	Commission CommissionConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
	// NodeID seeds the snowflake invoice number generator; unique per replica (0-1023)
	NodeID int64
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings. Tokens are issued elsewhere; this service
// only validates them.
type JWTConfig struct {
	Secret                string
	Issuer                string
	AccessTokenExpiration time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	LogsEnabled       bool // Export zap logs over OTLP
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only, disable in prod for security)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
	// Continuous profiling
	ProfilerEnabled bool
	ProfilerAddress string
}

// StorageConfig holds S3-compatible object storage settings for invoice PDFs
type StorageConfig struct {
	Provider        string // s3, stub
	Endpoint        string
	Region          string
	Bucket          string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	ForcePathStyle  bool
	PublicURLPrefix string // base URL recorded as pdfUrl; empty derives it from the endpoint
	UploadExpiry    time.Duration
	DownloadExpiry  time.Duration
}

// QueueConfig holds background task settings
type QueueConfig struct {
	Driver            string // asynq, local
	Concurrency       int
	RecoveryEnabled   bool
	RecoveryInterval  time.Duration
	RecoveryBatchSize int
}

// AccountingConfig holds accounting vendor settings
type AccountingConfig struct {
	Provider        string // mock, vendor
	BaseURL         string
	APIKey          string
	RequestTimeout  time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	LeaseTTL        time.Duration
	RetryDelay      time.Duration
}

// CommissionConfig holds the rate table. Rates are decimal strings so no
// float rounding enters the money path.
type CommissionConfig struct {
	LevelRates            []string
	PaymentProcessorRate  string
	VATRate               string
	DefaultReferralRate   string
	RankThresholds        []string
	RankBonuses           []string
	Currency              string
	RankLookupConcurrency int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with HIZMET_ prefix (e.g., HIZMET_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("HIZMET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:   v.GetString("app.name"),
			Env:    v.GetString("app.env"),
			Port:   v.GetString("app.port"),
			NodeID: v.GetInt64("app.node_id"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			Issuer:                v.GetString("jwt.issuer"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilerEnabled:   v.GetBool("telemetry.profiler_enabled"),
			ProfilerAddress:   v.GetString("telemetry.profiler_address"),
		},
		Storage: StorageConfig{
			Provider:        v.GetString("storage.provider"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKey:       v.GetString("storage.access_key"),
			SecretKey:       v.GetString("storage.secret_key"),
			UseSSL:          v.GetBool("storage.use_ssl"),
			ForcePathStyle:  v.GetBool("storage.force_path_style"),
			PublicURLPrefix: v.GetString("storage.public_url_prefix"),
			UploadExpiry:    v.GetDuration("storage.upload_expiry"),
			DownloadExpiry:  v.GetDuration("storage.download_expiry"),
		},
		Queue: QueueConfig{
			Driver:            v.GetString("queue.driver"),
			Concurrency:       v.GetInt("queue.concurrency"),
			RecoveryEnabled:   v.GetBool("queue.recovery_enabled"),
			RecoveryInterval:  v.GetDuration("queue.recovery_interval"),
			RecoveryBatchSize: v.GetInt("queue.recovery_batch_size"),
		},
		Accounting: AccountingConfig{
			Provider:        v.GetString("accounting.provider"),
			BaseURL:         v.GetString("accounting.base_url"),
			APIKey:          v.GetString("accounting.api_key"),
			RequestTimeout:  v.GetDuration("accounting.request_timeout"),
			MaxAttempts:     v.GetInt("accounting.max_attempts"),
			InitialInterval: v.GetDuration("accounting.initial_interval"),
			MaxInterval:     v.GetDuration("accounting.max_interval"),
			LeaseTTL:        v.GetDuration("accounting.lease_ttl"),
			RetryDelay:      v.GetDuration("accounting.retry_delay"),
		},
		Commission: CommissionConfig{
			LevelRates:            v.GetStringSlice("commission.level_rates"),
			PaymentProcessorRate:  v.GetString("commission.payment_processor_rate"),
			VATRate:               v.GetString("commission.vat_rate"),
			DefaultReferralRate:   v.GetString("commission.default_referral_rate"),
			RankThresholds:        v.GetStringSlice("commission.rank_thresholds"),
			RankBonuses:           v.GetStringSlice("commission.rank_bonuses"),
			Currency:              v.GetString("commission.currency"),
			RankLookupConcurrency: v.GetInt("commission.rank_lookup_concurrency"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "commission-engine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "hizmetgo"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "hizmetgo"
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	// An empty origin list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.ProfilerAddress == "" {
		cfg.Telemetry.ProfilerAddress = "http://localhost:4040"
	}

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "stub"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "commission-invoices"
	}
	if cfg.Storage.UploadExpiry == 0 {
		cfg.Storage.UploadExpiry = 24 * time.Hour
	}
	if cfg.Storage.DownloadExpiry == 0 {
		cfg.Storage.DownloadExpiry = 15 * time.Minute
	}

	if cfg.Queue.Driver == "" {
		cfg.Queue.Driver = "local"
	}
	if cfg.Queue.Concurrency == 0 {
		cfg.Queue.Concurrency = 10
	}
	if cfg.Queue.RecoveryInterval == 0 {
		cfg.Queue.RecoveryInterval = time.Minute
	}
	if cfg.Queue.RecoveryBatchSize == 0 {
		cfg.Queue.RecoveryBatchSize = 100
	}

	if cfg.Accounting.Provider == "" {
		cfg.Accounting.Provider = "mock"
	}
	if cfg.Accounting.RequestTimeout == 0 {
		cfg.Accounting.RequestTimeout = 10 * time.Second
	}
	if cfg.Accounting.MaxAttempts == 0 {
		cfg.Accounting.MaxAttempts = 3
	}
	if cfg.Accounting.InitialInterval == 0 {
		cfg.Accounting.InitialInterval = time.Second
	}
	if cfg.Accounting.MaxInterval == 0 {
		cfg.Accounting.MaxInterval = 10 * time.Second
	}
	if cfg.Accounting.LeaseTTL == 0 {
		cfg.Accounting.LeaseTTL = 2 * time.Minute
	}
	if cfg.Accounting.RetryDelay == 0 {
		cfg.Accounting.RetryDelay = 5 * time.Minute
	}

	applyCommissionDefaults(&cfg.Commission)
}

func applyCommissionDefaults(c *CommissionConfig) {
	defaults := commission.DefaultRateConfig()
	if len(c.LevelRates) == 0 {
		c.LevelRates = decimalStrings(defaults.LevelRates[:])
	}
	if c.PaymentProcessorRate == "" {
		c.PaymentProcessorRate = defaults.PaymentProcessorRate.String()
	}
	if c.VATRate == "" {
		c.VATRate = defaults.VATRate.String()
	}
	if c.DefaultReferralRate == "" {
		c.DefaultReferralRate = defaults.DefaultReferralRate.String()
	}
	if len(c.RankThresholds) == 0 {
		c.RankThresholds = decimalStrings(defaults.RankThresholds[:])
	}
	if len(c.RankBonuses) == 0 {
		c.RankBonuses = decimalStrings(defaults.RankBonuses[:])
	}
	if c.Currency == "" {
		c.Currency = string(defaults.Currency)
	}
	if c.RankLookupConcurrency == 0 {
		c.RankLookupConcurrency = 5
	}
}

func decimalStrings(values []decimal.Decimal) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.App.NodeID < 0 || c.App.NodeID > 1023 {
		return fmt.Errorf("app.node_id must be between 0 and 1023")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
		if c.Queue.Driver == "local" {
			return fmt.Errorf("queue.driver=local loses tasks on restart and is not allowed in production")
		}
		if c.Storage.Provider == "stub" {
			return fmt.Errorf("storage.provider=stub is not allowed in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	switch c.Queue.Driver {
	case "asynq", "local":
	default:
		return fmt.Errorf("queue.driver must be asynq or local, got %q", c.Queue.Driver)
	}
	switch c.Storage.Provider {
	case "s3", "stub":
	default:
		return fmt.Errorf("storage.provider must be s3 or stub, got %q", c.Storage.Provider)
	}
	switch c.Accounting.Provider {
	case "mock":
	case "vendor":
		if c.Accounting.BaseURL == "" {
			return fmt.Errorf("accounting.base_url is required for the vendor provider")
		}
		if _, err := url.ParseRequestURI(c.Accounting.BaseURL); err != nil {
			return fmt.Errorf("accounting.base_url is invalid: %w", err)
		}
	default:
		return fmt.Errorf("accounting.provider must be mock or vendor, got %q", c.Accounting.Provider)
	}
	if c.Accounting.MaxAttempts < 1 {
		return fmt.Errorf("accounting.max_attempts must be at least 1")
	}

	if _, err := c.Commission.ToRateConfig(); err != nil {
		return err
	}
	return nil
}

// ToRateConfig parses and validates the rate table
func (c *CommissionConfig) ToRateConfig() (commission.RateConfig, error) {
	var rc commission.RateConfig

	if err := parseFixed("commission.level_rates", c.LevelRates, rc.LevelRates[:]); err != nil {
		return rc, err
	}
	if err := parseFixed("commission.rank_thresholds", c.RankThresholds, rc.RankThresholds[:]); err != nil {
		return rc, err
	}
	if err := parseFixed("commission.rank_bonuses", c.RankBonuses, rc.RankBonuses[:]); err != nil {
		return rc, err
	}

	var err error
	if rc.PaymentProcessorRate, err = parseDecimal("commission.payment_processor_rate", c.PaymentProcessorRate); err != nil {
		return rc, err
	}
	if rc.VATRate, err = parseDecimal("commission.vat_rate", c.VATRate); err != nil {
		return rc, err
	}
	if rc.DefaultReferralRate, err = parseDecimal("commission.default_referral_rate", c.DefaultReferralRate); err != nil {
		return rc, err
	}
	if rc.Currency, err = valueobject.ParseCurrency(c.Currency); err != nil {
		return rc, fmt.Errorf("commission.currency: %w", err)
	}

	if err := rc.Validate(); err != nil {
		return rc, fmt.Errorf("commission rates: %w", err)
	}
	return rc, nil
}

func parseFixed(key string, values []string, dst []decimal.Decimal) error {
	if len(values) != len(dst) {
		return fmt.Errorf("%s must have exactly %d entries, got %d", key, len(dst), len(values))
	}
	for i, s := range values {
		d, err := parseDecimal(fmt.Sprintf("%s[%d]", key, i), s)
		if err != nil {
			return err
		}
		dst[i] = d
	}
	return nil
}

func parseDecimal(key, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not a decimal: %q", key, s)
	}
	return d, nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
