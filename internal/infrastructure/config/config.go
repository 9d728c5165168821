package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	WMS       WMSConfig
	Sync      SyncConfig
	Admin     AdminConfig
	Telemetry TelemetryConfig
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

// RedisConfig holds Redis connection settings.
// An empty Host disables Redis and selects the in-process push guard.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds admin HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// WMSConfig holds the remote warehouse API settings
type WMSConfig struct {
	BaseURL            string
	Username           string
	Password           string
	ClientID           string
	ClientSecret       string
	TimeoutSeconds     int
	InboundSyncEnabled bool
	RateLimitPerSecond float64
}

// HasCredentials reports whether either credential pair is configured
func (w *WMSConfig) HasCredentials() bool {
	return (w.ClientID != "" && w.ClientSecret != "") || (w.Username != "" && w.Password != "")
}

// SyncConfig holds the job schedule and sync tuning
type SyncConfig struct {
	Enabled             bool
	OrderPullInterval   time.Duration
	PendingPushInterval time.Duration
	StockPullInterval   time.Duration
	NightlyHour         int
	NightlyMinute       int
	OrderWindow         time.Duration
	BatchLimit          int
	ThrottleWindow      time.Duration
	PushGuardTTL        time.Duration
	JobTimeout          time.Duration
}

// AdminConfig holds the admin API authentication settings
type AdminConfig struct {
	JWTSecret string
	Issuer    string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool    // Include query variables in spans
	DBSlowQueryThresh time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with WMS_ prefix (e.g., WMS_WMS_CLIENT_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("WMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setViperDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
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
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		WMS: WMSConfig{
			BaseURL:            v.GetString("wms.base_url"),
			Username:           v.GetString("wms.username"),
			Password:           v.GetString("wms.password"),
			ClientID:           v.GetString("wms.client_id"),
			ClientSecret:       v.GetString("wms.client_secret"),
			TimeoutSeconds:     v.GetInt("wms.timeout_seconds"),
			InboundSyncEnabled: v.GetBool("wms.inbound_sync_enabled"),
			RateLimitPerSecond: v.GetFloat64("wms.rate_limit_per_second"),
		},
		Sync: SyncConfig{
			Enabled:             v.GetBool("sync.enabled"),
			OrderPullInterval:   v.GetDuration("sync.order_pull_interval"),
			PendingPushInterval: v.GetDuration("sync.pending_push_interval"),
			StockPullInterval:   v.GetDuration("sync.stock_pull_interval"),
			NightlyHour:         v.GetInt("sync.nightly_hour"),
			NightlyMinute:       v.GetInt("sync.nightly_minute"),
			OrderWindow:         v.GetDuration("sync.order_window"),
			BatchLimit:          v.GetInt("sync.batch_limit"),
			ThrottleWindow:      v.GetDuration("sync.throttle_window"),
			PushGuardTTL:        v.GetDuration("sync.push_guard_ttl"),
			JobTimeout:          v.GetDuration("sync.job_timeout"),
		},
		Admin: AdminConfig{
			JWTSecret: v.GetString("admin.jwt_secret"),
			Issuer:    v.GetString("admin.issuer"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setViperDefaults registers defaults for keys whose zero value is a valid setting
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("wms.inbound_sync_enabled", true)
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.nightly_hour", 2)
	v.SetDefault("sync.nightly_minute", 0)
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "wms-connector"
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
		cfg.Database.DBName = "erp"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host != "" && cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	// Manual job triggers run synchronously inside the request
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 10 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.WMS.BaseURL == "" {
		cfg.WMS.BaseURL = "https://api-v6.monta.nl"
	}
	cfg.WMS.BaseURL = strings.TrimRight(cfg.WMS.BaseURL, "/")
	if cfg.WMS.TimeoutSeconds == 0 {
		cfg.WMS.TimeoutSeconds = 30
	}
	if cfg.Sync.OrderPullInterval == 0 {
		cfg.Sync.OrderPullInterval = 15 * time.Minute
	}
	if cfg.Sync.PendingPushInterval == 0 {
		cfg.Sync.PendingPushInterval = 5 * time.Minute
	}
	if cfg.Sync.StockPullInterval == 0 {
		cfg.Sync.StockPullInterval = time.Hour
	}
	if cfg.Sync.OrderWindow == 0 {
		cfg.Sync.OrderWindow = 3 * time.Hour
	}
	if cfg.Sync.BatchLimit == 0 {
		cfg.Sync.BatchLimit = 200
	}
	if cfg.Sync.ThrottleWindow == 0 {
		cfg.Sync.ThrottleWindow = 24 * time.Hour
	}
	if cfg.Sync.PushGuardTTL == 0 {
		cfg.Sync.PushGuardTTL = 2 * time.Minute
	}
	if cfg.Sync.JobTimeout == 0 {
		cfg.Sync.JobTimeout = 30 * time.Minute
	}
	if cfg.Admin.Issuer == "" {
		cfg.Admin.Issuer = "erp"
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
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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

	if _, err := url.ParseRequestURI(c.WMS.BaseURL); err != nil {
		return fmt.Errorf("wms.base_url is not a valid URL: %w", err)
	}
	if c.WMS.TimeoutSeconds < 0 {
		return fmt.Errorf("wms.timeout_seconds cannot be negative")
	}
	if c.WMS.RateLimitPerSecond < 0 {
		return fmt.Errorf("wms.rate_limit_per_second cannot be negative")
	}

	// A pull window no wider than the pull interval would drop updates between runs
	if c.Sync.OrderWindow <= c.Sync.OrderPullInterval {
		return fmt.Errorf("sync.order_window (%s) must exceed sync.order_pull_interval (%s)",
			c.Sync.OrderWindow, c.Sync.OrderPullInterval)
	}
	if c.Sync.NightlyHour < 0 || c.Sync.NightlyHour > 23 {
		return fmt.Errorf("sync.nightly_hour must be between 0 and 23, got %d", c.Sync.NightlyHour)
	}
	if c.Sync.NightlyMinute < 0 || c.Sync.NightlyMinute > 59 {
		return fmt.Errorf("sync.nightly_minute must be between 0 and 59, got %d", c.Sync.NightlyMinute)
	}
	if c.Sync.BatchLimit < 0 {
		return fmt.Errorf("sync.batch_limit cannot be negative")
	}

	if c.App.Env == "production" {
		if !c.WMS.HasCredentials() {
			return fmt.Errorf("wms credentials (client_id/client_secret or username/password) are required in production")
		}
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("admin.jwt_secret is required in production")
		}
		if len(c.Admin.JWTSecret) < 32 {
			return fmt.Errorf("admin.jwt_secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
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

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
