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
	App            AppConfig
	Database       DatabaseConfig
	ExternalSource ExternalSourceConfig
	Redis          RedisConfig
	AccessCache    AccessCacheConfig
	Import         ImportConfig
	JWT            JWTConfig
	Log            LogConfig
	HTTP           HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds local database connection settings
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

// ExternalSourceConfig holds the read-only foreign database settings the
// import pipeline pulls from.
type ExternalSourceConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	QueryTimeout time.Duration
	PageSize     int
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AccessCacheConfig holds access-resolution cache settings
type AccessCacheConfig struct {
	Backend       string // memory, redis
	TTL           time.Duration
	DisabledKinds []string // entity kinds that bypass the cache
}

// ImportConfig holds import orchestrator settings
type ImportConfig struct {
	Enabled          bool
	ChunkSize        int
	CheckpointEvery  int
	Policy           string // skip_on_missing, auto_create
	SchedulerEnabled bool
	CronSchedule     string
}

// JWTConfig holds JWT settings for the thin HTTP layer
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
//  1. Environment variables with BACKOFFICE_ prefix
//  2. config.toml
//  3. Built-in defaults
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

	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
		ExternalSource: ExternalSourceConfig{
			Host:         v.GetString("external_source.host"),
			Port:         v.GetInt("external_source.port"),
			User:         v.GetString("external_source.user"),
			Password:     v.GetString("external_source.password"),
			DBName:       v.GetString("external_source.dbname"),
			SSLMode:      v.GetString("external_source.sslmode"),
			QueryTimeout: v.GetDuration("external_source.query_timeout"),
			PageSize:     v.GetInt("external_source.page_size"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		AccessCache: AccessCacheConfig{
			Backend:       v.GetString("access_cache.backend"),
			TTL:           v.GetDuration("access_cache.ttl"),
			DisabledKinds: v.GetStringSlice("access_cache.disabled_kinds"),
		},
		Import: ImportConfig{
			Enabled:          v.GetBool("import.enabled"),
			ChunkSize:        v.GetInt("import.chunk_size"),
			CheckpointEvery:  v.GetInt("import.checkpoint_every"),
			Policy:           v.GetString("import.policy"),
			SchedulerEnabled: v.GetBool("import.scheduler_enabled"),
			CronSchedule:     v.GetString("import.cron_schedule"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
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
		cfg.App.Name = "backoffice-backend"
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
		cfg.Database.DBName = "backoffice"
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
	if cfg.ExternalSource.Port == 0 {
		cfg.ExternalSource.Port = 5432
	}
	if cfg.ExternalSource.SSLMode == "" {
		cfg.ExternalSource.SSLMode = "disable"
	}
	if cfg.ExternalSource.QueryTimeout == 0 {
		cfg.ExternalSource.QueryTimeout = 30 * time.Second
	}
	if cfg.ExternalSource.PageSize == 0 {
		cfg.ExternalSource.PageSize = 500
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.AccessCache.Backend == "" {
		cfg.AccessCache.Backend = "memory"
	}
	if cfg.AccessCache.TTL == 0 {
		cfg.AccessCache.TTL = 10 * time.Minute
	}
	if cfg.Import.ChunkSize == 0 {
		cfg.Import.ChunkSize = 100
	}
	if cfg.Import.CheckpointEvery == 0 {
		cfg.Import.CheckpointEvery = 100
	}
	if cfg.Import.Policy == "" {
		cfg.Import.Policy = "skip_on_missing"
	}
	if cfg.Import.CronSchedule == "" {
		cfg.Import.CronSchedule = "0 */2 * * *"
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

	switch c.AccessCache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("access_cache.backend must be 'memory' or 'redis', got %q", c.AccessCache.Backend)
	}

	switch c.Import.Policy {
	case "skip_on_missing", "auto_create":
	default:
		return fmt.Errorf("import.policy must be 'skip_on_missing' or 'auto_create', got %q", c.Import.Policy)
	}
	if c.Import.ChunkSize <= 0 {
		return fmt.Errorf("import.chunk_size must be positive")
	}
	if c.Import.CheckpointEvery <= 0 {
		return fmt.Errorf("import.checkpoint_every must be positive")
	}

	// The import pipeline cannot run without its source; failing here is
	// the fail-fast configuration error, not a mid-run surprise.
	if c.Import.Enabled {
		if c.ExternalSource.Host == "" || c.ExternalSource.DBName == "" {
			return fmt.Errorf("external_source.host and external_source.dbname are required when import is enabled")
		}
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
	}
	return nil
}

// DSN returns the local database connection string with escaped values
func (d *DatabaseConfig) DSN() string {
	return buildDSN(d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// DSN returns the external source connection string with escaped values
func (e *ExternalSourceConfig) DSN() string {
	return buildDSN(e.User, e.Password, e.Host, e.Port, e.DBName, e.SSLMode)
}

func buildDSN(user, password, host string, port int, dbname, sslmode string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   dbname,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}
