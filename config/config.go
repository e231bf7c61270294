// config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port               string        `yaml:"port"`
	ShutdownTimeoutStr string        `yaml:"shutdown_timeout"`
	ShutdownTimeout    time.Duration `yaml:"-"`
}

// DatabaseConfig selects one of the supported drivers: "mysql", "postgres" or
// "sqlite". DSN, when set, is passed to the driver untouched.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Path     string `yaml:"path"` // sqlite file
}

type UpstreamConfig struct {
	CountriesURL string        `yaml:"countries_url"`
	RatesURL     string        `yaml:"rates_url"`
	TimeoutStr   string        `yaml:"timeout"`
	Timeout      time.Duration `yaml:"-"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent"`
}

type CacheConfig struct {
	Dir string `yaml:"dir"`
}

type RenderConfig struct {
	Format string `yaml:"format"` // png, text or auto
}

// RedisConfig is optional; an empty Addr disables the distributed refresh lock
// and refresh events.
type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	EventsChannel string        `yaml:"events_channel"`
	LockKey       string        `yaml:"lock_key"`
	LockTTLStr    string        `yaml:"lock_ttl"`
	LockTTL       time.Duration `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Render   RenderConfig   `yaml:"render"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

const (
	DefaultCountriesURL = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
	DefaultRatesURL     = "https://open.er-api.com/v6/latest/USD"
)

// Default returns the configuration used when no file or env override is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/countries.db",
		},
		Upstream: UpstreamConfig{
			CountriesURL: DefaultCountriesURL,
			RatesURL:     DefaultRatesURL,
			Timeout:      30 * time.Second,
			MaxBodyBytes: 16 << 20,
			UserAgent:    "country-exchange-api/1.0",
		},
		Cache:  CacheConfig{Dir: "cache"},
		Render: RenderConfig{Format: "auto"},
		Redis: RedisConfig{
			DB:            0,
			EventsChannel: "countries.refresh",
			LockKey:       "countries:refresh:lock",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads an optional YAML file on top of Default, then applies
// environment overrides. An empty path skips the file.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	var err error
	if cfg.Server.ShutdownTimeoutStr != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse server.shutdown_timeout: %w", err)
		}
	}
	if cfg.Upstream.TimeoutStr != "" {
		cfg.Upstream.Timeout, err = time.ParseDuration(cfg.Upstream.TimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse upstream.timeout: %w", err)
		}
	}
	if cfg.Redis.LockTTLStr != "" {
		cfg.Redis.LockTTL, err = time.ParseDuration(cfg.Redis.LockTTLStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis.lock_ttl: %w", err)
		}
	}

	if cfg.Redis.LockTTL == 0 {
		cfg.Redis.LockTTL = DefaultLockTTL(cfg.Upstream.Timeout)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Cache.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cfg.Cache.Dir, err)
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory for sqlite database: %w", err)
			}
		}
	}

	return &cfg, nil
}

// DefaultLockTTL sizes the refresh lock from the upstream timeout. The lock is
// not renewed, so it must outlive both fetches plus the database writes.
func DefaultLockTTL(upstreamTimeout time.Duration) time.Duration {
	return 2*upstreamTimeout + time.Minute
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Render.Format {
	case "png", "text", "auto":
	default:
		return fmt.Errorf("unsupported render format %q", c.Render.Format)
	}
	if c.Upstream.CountriesURL == "" || c.Upstream.RatesURL == "" {
		return fmt.Errorf("upstream countries_url and rates_url must be set")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache dir must be set")
	}
	if c.Redis.LockTTL <= c.Upstream.Timeout {
		return fmt.Errorf("redis lock_ttl (%s) must exceed upstream timeout (%s)", c.Redis.LockTTL, c.Upstream.Timeout)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ShutdownTimeoutStr = getEnv("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeoutStr)

	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		if err := applyDatabaseURL(&cfg.Database, raw); err != nil {
			return err
		}
	}
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)

	cfg.Upstream.CountriesURL = getEnv("COUNTRIES_API_URL", cfg.Upstream.CountriesURL)
	cfg.Upstream.RatesURL = getEnv("RATES_API_URL", cfg.Upstream.RatesURL)
	cfg.Upstream.TimeoutStr = getEnv("UPSTREAM_TIMEOUT", cfg.Upstream.TimeoutStr)

	cfg.Cache.Dir = getEnv("CACHE_DIR", cfg.Cache.Dir)
	cfg.Render.Format = getEnv("RENDER_FORMAT", cfg.Render.Format)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASS", cfg.Redis.Password)
	cfg.Redis.LockTTLStr = getEnv("REDIS_LOCK_TTL", cfg.Redis.LockTTLStr)
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.Redis.DB = n
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	return nil
}

// applyDatabaseURL understands mysql://, postgres:// (postgresql://) and
// sqlite:///path URLs, the form hosted platforms hand out.
func applyDatabaseURL(db *DatabaseConfig, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		db.Driver = "postgres"
		db.DSN = raw
	case "mysql":
		db.Driver = "mysql"
		pass, _ := u.User.Password()
		db.User = u.User.Username()
		db.Password = pass
		db.Host = u.Hostname()
		db.Port = u.Port()
		db.DBName = strings.TrimPrefix(u.Path, "/")
		db.DSN = ""
	case "sqlite", "sqlite3":
		db.Driver = "sqlite"
		db.Path = strings.TrimPrefix(raw, u.Scheme+"://")
		db.DSN = ""
	default:
		return fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
