package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverOxiDB    = "oxidb"

	DraftsStore = "store"
	DraftsRedis = "redis"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MaxUploadMB     int    `yaml:"max_upload_mb"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"` // sqlite, postgres, oxidb
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	OxiDBHost   string `yaml:"oxidb_host"`
	OxiDBPort   int    `yaml:"oxidb_port"`
	PoolSize    int    `yaml:"pool_size"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
}

type DraftsConfig struct {
	Backend       string `yaml:"backend"` // store, redis
	Throttle      string `yaml:"throttle"`
	TTL           string `yaml:"ttl"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // json, console
	GelfAddr string `yaml:"gelf_addr"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
			MaxUploadMB:     25,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "formcraft.db",
			OxiDBHost:  "127.0.0.1",
			OxiDBPort:  4444,
			PoolSize:   3,
		},
		Auth: AuthConfig{
			JWTSecret: "formcraft-dev-secret-change-me",
			TokenTTL:  "24h",
		},
		Drafts: DraftsConfig{
			Backend:   DraftsStore,
			Throttle:  "1s",
			TTL:       "720h",
			RedisAddr: "127.0.0.1:6379",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Addr = getEnv("FORMCRAFT_ADDR", c.Server.Addr)

	c.Storage.Driver = getEnv("FORMCRAFT_DB_DRIVER", c.Storage.Driver)
	c.Storage.SQLitePath = getEnv("FORMCRAFT_SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.PostgresDSN = getEnv("FORMCRAFT_POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.OxiDBHost = getEnv("OXIDB_HOST", c.Storage.OxiDBHost)
	c.Storage.OxiDBPort = getEnvInt("OXIDB_PORT", c.Storage.OxiDBPort)
	c.Storage.PoolSize = getEnvInt("FORMCRAFT_POOL_SIZE", c.Storage.PoolSize)

	c.Auth.JWTSecret = getEnv("FORMCRAFT_JWT_SECRET", c.Auth.JWTSecret)

	c.Drafts.Backend = getEnv("FORMCRAFT_DRAFT_BACKEND", c.Drafts.Backend)
	c.Drafts.Throttle = getEnv("FORMCRAFT_DRAFT_THROTTLE", c.Drafts.Throttle)
	c.Drafts.RedisAddr = getEnv("REDIS_ADDR", c.Drafts.RedisAddr)
	c.Drafts.RedisPassword = getEnv("REDIS_PASSWORD", c.Drafts.RedisPassword)
	c.Drafts.RedisDB = getEnvInt("REDIS_DB", c.Drafts.RedisDB)

	c.Logging.Level = getEnv("FORMCRAFT_LOG_LEVEL", c.Logging.Level)
	c.Logging.GelfAddr = getEnv("FORMCRAFT_GELF_ADDR", c.Logging.GelfAddr)
}

// Validate rejects unknown backends and malformed durations.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	case DriverOxiDB:
		if c.Storage.OxiDBHost == "" || c.Storage.OxiDBPort == 0 {
			return fmt.Errorf("storage.oxidb_host and storage.oxidb_port are required for the oxidb driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %q (valid: sqlite, postgres, oxidb)", c.Storage.Driver)
	}

	switch c.Drafts.Backend {
	case DraftsStore, DraftsRedis:
	default:
		return fmt.Errorf("invalid drafts backend: %q (valid: store, redis)", c.Drafts.Backend)
	}

	for name, v := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"auth.token_ttl":          c.Auth.TokenTTL,
		"drafts.throttle":         c.Drafts.Throttle,
		"drafts.ttl":              c.Drafts.TTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %q (valid: json, console)", c.Logging.Format)
	}
	return nil
}

func (c *Config) ShutdownTimeout() time.Duration {
	return duration(c.Server.ShutdownTimeout, 10*time.Second)
}

func (c *Config) TokenTTL() time.Duration {
	return duration(c.Auth.TokenTTL, 24*time.Hour)
}

func (c *Config) DraftThrottle() time.Duration {
	return duration(c.Drafts.Throttle, time.Second)
}

func (c *Config) DraftTTL() time.Duration {
	return duration(c.Drafts.TTL, 30*24*time.Hour)
}

// MaxUploadBytes bounds multipart request bodies.
func (c *Config) MaxUploadBytes() int64 {
	if c.Server.MaxUploadMB <= 0 {
		return 25 << 20
	}
	return int64(c.Server.MaxUploadMB) << 20
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
