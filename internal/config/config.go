package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	LLM struct {
		APIKey      string  `yaml:"apiKey"`
		BaseURL     string  `yaml:"baseURL"`
		Model       string  `yaml:"model"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`

	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	History struct {
		Limit   int           `yaml:"limit"`
		IdleTTL time.Duration `yaml:"idleTTL"`
	} `yaml:"history"`

	RateLimit struct {
		RequestsPerMinute int `yaml:"requestsPerMinute"`
		Burst             int `yaml:"burst"`
	} `yaml:"ratelimit"`
}

// Default returns a config usable without any file: SQLite storage and the
// public OpenAI endpoint.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = "whatif.db"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.Temperature = 0.2
	cfg.History.Limit = 50
	cfg.History.IdleTTL = 30 * time.Minute
	cfg.RateLimit.RequestsPerMinute = 10
	cfg.RateLimit.Burst = 3
	return &cfg
}

// Load baca file config.yaml di atas default, lalu env override. A missing
// file is not an error. A .env file in the working directory is loaded first
// when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"OPENAI_API_KEY":   &c.LLM.APIKey,
		"OPENAI_BASE_URL":  &c.LLM.BaseURL,
		"OPENAI_MODEL":     &c.LLM.Model,
		"DB_DRIVER":        &c.Database.Driver,
		"DB_DSN":           &c.Database.DSN,
		"DB_PATH":          &c.Database.Path,
		"JWT_SECRET":       &c.Auth.JWTSecret,
		"MINIO_ENDPOINT":   &c.Minio.Endpoint,
		"MINIO_ACCESS_KEY": &c.Minio.AccessKey,
		"MINIO_SECRET_KEY": &c.Minio.SecretKey,
	}
	for k, dst := range str {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks fields every command depends on.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history limit must be positive")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// SQLiteDSN returns the database file, or an in-memory database for ":memory:".
func (c *Config) SQLiteDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Path == ":memory:" || strings.TrimSpace(c.Database.Path) == "" {
		return "file::memory:?cache=shared"
	}
	return "file:" + c.Database.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
