package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	ServerAddress  string
	Environment    string
	LogLevel       string
	StoreDriver    string
	ExcludedBranch string
	UsersFile      string
	Redis          RedisConfig
	Database       DatabaseConfig
	Migration      MigrationConfig
	Session        SessionConfig
	Blob           BlobConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Params   string
}

type MigrationConfig struct {
	Dir string
}

type SessionConfig struct {
	TTL           time.Duration
	RememberMeTTL time.Duration
}

type BlobConfig struct {
	Region     string
	Endpoint   string
	Bucket     string
	PresignTTL time.Duration
}

// LoadConfig reads .env from the working directory, if present, and overlays
// the process environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreRedis)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_PARAMS", "parseTime=true")
	v.SetDefault("MIGRATION_DIR", "migrations")
	v.SetDefault("USERS_FILE", "users.yaml")
	v.SetDefault("SESSION_TTL_HOURS", 7*24)
	v.SetDefault("REMEMBER_ME_TTL_HOURS", 30*24)
	v.SetDefault("AWS_REGION", "ap-northeast-2")
	v.SetDefault("PRESIGN_TTL_SECONDS", 300)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		Environment:    v.GetString("ENVIRONMENT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		StoreDriver:    strings.ToLower(v.GetString("STORE_DRIVER")),
		ExcludedBranch: v.GetString("EXCLUDED_BRANCH"),
		UsersFile:      v.GetString("USERS_FILE"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Params:   v.GetString("DB_PARAMS"),
		},
		Migration: MigrationConfig{
			Dir: v.GetString("MIGRATION_DIR"),
		},
		Session: SessionConfig{
			TTL:           time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			RememberMeTTL: time.Duration(v.GetInt("REMEMBER_ME_TTL_HOURS")) * time.Hour,
		},
		Blob: BlobConfig{
			Region:     v.GetString("AWS_REGION"),
			Endpoint:   v.GetString("AWS_ENDPOINT_URL"),
			Bucket:     v.GetString("BLOB_BUCKET"),
			PresignTTL: time.Duration(v.GetInt("PRESIGN_TTL_SECONDS")) * time.Second,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the settings required by the selected store driver
// are present.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case StoreMySQL:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("DB_HOST and DB_NAME are required for the mysql store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Session.TTL <= 0 || c.Session.RememberMeTTL <= 0 {
		return errors.New("session TTLs must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}

// GetMigrationDBURL returns the database URL for migrations
func (c *Config) GetMigrationDBURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}
