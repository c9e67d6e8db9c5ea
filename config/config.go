package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendAirtable = "airtable"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Activity sinks.
const (
	SinkStore = "store"
	SinkQueue = "queue"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Airtable  AirtableConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Lookup    LookupConfig
	AWS       AWSConfig
	Activity  ActivityConfig
	Analytics AnalyticsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// StorageConfig selects the table store backend.
type StorageConfig struct {
	Backend string // airtable, postgres or memory
}

// AirtableConfig holds the hosted table service credentials and table names.
type AirtableConfig struct {
	APIKey          string
	BaseID          string
	APIURL          string
	CompaniesTable  string
	PropertiesTable string
	TransfersTable  string
	ActivityTable   string
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres backend.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LookupConfig holds the address lookup service settings.
type LookupConfig struct {
	URL             string
	APIKey          string
	CacheTTLMinutes int
	HTTPTimeoutSec  int
}

// AWSConfig holds AWS credentials and the exports bucket. An empty bucket disables archiving.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ExportsBucket        string
	PresignExpireMinutes int
}

// ActivityConfig selects where activity entries go.
type ActivityConfig struct {
	Sink string // store or queue
}

// AnalyticsConfig is passed through to the client shell.
type AnalyticsConfig struct {
	TagID string
}

// HTTPTimeout is the timeout for outbound HTTP clients.
func (c LookupConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// CacheTTL is how long lookup responses stay cached. Zero disables the cache.
func (c LookupConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendAirtable)),
		},
		Airtable: AirtableConfig{
			APIKey:          getEnv("AIRTABLE_API_KEY", ""),
			BaseID:          getEnv("AIRTABLE_BASE_ID", ""),
			APIURL:          getEnv("AIRTABLE_API_URL", "https://api.airtable.com/v0"),
			CompaniesTable:  getEnv("AIRTABLE_COMPANIES_TABLE", "tbltEkgtKDSuxmDBb"),
			PropertiesTable: getEnv("AIRTABLE_PROPERTIES_TABLE", "tbl4SHxj7F31DhCzo"),
			TransfersTable:  getEnv("AIRTABLE_TRANSFERS_TABLE", "tblTNmLdE7pRbXuRN"),
			ActivityTable:   getEnv("AIRTABLE_ACTIVITY_TABLE", "tbltOTyDcZStOyz5k"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "postgres://localhost:5432/moveout?sslmode=disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Lookup: LookupConfig{
			URL:             getEnv("UTILITY_API_URL", ""),
			APIKey:          getEnv("UTILITY_API_KEY", ""),
			CacheTTLMinutes: getEnvInt("LOOKUP_CACHE_TTL_MIN", 0),
			HTTPTimeoutSec:  getEnvInt("HTTP_CLIENT_TIMEOUT_SEC", 15),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ExportsBucket:        getEnv("AWS_S3_EXPORTS_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Activity: ActivityConfig{
			Sink: strings.ToLower(getEnv("ACTIVITY_SINK", SinkStore)),
		},
		Analytics: AnalyticsConfig{
			TagID: getEnv("NEXT_PUBLIC_CLARITY_ID", getEnv("ANALYTICS_TAG_ID", "")),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendAirtable:
		if c.Airtable.APIKey == "" || c.Airtable.BaseID == "" {
			return fmt.Errorf("STORAGE_BACKEND=airtable requires AIRTABLE_API_KEY and AIRTABLE_BASE_ID")
		}
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	switch c.Activity.Sink {
	case SinkStore:
	case SinkQueue:
		if c.Redis.Addr == "" {
			return fmt.Errorf("ACTIVITY_SINK=queue requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown ACTIVITY_SINK %q", c.Activity.Sink)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
