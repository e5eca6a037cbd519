package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/karunyatrust/cms/internal/storage"
	"github.com/karunyatrust/cms/pkg/logger"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Records   RecordsConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Razorpay  RazorpayConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	PublicDir    string
}

// RecordsConfig selects the record store backend and names the collections.
type RecordsConfig struct {
	Backend         string // file | memory | mongo | redis | sqlite
	DataDir         string
	SQLitePath      string
	RedisPrefix     string
	MongoCollection string
	Collections     CollectionNames
}

type CollectionNames struct {
	Users    string
	Blogs    string
	FileLogs string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// StorageConfig selects where uploaded images and delivered files go.
type StorageConfig struct {
	Backend string // disk | minio
	Disk    storage.DiskConfig
	MinIO   storage.MinIOConfig

	// ReportsDir holds delivered reports on the disk backend. It is never
	// served statically; reports are only downloadable with a token.
	ReportsDir string
}

type RazorpayConfig struct {
	KeyID string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_PUBLIC_DIR", "public")
	viper.SetDefault("RECORDS_BACKEND", "file")
	viper.SetDefault("RECORDS_DATA_DIR", "data")
	viper.SetDefault("RECORDS_SQLITE_PATH", "data/cms.db")
	viper.SetDefault("RECORDS_REDIS_PREFIX", "cms:collection:")
	viper.SetDefault("RECORDS_MONGO_COLLECTION", "collections")
	viper.SetDefault("COLLECTION_USERS", "users")
	viper.SetDefault("COLLECTION_BLOGS", "blogs")
	viper.SetDefault("COLLECTION_FILE_LOGS", "file-logs")
	viper.SetDefault("MONGODB_DATABASE", "cms")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_TOKEN_TTL_DAYS", 30)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("STORAGE_BACKEND", "disk")
	viper.SetDefault("STORAGE_DISK_DIR", "public/uploads")
	viper.SetDefault("STORAGE_DISK_URL_PREFIX", "/public/uploads")
	viper.SetDefault("STORAGE_REPORTS_DIR", "data/files")
	viper.SetDefault("MINIO_BUCKET", "cms")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  splitList(viper.GetString("CORS_ORIGINS")),
			PublicDir:    viper.GetString("SERVER_PUBLIC_DIR"),
		},
		Records: RecordsConfig{
			Backend:         strings.ToLower(viper.GetString("RECORDS_BACKEND")),
			DataDir:         viper.GetString("RECORDS_DATA_DIR"),
			SQLitePath:      viper.GetString("RECORDS_SQLITE_PATH"),
			RedisPrefix:     viper.GetString("RECORDS_REDIS_PREFIX"),
			MongoCollection: viper.GetString("RECORDS_MONGO_COLLECTION"),
			Collections: CollectionNames{
				Users:    viper.GetString("COLLECTION_USERS"),
				Blogs:    viper.GetString("COLLECTION_BLOGS"),
				FileLogs: viper.GetString("COLLECTION_FILE_LOGS"),
			},
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:      viper.GetString("KEYCLOAK_URL"),
			Realm:    viper.GetString("KEYCLOAK_REALM"),
			ClientID: viper.GetString("KEYCLOAK_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			TokenTTL: time.Duration(viper.GetInt("JWT_TOKEN_TTL_DAYS")) * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(viper.GetString("STORAGE_BACKEND")),
			Disk: storage.DiskConfig{
				Dir:       viper.GetString("STORAGE_DISK_DIR"),
				URLPrefix: viper.GetString("STORAGE_DISK_URL_PREFIX"),
			},
			MinIO: storage.MinIOConfig{
				Endpoint:      viper.GetString("MINIO_ENDPOINT"),
				AccessKey:     viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey:     os.Getenv("MINIO_SECRET_KEY"),
				UseSSL:        viper.GetBool("MINIO_USE_SSL"),
				Bucket:        viper.GetString("MINIO_BUCKET"),
				PublicBaseURL: viper.GetString("MINIO_PUBLIC_BASE_URL"),
			},
			ReportsDir: viper.GetString("STORAGE_REPORTS_DIR"),
		},
		Razorpay: RazorpayConfig{
			KeyID: viper.GetString("RAZORPAY_KEY_ID"),
		},
	}

	if cfg.JWT.Secret == "" {
		logger.Warnf("JWT_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TOKEN_TTL_DAYS must be positive"))
	}
	switch c.Records.Backend {
	case "file":
		if c.Records.DataDir == "" {
			errs = append(errs, errors.New("RECORDS_DATA_DIR is required for the file backend"))
		}
	case "memory":
	case "mongo":
		if c.MongoDB.URI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo backend"))
		}
	case "redis":
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis backend"))
		}
	case "sqlite":
		if c.Records.SQLitePath == "" {
			errs = append(errs, errors.New("RECORDS_SQLITE_PATH is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RECORDS_BACKEND %q", c.Records.Backend))
	}
	switch c.Storage.Backend {
	case "disk":
		if c.Storage.Disk.Dir == "" {
			errs = append(errs, errors.New("STORAGE_DISK_DIR is required for the disk backend"))
		}
		if c.Storage.ReportsDir == "" {
			errs = append(errs, errors.New("STORAGE_REPORTS_DIR is required for the disk backend"))
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT is required for the minio backend"))
		}
		if c.Storage.MinIO.PublicBaseURL == "" {
			errs = append(errs, errors.New("MINIO_PUBLIC_BASE_URL is required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}
