package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("RECORDS_BACKEND", "SQLite")
	t.Setenv("RECORDS_SQLITE_PATH", "/tmp/cms-test.db")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_123")
	t.Setenv("CORS_ORIGINS", "https://a.org, ,https://b.org")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Records.Backend)
	require.Equal(t, "/tmp/cms-test.db", cfg.Records.SQLitePath)
	require.Equal(t, "users", cfg.Records.Collections.Users)
	require.Equal(t, "blogs", cfg.Records.Collections.Blogs)
	require.Equal(t, "file-logs", cfg.Records.Collections.FileLogs)
	require.Equal(t, 30*24*time.Hour, cfg.JWT.TokenTTL)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, "rzp_test_123", cfg.Razorpay.KeyID)
	require.Equal(t, "disk", cfg.Storage.Backend)
	require.Equal(t, []string{"https://a.org", "https://b.org"}, cfg.Server.CORSOrigins)
	require.Equal(t, "public", cfg.Server.PublicDir)
	require.Equal(t, "data/files", cfg.Storage.ReportsDir)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Records: RecordsConfig{Backend: "file", DataDir: "data"},
			JWT:     JWTConfig{Secret: "s", TokenTTL: time.Hour},
			Storage: StorageConfig{Backend: "disk", ReportsDir: "data/files"},
		}
	}

	cfg := base()
	cfg.Storage.Disk.Dir = "public/uploads"
	require.NoError(t, cfg.Validate())

	cfg.Storage.ReportsDir = ""
	require.ErrorContains(t, cfg.Validate(), "STORAGE_REPORTS_DIR")
	cfg.Storage.ReportsDir = "data/files"

	cfg.JWT.Secret = ""
	require.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg = base()
	cfg.Storage.Disk.Dir = "public/uploads"
	cfg.Records.Backend = "mongo"
	require.ErrorContains(t, cfg.Validate(), "MONGODB_URI")
	cfg.MongoDB.URI = "mongodb://localhost:27017"
	require.NoError(t, cfg.Validate())

	cfg.Records.Backend = "cassandra"
	require.ErrorContains(t, cfg.Validate(), "unknown RECORDS_BACKEND")

	cfg = base()
	cfg.Storage.Backend = "minio"
	require.ErrorContains(t, cfg.Validate(), "MINIO_ENDPOINT")
}

func TestValidate_MinIORequiresPublicBaseURL(t *testing.T) {
	cfg := &Config{
		Records: RecordsConfig{Backend: "memory"},
		JWT:     JWTConfig{Secret: "s", TokenTTL: time.Hour},
		Storage: StorageConfig{Backend: "minio"},
	}
	cfg.Storage.MinIO.Endpoint = "minio:9000"
	cfg.Storage.MinIO.Bucket = "cms"

	// stored image and report links must not expire
	err := cfg.Validate()
	require.ErrorContains(t, err, "MINIO_PUBLIC_BASE_URL")
	require.NotContains(t, err.Error(), "MINIO_ENDPOINT")

	cfg.Storage.MinIO.PublicBaseURL = "https://cdn.example.org/cms"
	require.NoError(t, cfg.Validate())
}
