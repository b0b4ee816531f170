package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/dbsec-lab/models"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "DB_DRIVER", "SECRET_KEY", "ACCESS_TOKEN_EXPIRE_MINUTES",
		"CORS_ALLOW_ORIGINS", "STORAGE_BACKEND", "AWS_REGION", "MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, DefaultSecretKey, cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowOrigins)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "us-east-1", cfg.Storage.S3Region)
	assert.EqualValues(t, 20, cfg.MaxUploadMB)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "90")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://lab.example.com, https://admin.example.com ,")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "lab")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"https://lab.example.com", "https://admin.example.com"}, cfg.CORSAllowOrigins)
	assert.EqualValues(t, 20, cfg.MaxUploadMB)
	assert.Contains(t, cfg.DB.DSN(), "host=db.internal")
	assert.Contains(t, cfg.DB.DSN(), "dbname=lab")
}

func TestOpenDBSQLite(t *testing.T) {
	cfg := Config{LogLevel: "error", DB: DBConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "lab.db")}}

	db, err := OpenDB(cfg)
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	assert.True(t, db.Migrator().HasTable(&models.ContentRecord{}))
	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasColumn(&models.ContentRecord{}, "sort_order"))
}

func TestOpenDBUnknownDriver(t *testing.T) {
	_, err := OpenDB(Config{DB: DBConfig{Driver: "oracle"}})
	assert.Error(t, err)
}
