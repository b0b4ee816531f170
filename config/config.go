package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/oops"
)

// DefaultSecretKey is only good for local development.
const DefaultSecretKey = "your-secret-key-change-in-production"

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DB DBConfig

	SecretKey      string
	AccessTokenTTL time.Duration

	CORSAllowOrigins []string

	Storage     StorageConfig
	MaxUploadMB int64
}

type DBConfig struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type StorageConfig struct {
	Backend string // s3 | supabase

	S3Region    string
	S3Bucket    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env when present, then builds the config from environment variables.
func Load() Config {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	return Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       getEnv("DB_NAME", "database_security_lab"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "lab.db"),
		},
		SecretKey:        getEnv("SECRET_KEY", DefaultSecretKey),
		AccessTokenTTL:   time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		CORSAllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "s3"),
			S3Region:       getEnv("AWS_REGION", "us-east-1"),
			S3Bucket:       getEnv("S3_BUCKET", "database-security-lab-assets"),
			S3Endpoint:     os.Getenv("S3_ENDPOINT"),
			S3AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			S3SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SupabaseURL:    os.Getenv("SUPABASE_URL"),
			SupabaseKey:    os.Getenv("SUPABASE_KEY"),
			SupabaseBucket: getEnv("SUPABASE_BUCKET", "uploads"),
		},
		MaxUploadMB: int64(getEnvInt("MAX_UPLOAD_MB", 20)),
	}
}

// OpenDB connects with the configured driver and auto-migrates the models.
func OpenDB(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DB.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	default:
		return nil, oops.New(nil, "unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	logLevel := logger.Warn
	if cfg.LogLevel == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, oops.New(err, "failed to connect to %s database", cfg.DB.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, oops.New(err, "failed to get sql.DB from gorm")
	}

	// Connection pooling
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.ContentRecord{},
	); err != nil {
		return oops.New(err, "auto-migrate failed")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
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
