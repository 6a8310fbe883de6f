package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	// HTTP server
	ServerAddr string

	// Logging
	LogLevel string
	LogFile  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis, used for job status and progress reporting
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO object storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Uploads and scratch directories
	UploadDir       string
	AudioUploadDir  string // Subdirectory for audio files: UploadDir/audio
	ArtworkDir      string // Subdirectory for artwork: UploadDir/artwork
	ScratchDir      string // Temp files awaiting processing, cleaned periodically
	MaxUploadBytes  int64
	ArtworkMaxBytes int64 // Artwork payloads above this are rejected before decoding

	// Mail
	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailFrom     string
	DashboardURL string

	// Auth
	JWTSecret string
	JWTExpiry time.Duration

	// Background workers
	WorkerCount       int
	DistributeTimeout time.Duration // Per-platform submission attempt timeout
	ScratchMaxAge     time.Duration // Files older than this are removed from ScratchDir
	UploadStaleMaxAge time.Duration // Unprocessed *.tmp uploads older than this are removed
	CleanupInterval   time.Duration
	WatchUploads      bool // Enqueue processing jobs when files land in AudioUploadDir
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return strings.EqualFold(value, "true") || value == "1"
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	uploadBase := getEnv("UPLOAD_DIR", "uploads")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "logs/veestributes.log"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "veestributes"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "veestributes"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		UploadDir:       uploadBase,
		AudioUploadDir:  filepath.Join(uploadBase, "audio"),
		ArtworkDir:      filepath.Join(uploadBase, "artwork"),
		ScratchDir:      getEnv("SCRATCH_DIR", filepath.Join(uploadBase, "tmp")),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 100<<20), // 100MB
		ArtworkMaxBytes: getEnvInt64("ARTWORK_MAX_BYTES", 20<<20), // 20MB

		MailHost:     getEnv("MAIL_HOST", "smtp.gmail.com"),
		MailPort:     getEnvInt("MAIL_PORT", 587),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@veestributes.com"),
		DashboardURL: getEnv("DASHBOARD_URL", "http://localhost:8080/dashboard"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		WorkerCount:       getEnvInt("WORKER_COUNT", 4),
		DistributeTimeout: getEnvDuration("DISTRIBUTE_TIMEOUT", 2*time.Minute),
		ScratchMaxAge:     getEnvDuration("SCRATCH_MAX_AGE", time.Hour),
		UploadStaleMaxAge: getEnvDuration("UPLOAD_STALE_MAX_AGE", 24*time.Hour),
		CleanupInterval:   getEnvDuration("CLEANUP_INTERVAL", time.Hour),
		WatchUploads:      getEnvBool("WATCH_UPLOADS", false),
	}
}
