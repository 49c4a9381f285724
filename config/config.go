package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort    string
	AppMode    string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	JWTSecret  string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Chat tuning
	KDFIterations  int
	MaxTextLength  int
	MaxFileBytes   int64
	PageLimit      int
	StorageTimeout int // seconds per datastore call

	// Blob storage
	StorageDriver string // "disk" or "s3"
	UploadDir     string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string
	S3Endpoint    string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		AppMode:    getEnv("APP_MODE", "debug"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "pairlock"),
		DBPort:     getEnv("DB_PORT", "5432"),
		JWTSecret:  getEnv("JWT_SECRET", "change-me"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KDFIterations:  getEnvAsInt("KDF_ITERATIONS", 100000),
		MaxTextLength:  getEnvAsInt("MAX_TEXT_LENGTH", 1000),
		MaxFileBytes:   int64(getEnvAsInt("MAX_FILE_BYTES", 10*1024*1024)),
		PageLimit:      getEnvAsInt("PAGE_LIMIT", 50),
		StorageTimeout: getEnvAsInt("STORAGE_TIMEOUT_SEC", 10),

		StorageDriver: getEnv("STORAGE_DRIVER", "disk"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		S3Region:      getEnv("S3_REGION", ""),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
