package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends for uploaded photos
const (
	StorageDisk = "disk"
	StorageS3   = "s3"
)

// LogFormatConsole selects the human-readable log writer; any other
// LOG_FORMAT logs JSON.
const LogFormatConsole = "console"

// Config holds the application configuration
type Config struct {
	HTTPAddr      string
	PublicBaseURL string
	DataDir       string
	DatabasePath  string

	JWTSecret  string
	SessionTTL time.Duration

	StorageBackend   string
	MediaDir         string
	StorageEndpoint  string
	StorageRegion    string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StoragePublicURL string
	MaxUploadBytes   int64

	WhatsAppEnabled    bool
	WhatsAppDataDir    string
	DefaultCountryCode string

	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables or defaults
func LoadConfig() *Config {
	dataDir := getEnv("DATA_DIR", "data")

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DataDir:       dataDir,
		DatabasePath:  getEnv("DATABASE_PATH", filepath.Join(dataDir, "invitations.db")),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageDisk)),
		MediaDir:         getEnv("MEDIA_DIR", filepath.Join(dataDir, "media")),
		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", ""),
		StorageRegion:    getEnv("STORAGE_REGION", "us-east-1"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "wedding-photos"),
		StoragePublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
		MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", 5<<20),

		WhatsAppEnabled:    getEnvBool("WHATSAPP_ENABLED", false),
		WhatsAppDataDir:    getEnv("WHATSAPP_DATA_DIR", filepath.Join(dataDir, "whatsapp")),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "62"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", LogFormatConsole)),
	}
}

// ConsoleLogs reports whether logs should use the console writer.
func (c *Config) ConsoleLogs() bool {
	return c.LogFormat == LogFormatConsole
}

// Validate reports settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	switch c.StorageBackend {
	case StorageDisk:
		if c.MediaDir == "" {
			errs = append(errs, errors.New("MEDIA_DIR must be set for the disk storage backend"))
		}
	case StorageS3:
		if c.StorageBucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET must be set for the s3 storage backend"))
		}
		if c.StorageEndpoint != "" && (c.StorageAccessKey == "" || c.StorageSecretKey == "") {
			errs = append(errs, errors.New("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required with STORAGE_ENDPOINT"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
