package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
// All secrets live here; components receive them at construction and
// never read the environment themselves.
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Bookeo   BookeoConfig
	Session  SessionConfig
	Signing  SigningConfig
	Archive  ArchiveConfig
	Auth     AuthConfig
	AWS      AWSConfig
	Validate ValidateConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string // origins permitted to call the waiver endpoints
}

// RedisConfig holds session-store connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds the optional PostgreSQL audit-trail connection.
// An empty URL disables audit logging entirely.
type DatabaseConfig struct {
	URL string
}

// BookeoConfig holds the booking-provider API settings.
type BookeoConfig struct {
	BaseURL    string
	APIKey     string
	SecretKey  string
	TimeoutSec int
	// DisplayTimeZone is used when formatting booking windows for clients.
	DisplayTimeZone string
}

// SessionConfig holds handshake derivation and session lifetime settings.
type SessionConfig struct {
	HMACSecret string
	TTLSeconds int
}

// SigningConfig holds the waiver signing key.
type SigningConfig struct {
	// PrivateKey is the base64-encoded PEM of the RSA private key used to
	// sign signature artwork.
	PrivateKey string
}

// ArchiveConfig holds the archival webhook settings.
type ArchiveConfig struct {
	WebhookURL string
	PublicKey  string
	Hash       string
	TimeoutSec int
}

// AuthConfig holds staff authentication settings for the analytics API.
type AuthConfig struct {
	JWTSecret         string
	ExpireHours       int
	StaffUsername     string
	StaffPasswordHash string // bcrypt hash
}

// AWSConfig holds credentials and the S3 bucket for archived waiver copies.
// An empty Region disables the S3 archival worker.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	WaiverBucket         string
	PresignExpireMinutes int
}

// ValidateConfig controls the QR validation endpoint.
type ValidateConfig struct {
	// RequireHandshake additionally re-verifies the scanned handshake/nonce
	// pair against the session HMAC secret.
	RequireHandshake bool
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:   getEnvInt("WRITE_TIMEOUT_SEC", 30),
			AllowedOrigins: splitTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Bookeo: BookeoConfig{
			BaseURL:         getEnv("BOOKEO_BASE_URL", "https://api.bookeo.com/v2"),
			APIKey:          getEnv("BOOKEO_API_KEY", ""),
			SecretKey:       getEnv("BOOKEO_SECRET_KEY", ""),
			TimeoutSec:      getEnvInt("BOOKEO_TIMEOUT_SEC", 15),
			DisplayTimeZone: getEnv("BOOKING_DISPLAY_TZ", "America/New_York"),
		},
		Session: SessionConfig{
			HMACSecret: getEnv("SESSION_HMAC_SECRET", ""),
			TTLSeconds: getEnvInt("SESSION_TTL_SEC", 600),
		},
		Signing: SigningConfig{
			PrivateKey: getEnv("WAIVER_SIGNING_KEY", ""),
		},
		Archive: ArchiveConfig{
			WebhookURL: getEnv("ARCHIVE_WEBHOOK_URL", ""),
			PublicKey:  getEnv("ARCHIVE_PUBLIC_KEY", ""),
			Hash:       getEnv("ARCHIVE_HASH", ""),
			TimeoutSec: getEnvInt("ARCHIVE_TIMEOUT_SEC", 30),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours:       getEnvInt("JWT_EXPIRE_HOURS", 12),
			StaffUsername:     getEnv("STAFF_USERNAME", "staff"),
			StaffPasswordHash: getEnv("STAFF_PASSWORD_HASH", ""),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			WaiverBucket:         getEnv("AWS_S3_WAIVER_BUCKET", "waiver-archive-bucket"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Validate: ValidateConfig{
			RequireHandshake: getEnvBool("WAIVER_VALIDATE_REQUIRE_HANDSHAKE", false),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
