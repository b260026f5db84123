package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string

	// Cache tiers
	RedisURL         string        // Redis backing the session and durable tiers
	SessionTierTTL   time.Duration // expiry of the per-process session blob
	DurableTTL       time.Duration // max age of durable records loaded on init
	DurableCapacity  int           // hard cap on durable tier records
	FlushProbability float64       // chance a successful Register triggers a durable flush

	// Validator
	ValidateTimeout time.Duration
	MaxImageBytes   int64

	// Object store
	S3Endpoint       string
	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3ForcePathStyle bool
	S3PublicBaseURL  string // public URL prefix for uploaded logos

	// Resolution providers
	BrandAPIToken    string        // empty disables the brand metadata strategy
	ProviderCooldown time.Duration // suppression window after a rate-limit response

	// Prefetcher
	PrefetchInterval  time.Duration
	PrefetchChunkSize int
	PrefetchChunkWait time.Duration

	// TLS/mTLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // CA for verifying client certs (mTLS)

	// CORS
	CORSOrigins string // Comma-separated allowed origins
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/logosvc?sslmode=disable"),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionTierTTL:   getDuration("SESSION_TIER_TTL", 12*time.Hour),
		DurableTTL:       getDuration("DURABLE_TTL", 30*24*time.Hour),
		DurableCapacity:  getInt("DURABLE_CAPACITY", 500),
		FlushProbability: getFloat("FLUSH_PROBABILITY", 0.125),

		ValidateTimeout: getDuration("VALIDATE_TIMEOUT", 3*time.Second),
		MaxImageBytes:   int64(getInt("MAX_IMAGE_BYTES", 5*1024*1024)),

		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Bucket:         getEnv("S3_BUCKET", "app-logos"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3ForcePathStyle: getEnv("S3_FORCE_PATH_STYLE", "true") == "true",
		S3PublicBaseURL:  getEnv("S3_PUBLIC_BASE_URL", ""),

		BrandAPIToken:    getEnv("BRAND_API_TOKEN", ""),
		ProviderCooldown: getDuration("PROVIDER_COOLDOWN", 5*time.Minute),

		PrefetchInterval:  getDuration("PREFETCH_INTERVAL", 15*time.Minute),
		PrefetchChunkSize: getInt("PREFETCH_CHUNK_SIZE", 5),
		PrefetchChunkWait: getDuration("PREFETCH_CHUNK_WAIT", 500*time.Millisecond),

		TLSEnabled:  getEnv("TLS_ENABLED", "") != "",
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:   getEnv("TLS_CA_FILE", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsMTLSEnabled returns true if mTLS is configured with a CA file.
func (c *Config) IsMTLSEnabled() bool {
	return c.TLSEnabled && c.TLSCAFile != ""
}

// S3Configured returns true when the object store has enough configuration
// for the persistence bridge to operate.
func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
