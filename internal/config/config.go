package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// storage
	StoreBackend string
	MongoURI     string
	DBName       string

	// object storage
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	AWSAccessKeyID string
	AWSSecretKey   string
	PresignTTL     time.Duration

	// sessions
	SessionSecret   string
	PatientTTL      time.Duration
	StaffTTL        time.Duration
	AdminInitSecret string
	CORSOrigins     []string
	MaxBodyBytes    int64
	LoginRateLimit  int

	// tracing
	OTLPEndpoint     string
	TraceSampleRatio float64

	// upload registry + sweeper
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OrphanGrace   time.Duration
	SweepInterval time.Duration
	SweeperPort   int
}

func Load() Config {
	// a missing .env is fine, the process env still applies
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreBackend: getEnv("STORE_BACKEND", "mongo"),
		MongoURI:     getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		DBName:       getEnv("DB_NAME", "creciendojuntos"),

		S3Bucket:       getEnv("S3_BUCKET_NAME", ""),
		S3Region:       getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		PresignTTL:     time.Duration(getEnvInt("PRESIGN_TTL_SECONDS", 300)) * time.Second,

		SessionSecret:   getEnv("SESSION_SECRET", "dev-session-secret"),
		PatientTTL:      time.Duration(getEnvInt("PATIENT_SESSION_TTL_HOURS", 720)) * time.Hour,
		StaffTTL:        time.Duration(getEnvInt("STAFF_SESSION_TTL_MINUTES", 480)) * time.Minute,
		AdminInitSecret: getEnv("ADMIN_INIT_SECRET", ""),
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),

		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),

		RedisAddr:     lookupEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		OrphanGrace:   time.Duration(getEnvInt("ORPHAN_GRACE_MINUTES", 60)) * time.Minute,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
		SweeperPort:   getEnvInt("SWEEPER_PORT", 8081),
	}
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// lookupEnv keeps an explicitly empty value; REDIS_ADDR= turns the upload
// registry off.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
