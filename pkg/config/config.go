package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTAccessSecret []byte
	AccessTokenTTL  time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr string
	CacheTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	StaffEmail   string

	InternalToken string
	CSRFEnabled   bool

	StrictTotals       bool
	LowStockThreshold  int
	NotifyPollInterval time.Duration
	NotifyMaxAttempts  int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads path (usually ".env") when it exists and then the process
// environment. Missing optional values fall back to defaults.
func Load(path string) Config {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Printf("notice: %s not loaded: %v, using system environment variables", path, err)
		}
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  EnvDurationDefault("ACCESS_TOKEN_TTL", 24*time.Hour),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  EnvDurationDefault("CACHE_TTL", 5*time.Minute),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     EnvIntDefault("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     EnvDefault("MAIL_FROM", "shop@localhost"),
		StaffEmail:   EnvDefault("STAFF_EMAIL", "staff@localhost"),

		InternalToken: os.Getenv("INTERNAL_TOKEN"),
		CSRFEnabled:   EnvBoolDefault("CSRF_ENABLED", true),

		StrictTotals:       EnvBoolDefault("ORDER_STRICT_TOTALS", false),
		LowStockThreshold:  EnvIntDefault("LOW_STOCK_THRESHOLD", 10),
		NotifyPollInterval: EnvDurationDefault("NOTIFY_POLL_INTERVAL", 2*time.Second),
		NotifyMaxAttempts:  EnvIntDefault("NOTIFY_MAX_ATTEMPTS", 5),

		RateLimitRPS:   EnvFloatDefault("RATE_LIMIT_RPS", 5),
		RateLimitBurst: EnvIntDefault("RATE_LIMIT_BURST", 10),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
