package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are loaded from environment variables with defaults that let the
// binary run locally against the in-memory stores.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	PGDSN         string
	MongoURI      string
	MongoDatabase string
	RunMigrations bool

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	CookieSecure  bool
	EcoTotalsKey  string

	KafkaBrokers []string
	KafkaTopic   string

	GeocoderURL     string
	GeocoderAgent   string
	GeocoderTimeout time.Duration
	GeocoderRetries int

	RouterURL     string
	RouterTimeout time.Duration
	RouterRetries int

	StripeAPIKey   string
	StripeCurrency string

	BcryptCost  int
	AdminEmails []string

	LogLevel string
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MongoDatabase:   "ridewise_db",
		SessionTTL:      24 * time.Hour,
		EcoTotalsKey:    "eco:totals",
		KafkaTopic:      "bookings",
		GeocoderURL:     "https://nominatim.openstreetmap.org",
		GeocoderAgent:   "RideWiseApp",
		GeocoderTimeout: 5 * time.Second,
		RouterURL:       "http://router.project-osrm.org",
		RouterTimeout:   5 * time.Second,
		StripeCurrency:  "inr",
		BcryptCost:      10,
		LogLevel:        "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.MongoURI = strings.TrimSpace(os.Getenv("MONGO_URI"))
	setStringFromEnv(&cfg.MongoDatabase, "MONGO_DATABASE")
	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setDurationFromEnv(&cfg.SessionTTL, "SESSION_TTL", &errs)
	cfg.CookieSecure = strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true")
	setStringFromEnv(&cfg.EcoTotalsKey, "ECO_TOTALS_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	setStringFromEnv(&cfg.GeocoderURL, "GEOCODER_URL")
	setStringFromEnv(&cfg.GeocoderAgent, "GEOCODER_USER_AGENT")
	setDurationFromEnv(&cfg.GeocoderTimeout, "GEOCODER_TIMEOUT", &errs)
	setIntFromEnv(&cfg.GeocoderRetries, "GEOCODER_RETRIES", &errs)

	setStringFromEnv(&cfg.RouterURL, "ROUTER_URL")
	setDurationFromEnv(&cfg.RouterTimeout, "ROUTER_TIMEOUT", &errs)
	setIntFromEnv(&cfg.RouterRetries, "ROUTER_RETRIES", &errs)

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")
	setStringFromEnv(&cfg.StripeCurrency, "STRIPE_CURRENCY")

	setIntFromEnv(&cfg.BcryptCost, "BCRYPT_COST", &errs)
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		for _, e := range splitAndTrim(v) {
			cfg.AdminEmails = append(cfg.AdminEmails, strings.ToLower(e))
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.GeocoderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("GEOCODER_TIMEOUT must be > 0"))
	}
	if cfg.RouterTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ROUTER_TIMEOUT must be > 0"))
	}
	if cfg.GeocoderRetries < 0 || cfg.RouterRetries < 0 {
		errs = append(errs, fmt.Errorf("retry counts must be >= 0"))
	}
	if cfg.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

// ConsumerConfig configures the booking-event consumer process.
type ConsumerConfig struct {
	MetricsAddr   string
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroup    string
	RedisAddr     string
	RedisPassword string
	EcoTotalsKey  string
	LogLevel      string
}

func LoadConsumerConfig() (ConsumerConfig, error) {
	cfg := ConsumerConfig{
		MetricsAddr:  ":2112",
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "bookings",
		KafkaGroup:   "ridewise-eco-totals",
		RedisAddr:    "localhost:6379",
		EcoTotalsKey: "eco:totals",
		LogLevel:     "info",
	}
	setStringFromEnv(&cfg.MetricsAddr, "METRICS_ADDR")
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setStringFromEnv(&cfg.KafkaGroup, "KAFKA_GROUP")
	setStringFromEnv(&cfg.RedisAddr, "REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.EcoTotalsKey, "ECO_TOTALS_KEY")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if len(cfg.KafkaBrokers) == 0 {
		return cfg, errors.New("KAFKA_BROKERS must name at least one broker")
	}
	return cfg, nil
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
