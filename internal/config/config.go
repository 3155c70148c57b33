package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Port          string
	Env           string
	JWTSecret     string
	TokenTTL      time.Duration
	CRDBDSN       string
	MongoURI      string
	RedisAddr     string
	RabbitURL     string
	OTLPEndpoint  string
	Currency      string
	TrendingTTL   time.Duration
	IdempotentTTL time.Duration
	AuthRateLimit int
	SweepInterval time.Duration
	AutoMigrate   bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("NODE_ENV")
	}
	if env == "" {
		env = EnvDevelopment
	}

	tokenTTL, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	trendingTTL, err := durationEnv("TRENDING_TTL", time.Minute)
	if err != nil {
		return nil, err
	}
	idempTTL, err := durationEnv("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	sweep, err := durationEnv("STATUS_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	rateLimit := 20
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		rateLimit, err = strconv.Atoi(v)
		if err != nil || rateLimit <= 0 {
			return nil, errors.Newf("invalid AUTH_RATE_LIMIT %q", v)
		}
	}

	autoMigrate := true
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		autoMigrate, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid AUTO_MIGRATE %q", v)
		}
	}

	return &Config{
		Port:          envOr("PORT", "8080"),
		Env:           strings.ToLower(env),
		JWTSecret:     os.Getenv("JWT_SECRET_KEY"),
		TokenTTL:      tokenTTL,
		CRDBDSN:       os.Getenv("CRDB_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RabbitURL:     os.Getenv("RABBIT_URL"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Currency:      envOr("CURRENCY", "USD"),
		TrendingTTL:   trendingTTL,
		IdempotentTTL: idempTTL,
		AuthRateLimit: rateLimit,
		SweepInterval: sweep,
		AutoMigrate:   autoMigrate,
	}, nil
}

// IsProduction reports whether internal error detail must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Require returns an error naming every listed setting that is empty.
func (c *Config) Require(keys ...string) error {
	values := map[string]string{
		"JWT_SECRET_KEY": c.JWTSecret,
		"CRDB_DSN":       c.CRDBDSN,
		"MONGO_URI":      c.MongoURI,
		"REDIS_ADDR":     c.RedisAddr,
		"RABBIT_URL":     c.RabbitURL,
	}
	var missing []string
	for _, k := range keys {
		if values[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errors.Newf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}
