package config

import (
	"os"
	"strconv"
	"time"

	"verdict/internal/decision"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	MetricsAddr string

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers string

	JWTSigningKey string
	SystemVersion string

	TrailCacheTTL time.Duration

	Policy decision.PolicyConfig
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("VERDICT_ADDR", ":8080"),
		MetricsAddr:   envOr("VERDICT_METRICS_ADDR", ":9090"),
		DatabaseURL:   os.Getenv("VERDICT_DATABASE_URL"),
		RedisURL:      os.Getenv("VERDICT_REDIS_URL"),
		KafkaBrokers:  os.Getenv("VERDICT_KAFKA_BROKERS"),
		JWTSigningKey: os.Getenv("VERDICT_JWT_SIGNING_KEY"),
		SystemVersion: envOr("VERDICT_SYSTEM_VERSION", "dev"),
		TrailCacheTTL: 5 * time.Minute,
		Policy:        decision.DefaultPolicyConfig(),
	}

	if ttl := os.Getenv("VERDICT_TRAIL_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TrailCacheTTL = d
		}
	}

	// Threshold overrides. Invalid values are ignored here; the policy is
	// validated once at evaluator construction and bad config fails fast
	// there with a threshold_config error.
	overrideFloat("VERDICT_NAME_MATCH_THRESHOLD", &cfg.Policy.NameMatchThreshold)
	overrideFloat("VERDICT_ADDRESS_MATCH_THRESHOLD", &cfg.Policy.AddressMatchThreshold)
	overrideFloat("VERDICT_AUTO_APPROVE_THRESHOLD", &cfg.Policy.AutoApproveThreshold)
	overrideFloat("VERDICT_MANUAL_REVIEW_THRESHOLD", &cfg.Policy.ManualReviewThreshold)
	overrideFloat("VERDICT_RISK_MAX_WEIGHT", &cfg.Policy.RiskMaxWeight)
	overrideFloat("VERDICT_RISK_MEAN_WEIGHT", &cfg.Policy.RiskMeanWeight)

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func overrideFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
