package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Submissions pipeline; disabled unless KAFKA_ENABLED=true.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string

	BatchSize          int
	BatchFlushInterval time.Duration

	// NFPA 291 parameter overrides.
	TargetResidualPsi   float64
	CurveStepPsi        float64
	FallbackCoefficient float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	defaults := domain.DefaultParams()

	target, err := parseFloatEnv("NFPA_TARGET_RESIDUAL_PSI", defaults.TargetResidualPsi)
	if err != nil {
		return nil, err
	}
	step, err := parseFloatEnv("NFPA_CURVE_STEP_PSI", defaults.CurveStepPsi)
	if err != nil {
		return nil, err
	}
	fallback, err := parseFloatEnv("NFPA_FALLBACK_COEFFICIENT", defaults.FallbackCoefficient)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "flow-test-submissions"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "flow-test-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "hydrant-flow-service"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		TargetResidualPsi:   target,
		CurveStepPsi:        step,
		FallbackCoefficient: fallback,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.TargetResidualPsi < 0 {
		return nil, errors.New("NFPA_TARGET_RESIDUAL_PSI must not be negative")
	}
	if cfg.CurveStepPsi <= 0 {
		return nil, errors.New("NFPA_CURVE_STEP_PSI must be greater than 0")
	}
	if cfg.FallbackCoefficient <= 0 {
		return nil, errors.New("NFPA_FALLBACK_COEFFICIENT must be greater than 0")
	}

	return cfg, nil
}

// Params returns the NFPA 291 defaults with this configuration's overrides applied.
func (c *Config) Params() domain.Params {
	p := domain.DefaultParams()
	p.TargetResidualPsi = c.TargetResidualPsi
	p.CurveStepPsi = c.CurveStepPsi
	p.FallbackCoefficient = c.FallbackCoefficient
	return p
}

func parseFloatEnv(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}
