package kafka

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the consumer group settings. Fields carry env tags so a worker
// binary can be configured without flag plumbing.
type Config struct {
	Brokers       []string      `env:"PROJECTIONS_KAFKA_BROKERS" envSeparator:","`
	GroupID       string        `env:"PROJECTIONS_KAFKA_GROUP_ID"`
	Topic         string        `env:"PROJECTIONS_KAFKA_TOPIC"`
	BatchSize     int           `env:"PROJECTIONS_KAFKA_BATCH_SIZE" envDefault:"100"`
	BatchInterval time.Duration `env:"PROJECTIONS_KAFKA_BATCH_INTERVAL" envDefault:"1s"`
}

// ConfigFromEnv loads consumer configuration from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka brokers not configured")
	}
	if c.GroupID == "" {
		return errors.New("kafka group id not configured")
	}
	if c.Topic == "" {
		return errors.New("kafka topic not configured")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.BatchInterval <= 0 {
		return errors.New("batch interval must be positive")
	}
	return nil
}

// SplitBrokers turns a comma-separated broker list into the slice form the
// reader wants, dropping empty entries.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
