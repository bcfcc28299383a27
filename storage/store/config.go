package store

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/onflow/certstore/module"
	"github.com/onflow/certstore/module/metrics"
)

// Config holds the optional collaborators of the consensus storage engine.
type Config struct {
	Log     zerolog.Logger
	Metrics module.ConsensusStorageMetrics
	Faults  *FaultPolicy

	// LoadRetries bounds the number of retries of the initial load after a transient
	// backend error; LoadBackoff is the initial delay between them, doubled each retry.
	LoadRetries uint64
	LoadBackoff time.Duration
}

// DefaultConfig returns a configuration without logging, metrics or faults.
func DefaultConfig() Config {
	return Config{
		Log:         zerolog.Nop(),
		Metrics:     metrics.NewNoopCollector(),
		Faults:      nil,
		LoadRetries: 3,
		LoadBackoff: 50 * time.Millisecond,
	}
}

type Option func(*Config)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Log = log
	}
}

func WithMetrics(collector module.ConsensusStorageMetrics) Option {
	return func(c *Config) {
		c.Metrics = collector
	}
}

func WithFaultPolicy(policy *FaultPolicy) Option {
	return func(c *Config) {
		c.Faults = policy
	}
}

func WithLoadRetry(retries uint64, backoff time.Duration) Option {
	return func(c *Config) {
		c.LoadRetries = retries
		c.LoadBackoff = backoff
	}
}
