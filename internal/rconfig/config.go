// Package rconfig loads retry policy configuration from TOML files, the
// same format and library used for configuration elsewhere in this
// module's lineage, so operators can tune retry behavior without a
// rebuild.
package rconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/relaypoint/retry"
)

// PolicyConfig is the TOML-serializable shape of a SimpleRetryPolicy
// plus an exponential-with-jitter BackOffPolicy, the combination
// retryctl's demo commands use by default.
type PolicyConfig struct {
	MaxAttempts    int     `toml:"max_attempts"`
	InitialDelayMs int64   `toml:"initial_delay_ms"`
	MaxDelayMs     int64   `toml:"max_delay_ms"`
	Multiplier     float64 `toml:"multiplier"`
	CircuitBreaker bool    `toml:"circuit_breaker"`
	OpenTimeoutMs  int64   `toml:"open_timeout_ms"`
	ResetTimeoutMs int64   `toml:"reset_timeout_ms"`
}

// DefaultPolicyConfig returns the configuration retryctl falls back to
// when no file is given: 3 attempts, 100ms initial delay doubling up to
// 10s, jittered one-sided per step, no circuit breaker.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MaxAttempts:    3,
		InitialDelayMs: 100,
		MaxDelayMs:     10_000,
		Multiplier:     2.0,
	}
}

// Load reads a PolicyConfig from a TOML file at path.
func Load(path string) (PolicyConfig, error) {
	cfg := DefaultPolicyConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return PolicyConfig{}, fmt.Errorf("rconfig: decoding %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg PolicyConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rconfig: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("rconfig: encoding %s: %w", path, err)
	}
	return nil
}

// BackOff builds the BackOffPolicy described by cfg.
func (c PolicyConfig) BackOff() retry.BackOffPolicy {
	return retry.NewExponentialBackOffWithJitterPolicy(
		time.Duration(c.InitialDelayMs)*time.Millisecond,
		c.Multiplier,
		time.Duration(c.MaxDelayMs)*time.Millisecond,
	)
}

// RetryPolicy builds the RetryPolicy described by cfg, wrapping it in a
// CircuitBreakerRetryPolicy when CircuitBreaker is set.
func (c PolicyConfig) RetryPolicy() retry.RetryPolicy {
	base := retry.NewMaxAttemptsPolicy(c.MaxAttempts)
	if !c.CircuitBreaker {
		return base
	}
	return retry.NewCircuitBreakerRetryPolicy(
		base,
		time.Duration(c.OpenTimeoutMs)*time.Millisecond,
		time.Duration(c.ResetTimeoutMs)*time.Millisecond,
	)
}

// Template builds a ready-to-use retry.Template from cfg.
func (c PolicyConfig) Template() *retry.Template {
	return retry.NewTemplate(c.RetryPolicy(), c.BackOff())
}
