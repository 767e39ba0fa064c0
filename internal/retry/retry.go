// Package retry wraps executor calls with classification-driven retry and
// exponential backoff. Each invocation is independent; no retry state is
// shared across calls.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/vietddude/queryproxy/internal/core/domain"
	"github.com/vietddude/queryproxy/internal/metrics"
)

// Config defines retry behavior. The backoff base and cap are configuration,
// not constants.
type Config struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxAttempts:     3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        30 * time.Second,
	BackoffMultiple: 2.0,
}

// Operation is a single execution attempt. Errors it returns are expected to
// be classified already.
type Operation func(ctx context.Context) (*domain.QueryResult, error)

// Run executes op, retrying transient failures with exponential backoff.
// Only Timeout and Connection classified errors are retried; everything else
// terminates immediately. After exhausting attempts the last classified error
// is returned, annotated with the attempt count.
func Run(ctx context.Context, log *slog.Logger, cfg Config, op Operation) (*domain.QueryResult, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr *domain.ExecutionError

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		var execErr *domain.ExecutionError
		if !errors.As(err, &execErr) {
			execErr = domain.NewExecutionError(domain.KindUnknown, err)
		}
		execErr.Attempts = attempt
		lastErr = execErr

		if !execErr.Kind.Retryable() || attempt == cfg.MaxAttempts {
			return nil, lastErr
		}

		delay := backoff(attempt, cfg)
		metrics.RetriesTotal.WithLabelValues(string(execErr.Kind)).Inc()
		log.Warn("transient failure, retrying",
			"kind", execErr.Kind,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"wait", delay,
		)

		select {
		case <-ctx.Done():
			return nil, lastErr
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// backoff returns the wait before the attempt following attemptNumber.
// Attempts are numbered from 1.
func backoff(attemptNumber int, cfg Config) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiple, float64(attemptNumber-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
