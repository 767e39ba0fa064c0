package retry

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

func testConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		BackoffMultiple: 2.0,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRunSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (*domain.QueryResult, error) {
		calls++
		if calls <= 2 {
			return nil, domain.NewExecutionError(domain.KindConnection, errors.New("connection reset"))
		}
		return &domain.QueryResult{RowsAffected: 1}, nil
	}

	result, err := Run(context.Background(), discard(), testConfig(), op)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.RowsAffected != 1 {
		t.Errorf("RowsAffected = %d, want 1", result.RowsAffected)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (2 retries)", calls)
	}
}

func TestRunStopsImmediatelyOnSyntaxError(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (*domain.QueryResult, error) {
		calls++
		return nil, domain.NewExecutionError(domain.KindSyntax, errors.New("syntax error at or near"))
	}

	_, err := Run(context.Background(), discard(), testConfig(), op)
	if err == nil {
		t.Fatal("Run succeeded, want error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries)", calls)
	}

	var execErr *domain.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error is %T, want *domain.ExecutionError", err)
	}
	if execErr.Kind != domain.KindSyntax {
		t.Errorf("Kind = %v, want %v", execErr.Kind, domain.KindSyntax)
	}
	if execErr.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", execErr.Attempts)
	}
}

func TestRunExhaustsAttempts(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (*domain.QueryResult, error) {
		calls++
		return nil, domain.NewExecutionError(domain.KindTimeout, errors.New("i/o timeout"))
	}

	_, err := Run(context.Background(), discard(), testConfig(), op)
	if err == nil {
		t.Fatal("Run succeeded, want error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	var execErr *domain.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error is %T, want *domain.ExecutionError", err)
	}
	if execErr.Kind != domain.KindTimeout {
		t.Errorf("Kind = %v, want %v", execErr.Kind, domain.KindTimeout)
	}
	if execErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", execErr.Attempts)
	}
}

func TestRunWrapsUnclassifiedErrors(t *testing.T) {
	op := func(ctx context.Context) (*domain.QueryResult, error) {
		return nil, errors.New("plain failure")
	}

	_, err := Run(context.Background(), discard(), testConfig(), op)
	if domain.KindOf(err) != domain.KindUnknown {
		t.Errorf("KindOf = %v, want %v", domain.KindOf(err), domain.KindUnknown)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	op := func(ctx context.Context) (*domain.QueryResult, error) {
		calls++
		cancel()
		return nil, domain.NewExecutionError(domain.KindConnection, errors.New("connection refused"))
	}

	cfg := testConfig()
	cfg.InitialDelay = time.Hour // would hang if cancellation were ignored

	_, err := Run(ctx, discard(), cfg, op)
	if err == nil {
		t.Fatal("Run succeeded, want error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffProgression(t *testing.T) {
	cfg := Config{
		InitialDelay:    time.Second,
		MaxDelay:        5 * time.Second,
		BackoffMultiple: 2.0,
	}

	tests := []struct {
		attempt int
		expect  time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second}, // capped
	}

	for _, tt := range tests {
		if got := backoff(tt.attempt, cfg); got != tt.expect {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.expect)
		}
	}
}
