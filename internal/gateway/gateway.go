// Package gateway is the façade the presentation shell calls: it validates
// the bearer token, consults the result cache, and otherwise dispatches the
// statement through the retry-wrapped executor.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/queryproxy/internal/cache"
	"github.com/vietddude/queryproxy/internal/core/domain"
	"github.com/vietddude/queryproxy/internal/executor"
	"github.com/vietddude/queryproxy/internal/history"
	"github.com/vietddude/queryproxy/internal/metrics"
	"github.com/vietddude/queryproxy/internal/retry"
)

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// QueryExecutor runs one statement and returns a classified error on failure.
type QueryExecutor interface {
	Execute(ctx context.Context, query string, params map[string]any) (*domain.QueryResult, error)
}

// Recorder appends an execution to the query history.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) error
}

// Gateway wires the pipeline together. Each Handle call is independent; the
// only state shared between concurrent calls is the result cache.
type Gateway struct {
	verifier TokenVerifier
	executor QueryExecutor
	cache    cache.Store
	recorder Recorder // optional
	retryCfg retry.Config
	log      *slog.Logger
}

// New creates a Gateway. recorder may be nil to disable history.
func New(verifier TokenVerifier, exec QueryExecutor, store cache.Store, recorder Recorder, retryCfg retry.Config, log *slog.Logger) *Gateway {
	return &Gateway{
		verifier: verifier,
		executor: exec,
		cache:    store,
		recorder: recorder,
		retryCfg: retryCfg,
		log:      log,
	}
}

// Handle verifies the token, then serves the statement from cache or from a
// retry-wrapped execution. It returns either a complete QueryResult or a
// single classified error, never both and never a partial result.
//
// Cached responses are returned unchanged: their execution_time reflects the
// original run, not the lookup.
func (g *Gateway) Handle(ctx context.Context, token, query string, params map[string]any) (*domain.QueryResult, error) {
	if _, err := g.verifier.Verify(token); err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("token").Inc()
		return nil, domain.NewExecutionError(domain.KindUnauthorized, err)
	}

	key := cache.Key(query, params)
	result, found, err := g.cache.Get(ctx, key)
	if err != nil {
		// A broken cache backend degrades to a miss, never fails the query.
		g.log.Warn("cache read failed", "error", err)
	}
	if found {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
		g.log.Debug("result served from cache", "statement", executor.Truncate(query, 100))
		g.record(ctx, query, result, nil, true)
		return result, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	result, err = retry.Run(ctx, g.log, g.retryCfg, func(ctx context.Context) (*domain.QueryResult, error) {
		return g.executor.Execute(ctx, query, params)
	})
	if err != nil {
		var execErr *domain.ExecutionError
		if !errors.As(err, &execErr) {
			execErr = domain.NewExecutionError(domain.KindUnknown, err)
		}
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		metrics.QueryErrorsTotal.WithLabelValues(string(execErr.Kind)).Inc()
		g.log.Error("query failed",
			"kind", execErr.Kind,
			"attempts", execErr.Attempts,
			"statement", executor.Truncate(query, 100),
		)
		g.record(ctx, query, nil, execErr, false)
		return nil, execErr
	}

	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	metrics.QueryDuration.Observe(result.ExecutionTime)

	if err := g.cache.Put(ctx, key, result); err != nil {
		g.log.Warn("cache write failed", "error", err)
	}
	g.record(ctx, query, result, nil, false)

	return result, nil
}

func (g *Gateway) record(ctx context.Context, query string, result *domain.QueryResult, execErr *domain.ExecutionError, cached bool) {
	if g.recorder == nil {
		return
	}

	rec := history.Record{
		Statement: executor.Truncate(query, 1000),
		Status:    "ok",
		Cached:    cached,
	}
	if execErr != nil {
		rec.Status = "error"
		rec.ErrorKind = string(execErr.Kind)
	}
	if result != nil {
		rec.RowsAffected = result.RowsAffected
		rec.Duration = result.ExecutionTime
	}

	if err := g.recorder.Record(ctx, rec); err != nil {
		g.log.Warn("history record failed", "error", err)
	}
}
