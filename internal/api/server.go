// Package api exposes the query gateway to the presentation shell over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/queryproxy/internal/core/domain"
	"github.com/vietddude/queryproxy/internal/history"
)

// TokenIssuer exchanges credentials for a bearer token.
type TokenIssuer interface {
	Issue(username, password string) (string, error)
}

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// QueryHandler runs a statement through the full pipeline.
type QueryHandler interface {
	Handle(ctx context.Context, token, query string, params map[string]any) (*domain.QueryResult, error)
}

// HealthChecker reports database connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HistorySource reads back the query history log.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// Server provides the HTTP surface of the proxy.
type Server struct {
	issuer   TokenIssuer
	verifier TokenVerifier
	handler  QueryHandler
	health   HealthChecker
	history  HistorySource // optional
	server   *http.Server
	log      *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
// historySource may be nil when the history log is disabled.
func NewServer(issuer TokenIssuer, verifier TokenVerifier, handler QueryHandler, health HealthChecker, historySource HistorySource, port int, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		issuer:   issuer,
		verifier: verifier,
		handler:  handler,
		health:   health,
		history:  historySource,
		log:      log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: withRequestID(withLogging(log, mux)),
		},
	}

	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/tables", s.handleTables)
	mux.HandleFunc("GET /api/database-info", s.handleDatabaseInfo)
	mux.HandleFunc("GET /api/history", s.requireBearer(s.handleHistory))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routing tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
