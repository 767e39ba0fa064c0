package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/queryproxy/internal/core/domain"
	"github.com/vietddude/queryproxy/internal/metrics"
)

// Convenience queries behind /api/tables and /api/database-info.
const (
	tablesQuery = `SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		ORDER BY table_schema, table_name`

	databaseInfoQuery = `SELECT current_database() AS database_name,
		version() AS server_version,
		current_setting('server_version') AS product_version`
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail    string    `json:"detail"`
	ErrorType string    `json:"error_type"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body", "bad_request")
		return
	}

	token, err := s.issuer.Issue(r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("login").Inc()
		writeError(w, http.StatusUnauthorized, "incorrect username or password", string(domain.KindUnauthorized))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "ok",
		"timestamp": time.Now(),
	}
	status := http.StatusOK

	if err := s.health.Health(r.Context()); err != nil {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty", "bad_request")
		return
	}

	s.runQuery(w, r, req.Query, req.Params)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	s.runQuery(w, r, tablesQuery, nil)
}

func (s *Server) handleDatabaseInfo(w http.ResponseWriter, r *http.Request) {
	s.runQuery(w, r, databaseInfoQuery, nil)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "query history is disabled", "not_found")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error("history read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history", string(domain.KindUnknown))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// runQuery dispatches a statement through the gateway and shapes the response.
func (s *Server) runQuery(w http.ResponseWriter, r *http.Request, query string, params map[string]any) {
	result, err := s.handler.Handle(r.Context(), bearerToken(r), query, params)
	if err != nil {
		var execErr *domain.ExecutionError
		if !errors.As(err, &execErr) {
			execErr = domain.NewExecutionError(domain.KindUnknown, err)
		}
		writeError(w, statusForKind(execErr.Kind), execErr.Message, string(execErr.Kind))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// requireBearer guards endpoints that do not go through the gateway.
func (s *Server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.verifier.Verify(bearerToken(r)); err != nil {
			metrics.AuthFailuresTotal.WithLabelValues("token").Inc()
			writeError(w, http.StatusUnauthorized, "could not validate credentials", string(domain.KindUnauthorized))
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func statusForKind(kind domain.ErrorKind) int {
	if kind == domain.KindUnauthorized {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail, errorType string) {
	writeJSON(w, status, errorResponse{
		Detail:    detail,
		ErrorType: errorType,
		Timestamp: time.Now(),
	})
}
