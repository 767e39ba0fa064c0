package executor

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

// Classify maps a raw driver or network failure to a classified error.
// Already-classified errors pass through unchanged. Unmatched errors default
// to Unknown and are still surfaced, never swallowed.
func Classify(err error) *domain.ExecutionError {
	if err == nil {
		return nil
	}

	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}

	return domain.NewExecutionError(classifyKind(err), err)
}

func classifyKind(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}

	// SQLSTATE classes from the server, when the driver reports one.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code)
	}

	// Driver and network failures carry no SQLSTATE; match message signatures.
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return domain.KindTimeout
	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "connection reset"),
		strings.Contains(s, "broken pipe"),
		strings.Contains(s, "unexpected eof"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "bad connection"):
		return domain.KindConnection
	case strings.Contains(s, "syntax error"),
		strings.Contains(s, "does not exist"):
		return domain.KindSyntax
	case strings.Contains(s, "authentication failed"),
		strings.Contains(s, "password authentication"):
		return domain.KindAuth
	}

	return domain.KindUnknown
}

// classifyCode maps a SQLSTATE to an error kind.
//
// 57014  query_canceled (statement timeout)
// 08xxx  connection exceptions
// 28xxx  invalid authorization
// 42xxx  syntax errors and undefined objects
// 3D/3F  undefined database/schema
func classifyCode(code string) domain.ErrorKind {
	if code == "57014" {
		return domain.KindTimeout
	}
	if len(code) < 2 {
		return domain.KindUnknown
	}
	switch code[:2] {
	case "08":
		return domain.KindConnection
	case "28":
		return domain.KindAuth
	case "42", "3D", "3F":
		return domain.KindSyntax
	}
	return domain.KindUnknown
}
