package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

// Executor runs one statement per call against the configured database.
// Sessions are drawn from the handle's pool and released on every exit path.
type Executor struct {
	db  *sqlx.DB
	log *slog.Logger
}

// New creates an Executor over an open database handle.
func New(db *sqlx.DB, log *slog.Logger) *Executor {
	return &Executor{db: db, log: log}
}

// Health checks database connectivity.
func (e *Executor) Health(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// Execute runs a single autocommitted statement and returns its result.
// Failures are classified here, nearest to the source; every error leaving
// this method is a *domain.ExecutionError.
func (e *Executor) Execute(ctx context.Context, query string, params map[string]any) (*domain.QueryResult, error) {
	start := time.Now()
	e.log.Debug("executing statement", "statement", Truncate(query, 100))

	bound, args, err := bind(e.db, query, params)
	if err != nil {
		return nil, domain.NewExecutionError(domain.KindSyntax, fmt.Errorf("parameter binding: %w", err))
	}

	var result *domain.QueryResult
	if returnsRows(bound) {
		result, err = e.query(ctx, bound, args)
	} else {
		result, err = e.exec(ctx, bound, args)
	}
	if err != nil {
		return nil, Classify(err)
	}

	result.ExecutionTime = time.Since(start).Seconds()
	result.Timestamp = time.Now()
	return result, nil
}

func (e *Executor) query(ctx context.Context, query string, args []any) (*domain.QueryResult, error) {
	rows, err := e.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	// Materialize all rows before the session is released; this proxy does
	// not stream partial result sets.
	data := make([][]any, 0)
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, cell := range row {
			row[i] = normalizeCell(cell)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Columns:      cols,
		Data:         data,
		RowsAffected: int64(len(data)),
	}, nil
}

func (e *Executor) exec(ctx context.Context, query string, args []any) (*domain.QueryResult, error) {
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Columns:      []string{},
		Data:         [][]any{},
		RowsAffected: affected,
	}, nil
}

// bind expands :name parameters to driver bindvars.
func bind(db *sqlx.DB, query string, params map[string]any) (string, []any, error) {
	if len(params) == 0 {
		return query, nil, nil
	}
	bound, args, err := sqlx.Named(query, params)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(bound), args, nil
}

// returnsRows decides the execution path from the statement head, the same
// way the reported driver cursor would: row-returning statements go through
// the query path, everything else reports an affected-row count.
func returnsRows(query string) bool {
	switch statementHead(query) {
	case "select", "with", "show", "explain", "values", "table":
		return true
	}
	return false
}

// statementHead returns the first keyword of a statement, lowercased,
// skipping leading whitespace, line and block comments, and parentheses
// around a wrapped subselect.
func statementHead(s string) string {
	i := 0
	for i < len(s) {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '(':
			i++
		case strings.HasPrefix(s[i:], "--"):
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return ""
			}
			i += nl + 1
		case strings.HasPrefix(s[i:], "/*"):
			// Block comments nest in Postgres.
			depth := 1
			i += 2
			for i < len(s) && depth > 0 {
				switch {
				case strings.HasPrefix(s[i:], "/*"):
					depth++
					i += 2
				case strings.HasPrefix(s[i:], "*/"):
					depth--
					i += 2
				default:
					i++
				}
			}
		default:
			j := i
			for j < len(s) && isKeywordByte(s[j]) {
				j++
			}
			return strings.ToLower(s[i:j])
		}
	}
	return ""
}

func isKeywordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// normalizeCell converts non-primitive cell values to their textual
// representation so results serialize the same through every cache backend.
func normalizeCell(v any) any {
	switch c := v.(type) {
	case time.Time:
		return c.Format(time.RFC3339Nano)
	case []byte:
		return string(c)
	default:
		return v
	}
}

// Truncate shortens a statement for logging, collapsing newlines. The cut
// lands on a rune boundary so multi-byte literals stay valid UTF-8.
func Truncate(query string, max int) string {
	s := strings.TrimSpace(strings.ReplaceAll(query, "\n", " "))
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
