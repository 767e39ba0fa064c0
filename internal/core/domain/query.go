package domain

import "time"

// QueryRequest is a caller-supplied statement with optional named parameters.
// It is immutable once accepted by the gateway.
type QueryRequest struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params,omitempty"`
}

// QueryResult holds the tabular output of a single statement execution.
// Rows preserve database-returned order; Data is row-major.
// For row-returning statements RowsAffected equals len(Data).
type QueryResult struct {
	Columns       []string  `json:"columns"`
	Data          [][]any   `json:"data"`
	RowsAffected  int64     `json:"rows_affected"`
	ExecutionTime float64   `json:"execution_time"`
	Timestamp     time.Time `json:"timestamp"`
}
