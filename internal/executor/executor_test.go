package executor

import (
	"database/sql"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
)

func TestBindNamedParams(t *testing.T) {
	db := sqlx.NewDb(new(sql.DB), "pgx")

	bound, args, err := bind(db, "SELECT * FROM t WHERE a = :a AND b = :b", map[string]any{"a": 1, "b": "x"})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if bound != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("bound = %q", bound)
	}
	if len(args) != 2 || args[0] != 1 || args[1] != "x" {
		t.Errorf("args = %v, want [1 x]", args)
	}
}

func TestBindWithoutParams(t *testing.T) {
	db := sqlx.NewDb(new(sql.DB), "pgx")

	const query = "SELECT version()"
	bound, args, err := bind(db, query, nil)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if bound != query {
		t.Errorf("bound = %q, want unchanged statement", bound)
	}
	if args != nil {
		t.Errorf("args = %v, want nil", args)
	}
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query  string
		expect bool
	}{
		{"SELECT * FROM users", true},
		{"  select 1", true},
		{"WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"EXPLAIN SELECT 1", true},
		{"SHOW server_version", true},
		{"VALUES (1), (2)", true},
		{"TABLE users", true},
		{"-- list tables\nSELECT * FROM information_schema.tables", true},
		{"/* planner hint */ SELECT 1", true},
		{"/* outer /* nested */ comment */ SELECT 1", true},
		{"(SELECT 1)", true},
		{"-- first\n-- second\nWITH t AS (SELECT 1) SELECT * FROM t", true},
		{"-- comment only, no statement", false},
		{"/* comment */ INSERT INTO users VALUES (1)", false},
		{"INSERT INTO users VALUES (1)", false},
		{"UPDATE users SET name = 'x'", false},
		{"DELETE FROM users", false},
		{"CREATE TABLE t (id int)", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := returnsRows(tt.query); got != tt.expect {
			t.Errorf("returnsRows(%q) = %v, want %v", tt.query, got, tt.expect)
		}
	}
}

func TestNormalizeCell(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		in     any
		expect any
	}{
		{"time", ts, "2025-03-01T12:30:00Z"},
		{"bytes", []byte("abc"), "abc"},
		{"string", "plain", "plain"},
		{"int", int64(42), int64(42)},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeCell(tt.in); got != tt.expect {
				t.Errorf("normalizeCell(%v) = %v, want %v", tt.in, got, tt.expect)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	long := "SELECT a, b, c FROM some_table WHERE a = 1 AND b = 2 AND c = 3 AND d = 4 AND e = 5 AND f = 6 AND g = 7"
	got := Truncate(long, 100)
	if len(got) != 103 {
		t.Errorf("Truncate length = %d, want 103", len(got))
	}

	if got := Truncate("SELECT\n1", 100); got != "SELECT 1" {
		t.Errorf("Truncate collapsed = %q, want %q", got, "SELECT 1")
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	// 'é' is two bytes; a byte-indexed cut at 9 would split it.
	got := Truncate("SELECT 'été' FROM t", 9)
	if !utf8.ValidString(got) {
		t.Fatalf("Truncate produced invalid UTF-8: %q", got)
	}
	if got != "SELECT '..." {
		t.Errorf("Truncate = %q, want %q", got, "SELECT '...")
	}
}
