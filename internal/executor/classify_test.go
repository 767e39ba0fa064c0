package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		err    error
		expect domain.ErrorKind
	}{
		{context.DeadlineExceeded, domain.KindTimeout},
		{errors.New("i/o timeout"), domain.KindTimeout},
		{&pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}, domain.KindTimeout},
		{errors.New("dial tcp: connection refused"), domain.KindConnection},
		{errors.New("read: connection reset by peer"), domain.KindConnection},
		{errors.New("driver: bad connection"), domain.KindConnection},
		{&pgconn.PgError{Code: "08006", Message: "connection failure"}, domain.KindConnection},
		{&pgconn.PgError{Code: "42601", Message: "syntax error at or near"}, domain.KindSyntax},
		{&pgconn.PgError{Code: "42P01", Message: `relation "no_such_table" does not exist`}, domain.KindSyntax},
		{errors.New(`relation "no_such_table" does not exist`), domain.KindSyntax},
		{&pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, domain.KindAuth},
		{errors.New("pq: password authentication failed for user"), domain.KindAuth},
		{errors.New("something odd happened"), domain.KindUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.err).Kind; got != tt.expect {
			t.Errorf("Classify(%q).Kind = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	orig := domain.NewExecutionError(domain.KindSyntax, errors.New("syntax error"))

	got := Classify(fmt.Errorf("executing: %w", orig))
	if got != orig {
		t.Errorf("Classify returned %v, want the original classified error", got)
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestRetryableKinds(t *testing.T) {
	tests := []struct {
		kind      domain.ErrorKind
		retryable bool
	}{
		{domain.KindTimeout, true},
		{domain.KindConnection, true},
		{domain.KindSyntax, false},
		{domain.KindAuth, false},
		{domain.KindUnknown, false},
		{domain.KindUnauthorized, false},
	}

	for _, tt := range tests {
		if got := tt.kind.Retryable(); got != tt.retryable {
			t.Errorf("%s.Retryable() = %v, want %v", tt.kind, got, tt.retryable)
		}
	}
}
