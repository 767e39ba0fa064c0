package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthority(t *testing.T, lifetime time.Duration) *Authority {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	store := NewStaticStore("admin", string(hash))
	return NewAuthority(store, []byte("test-secret"), lifetime)
}

func TestIssueAndVerify(t *testing.T) {
	a := newTestAuthority(t, 30*time.Minute)

	token, err := a.Issue("admin", "password")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	subject, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if subject != "admin" {
		t.Errorf("subject = %q, want %q", subject, "admin")
	}
}

func TestIssueRejectsBadCredentials(t *testing.T) {
	a := newTestAuthority(t, 30*time.Minute)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"unknown user", "root", "password"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Issue(tt.username, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Issue(%q, %q) = %v, want ErrInvalidCredentials", tt.username, tt.password, err)
			}
		})
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	a := newTestAuthority(t, 30*time.Minute)

	issued := time.Now()
	a.now = func() time.Time { return issued }

	token, err := a.Issue("admin", "password")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Still valid just before expiry.
	a.now = func() time.Time { return issued.Add(29 * time.Minute) }
	if _, err := a.Verify(token); err != nil {
		t.Fatalf("Verify before expiry failed: %v", err)
	}

	// Rejected after expiry.
	a.now = func() time.Time { return issued.Add(31 * time.Minute) }
	if _, err := a.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify after expiry = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	a := newTestAuthority(t, 30*time.Minute)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong signing key", forged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Verify(tt.token); !errors.Is(err, ErrTokenMalformed) {
				t.Errorf("Verify(%q) = %v, want ErrTokenMalformed", tt.token, err)
			}
		})
	}
}
