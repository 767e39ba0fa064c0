package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown users and password mismatches,
	// so a caller cannot probe for valid usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTokenExpired means the token was valid but its lifetime has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed means the token structure or signature is invalid.
	ErrTokenMalformed = errors.New("token malformed")
)

// Authority issues and verifies bearer tokens for the query gateway.
// Tokens are stateless HS256 JWTs; verification is a pure function of the
// token, the signing key and the current time.
type Authority struct {
	store    CredentialStore
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewAuthority creates an Authority with the given signing key and token lifetime.
func NewAuthority(store CredentialStore, secret []byte, lifetime time.Duration) *Authority {
	return &Authority{
		store:    store,
		secret:   secret,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Issue validates the credentials and returns a signed token expiring
// lifetime from now.
func (a *Authority) Issue(username, password string) (string, error) {
	hash, err := a.store.Lookup(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.lifetime)),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns its subject.
// It has no side effects and keeps no server-side token state.
func (a *Authority) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
