package auth

import "errors"

// ErrUnknownUser is returned by a CredentialStore when the username is not configured.
var ErrUnknownUser = errors.New("unknown user")

// CredentialStore resolves a username to its stored bcrypt password hash.
// A real deployment backs this with a user directory; the proxy ships with
// a single configured principal.
type CredentialStore interface {
	Lookup(username string) ([]byte, error)
}

// StaticStore holds the one principal configured for the proxy.
type StaticStore struct {
	username string
	hash     []byte
}

// NewStaticStore creates a store for a single username/bcrypt-hash pair.
func NewStaticStore(username, bcryptHash string) *StaticStore {
	return &StaticStore{username: username, hash: []byte(bcryptHash)}
}

func (s *StaticStore) Lookup(username string) ([]byte, error) {
	if username != s.username {
		return nil, ErrUnknownUser
	}
	return s.hash, nil
}
