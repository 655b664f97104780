// Package creds holds the static credential table and verifies passwords
// against it. The table is built once at startup and never mutated, so
// concurrent reads need no synchronization.
package creds

import "golang.org/x/crypto/bcrypt"

// dummyHash is a valid bcrypt hash compared against when the username is
// unknown, so a lookup miss costs the same as a wrong password and does
// not leak which usernames exist.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type (
	Store struct {
		users map[string]string
	}
)

// NewStore copies the username to bcrypt-hash mapping into an immutable
// store.
func NewStore(users map[string]string) *Store {
	copied := make(map[string]string, len(users))
	for name, hash := range users {
		copied[name] = hash
	}
	return &Store{users: copied}
}

// Verify reports whether password matches the stored hash for username.
// Unknown usernames always return false after a constant-shape dummy
// comparison. The plaintext and the stored hash are never logged or
// returned.
func (s *Store) Verify(username, password string) bool {
	hash, ok := s.users[username]
	if !ok {
		bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword produces a bcrypt hash suitable for the users mapping in
// the config file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
