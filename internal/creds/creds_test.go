package creds

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewStore(map[string]string{"alice": string(hash)})
}

func TestVerifyMatchingPassword(t *testing.T) {
	s := testStore(t)
	require.True(t, s.Verify("alice", "correct horse"))
}

func TestVerifyWrongPassword(t *testing.T) {
	s := testStore(t)
	require.False(t, s.Verify("alice", "battery staple"))
	require.False(t, s.Verify("alice", ""))
}

func TestVerifyUnknownUser(t *testing.T) {
	s := testStore(t)
	require.False(t, s.Verify("bob", "correct horse"))
	require.False(t, s.Verify("", "correct horse"))
}

func TestVerifyMalformedStoredHash(t *testing.T) {
	s := NewStore(map[string]string{"alice": "not-a-bcrypt-hash"})
	require.False(t, s.Verify("alice", "anything"))
}

func TestStoreCopiesInput(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw1234567890"), bcrypt.MinCost)
	require.NoError(t, err)
	users := map[string]string{"alice": string(hash)}
	s := NewStore(users)
	// mutating the caller's map must not affect the store
	users["alice"] = "$2a$10$zzzzzzzzzzzzzzzzzzzzzz"
	require.True(t, s.Verify("alice", "pw1234567890"))
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("pw1234567890")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw1234567890")))
}

func TestDummyHashIsValidBcrypt(t *testing.T) {
	// the dummy comparison must exercise a real bcrypt run
	err := bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte("whatever"))
	require.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)
}
