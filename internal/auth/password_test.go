package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// All tests use bcrypt.MinCost; the hashing logic is identical, only
// slower, at production cost.
func newTestPasswordService() *PasswordService {
	return NewPasswordService(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("right-password")

	err := ps.Verify(hash, "wrong-password")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() error = %v, want ErrPasswordMismatch", err)
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	h1, _ := ps.Hash("password123")
	h2, _ := ps.Hash("password123")

	// bcrypt salts every hash, so equal inputs never produce equal output.
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
}

func TestHash_TooLong(t *testing.T) {
	ps := newTestPasswordService()

	_, err := ps.Hash(strings.Repeat("x", 73))
	if err == nil {
		t.Error("Hash() should reject passwords over 72 bytes")
	}
}

func TestNewPasswordService_CostOutOfRange(t *testing.T) {
	// Invalid costs fall back to the default rather than erroring; this is
	// boot-time configuration, and the default is always safe.
	ps := NewPasswordService(99)
	if ps.cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", ps.cost, DefaultBcryptCost)
	}
}
