package accounts

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// VerifyPassword reports whether password matches hash. It never fails,
// malformed hashes and empty input are a mismatch.
func VerifyPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return ComparePasswordAndHash(password, hash) == nil
}

// RandomPasswordHash is a hash of a random password nobody knows
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCompare spends the same work as a real verification so unknown
// accounts cannot be told apart by response time.
func burnPasswordCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash = RandomPasswordHash()
	})
	_ = VerifyPassword(password, dummyHash)
}
