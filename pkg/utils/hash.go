package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no account exists so that a failed login
// costs the same bcrypt work whether or not the email is known.
var (
	dummyOnce sync.Once
	dummyHash []byte
)

// HashPassword hashes a plain password using bcrypt (salted, constant-time compare).
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}

// BurnPasswordCheck performs a comparison that always fails, for unknown accounts.
func BurnPasswordCheck(plain string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("speakerhub-unknown-account"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}
