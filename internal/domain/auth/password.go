package auth

import (
	"fmt"
	"math/rand/v2"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is assigned to every new account until the worker sets
// their own.
const DefaultPassword = "1234"

const MinPasswordLength = 4

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// NewCustomID returns a human-facing id of the form EP-dddd.
func NewCustomID() string {
	return fmt.Sprintf("EP-%04d", rand.IntN(10000))
}
