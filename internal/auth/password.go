package auth

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var bcryptRx = regexp.MustCompile(`^\$2[ayb]\$`)

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsHashed reports whether a stored password is a bcrypt hash rather than a
// legacy plain-text value.
func IsHashed(stored string) bool {
	return bcryptRx.MatchString(stored)
}
