package utils

import (
	"crypto/subtle"

	"github.com/mmdatafocus/itefm_backend/config"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}

// CheckCredentials validates a login against the configured account.
func CheckCredentials(username, password string) error {
	creds, ok := config.GetCredentials()
	if !ok {
		return ErrCredentialsNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(creds.Username)) != 1 {
		return ErrInvalidCredentials
	}
	if err := ComparePassword(creds.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
