package config

import (
	"os"
	"strings"
)

// Credentials is the single operator account allowed through the login gate.
// PasswordHash is a bcrypt hash, see cmd/hash-password.
type Credentials struct {
	Username     string
	PasswordHash string
}

// GetCredentials reads ITEFM_USERNAME and ITEFM_PASSWORD_HASH. ok is false
// when either is missing, in which case every login is refused.
func GetCredentials() (Credentials, bool) {
	c := Credentials{
		Username:     strings.TrimSpace(os.Getenv("ITEFM_USERNAME")),
		PasswordHash: strings.TrimSpace(os.Getenv("ITEFM_PASSWORD_HASH")),
	}
	return c, c.Username != "" && c.PasswordHash != ""
}
