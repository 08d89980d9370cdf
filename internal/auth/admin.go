package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Admin is the single operator account allowed to trigger refreshes.
// PasswordHash is a bcrypt hash; an empty hash disables login.
type Admin struct {
	Username     string
	PasswordHash string
}

func (a Admin) Enabled() bool { return a.Username != "" && a.PasswordHash != "" }

func (a Admin) Verify(username, password string) error {
	if !a.Enabled() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) == 1
	// always run bcrypt so timing doesn't reveal the username
	pwErr := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	if !userOK || pwErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword is used by the CLI to produce a value for auth.admin_password_hash.
func HashPassword(password string) (string, error) {
	if len(password) < 8 || len(password) > 72 {
		return "", errors.New("password must be 8-72 chars")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
