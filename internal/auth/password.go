// Package auth hashes and checks officer passwords.
package auth

import (
	"github.com/myrjola/lettergen/internal/errors"
	"golang.org/x/crypto/bcrypt"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted for new credentials.
const MinPasswordLength = 6

var (
	ErrPasswordMismatch = errors.NewSentinel("password does not match")
	ErrWeakPassword     = errors.NewSentinel("password too short")
	ErrPasswordRequired = errors.NewSentinel("password required")
)

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return hash, nil
}

// CheckPassword reports ErrPasswordMismatch when password does not produce hash.
func CheckPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return errors.Wrap(ErrPasswordMismatch, "compare password")
	}
	return nil
}

// ValidateNewPassword checks a password chosen by an officer against its confirmation.
func ValidateNewPassword(password, confirmation string) error {
	switch {
	case password == "":
		return ErrPasswordRequired
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return ErrWeakPassword
	case password != confirmation:
		return ErrPasswordMismatch
	}
	return nil
}
