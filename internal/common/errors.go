// Package common defines shared constants, sentinel errors and small random
// helpers used across the signup service. Callers should use errors.Is to
// match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Credential validation errors.
	ErrMissingField    = errors.New("missing field")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")

	// Session errors.
	ErrSessionCreation = errors.New("session creation failed")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSessionExpired  = errors.New("session expired")
)
