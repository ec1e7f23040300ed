package auth

import (
	"github.com/pkg/errors"

	"github.com/barnybug/homepanel/config"
)

var (
	// ErrMissingConfig is a required collaborator that was not supplied.
	ErrMissingConfig = config.ErrMissingConfig
	// ErrInvalidInput is a key outside the class the prompt expects.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAuthFailure is a PIN that does not match the stored record.
	ErrAuthFailure = errors.New("wrong password")
	// ErrSessionExpired means the session timer ran out while waiting for a key.
	ErrSessionExpired = errors.New("session expired")
	// ErrStorage is a credential read or write that failed.
	ErrStorage = errors.New("storage error")
)
