package pki

import "errors"

// Error taxonomy shared by every command. Everything here is fatal to the
// current invocation; permission problems on the CA key are only warned about.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrCANotFound    = errors.New("ca not found")
	ErrSigningFailed = errors.New("signing failed")
)
