package accounts

import "errors"

var (
	ErrMFAUnavailable = errors.New("mfa requires encryption key")
	ErrMFANotSetUp    = errors.New("mfa setup required")
)
