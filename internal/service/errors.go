package service

import "errors"

var (
	// ErrInvalidInput reports a request that fails validation before any
	// lookup or write happens.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials hides which part of a login was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownLanguage is returned for a language code outside LanguageOptions.
	ErrUnknownLanguage = errors.New("unknown language code")
)
