package errors

import (
	"errors"
	"fmt"
)

// Common error types for the auth gateway
var (
	// Authentication errors
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Token errors
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrUndecodable     = errors.New("token payload undecodable")
	ErrWrongTokenType  = errors.New("wrong token type")
	ErrMissingIdentity = errors.New("token missing identity claims")

	// Session errors
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")

	// Backend errors
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrExchangeRejected   = errors.New("exchange rejected")
	ErrNoTokens           = errors.New("no tokens in backend response")
	ErrRefreshRejected    = errors.New("refresh rejected")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
