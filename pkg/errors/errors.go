package pairlock_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrValidation    = errors.New("validation failed")
	ErrTooLarge      = errors.New("file too large")
	ErrDecryptFailed = errors.New("message unavailable")
	ErrAlreadyExists = errors.New("already exists")
	ErrStorage       = errors.New("storage failure")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
