package services

import "errors"

// Analytics service errors
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
	ErrStoreClosed     = errors.New("session store closed")

	// Query errors
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownTable = errors.New("unknown export table")
)
