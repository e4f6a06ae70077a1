package services

import "errors"

// Service-level errors. Handlers map these to HTTP responses with errors.Is.
var (
	// ErrNotAuthorized is returned for records that are missing or owned by
	// someone else; callers cannot tell the two apart.
	ErrNotAuthorized = errors.New("record not found")

	ErrInvalidProperty      = errors.New("invalid property")
	ErrInvalidFiscalYear    = errors.New("invalid fiscal year")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")

	ErrAIUnavailable       = errors.New("AI service is not configured")
	ErrUnparseableResponse = errors.New("could not parse AI response")
	ErrRelayFailed         = errors.New("failed to reach AI assistant")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password too short")
)
