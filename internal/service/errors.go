package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check these with errors.Is; the API layer maps them to HTTP status
// codes.
var (
	// ErrInvalidCredentials indicates a login attempt with a wrong email or
	// password. Deliberately indistinguishable between the two cases.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrLaneDeleted indicates an operation targeted a soft-deleted
	// swimlane. API layer should map this to HTTP 404 Not Found.
	ErrLaneDeleted = errors.New("swimlane has been deleted")
)
