package api

import "fmt"

// NetworkError means no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is a 401/403 from the backend. Callers holding the session
// manager refresh the credential and retry; everyone else surfaces it.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth error (%d)", e.Status)
}

// RateLimitError is a 429. Presented as "try again later", never retried in
// a loop.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "too many requests, please try again later"
}

// ServerError covers 5xx responses, unexpected statuses and malformed
// payloads.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}
