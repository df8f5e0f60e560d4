package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential signals that a required API key is not configured.
	ErrMissingCredential = errors.New("missing credential")
	// ErrAuthenticationFailed signals a token issuer failure.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrMalformedResponse signals a search response body that is not a JSON array.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrImageDecode signals an undecodable thumbnail payload.
	ErrImageDecode = errors.New("image decode failed")
	// ErrAPIRequest signals a failed search API request.
	ErrAPIRequest = errors.New("api request failed")
)

// APIError wraps ErrAPIRequest with the HTTP status and server message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", ErrAPIRequest.Error(), e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrAPIRequest.Error(), e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPIRequest }

// NewAPIError creates an API error for a non-success response.
func NewAPIError(statusCode int, message string) error {
	return &APIError{StatusCode: statusCode, Message: message}
}
