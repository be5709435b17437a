package core

import (
	"errors"
	"strings"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("you do not have access to this resource, check your permissions")
	ErrNoToken      = errors.New("no authentication token received")
	ErrTransport    = errors.New("could not reach the server, try again")
	ErrNotFound     = errors.New("not found")
)

// GenericFailure is shown when the server gave no usable message.
const GenericFailure = "request failed"

// APIError is a non-success HTTP response from the remote API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return GenericFailure
	}
	return e.Message
}

// IsPasswordError reports whether the server rejected or asked for a
// database password.
func IsPasswordError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "password")
}

// UserMessage renders an error for inline display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	case errors.Is(err, ErrTransport):
		return ErrTransport.Error()
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
