// File: /services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport means the backend could not be reached or answered with
	// something that is not an envelope.
	ErrTransport = errors.New("backend transport failure")
	// ErrBackend means the backend answered success:false.
	ErrBackend = errors.New("backend reported failure")
	// ErrInvalidResponse means the payload did not match the expected shape.
	ErrInvalidResponse = errors.New("invalid backend response")

	ErrUnauthenticated     = errors.New("not authenticated")
	ErrInteractionInFlight = errors.New("interaction already in flight")
	ErrLoadInFlight        = errors.New("load already in flight")
	ErrNoMorePages         = errors.New("no more pages")
	ErrInvalidContent      = errors.New("invalid content")
	ErrUnknownPost         = errors.New("post not loaded")
	ErrWorkspaceClosed     = errors.New("workspace closed")
)

// BackendError carries the backend's code and messages for a success:false
// envelope. It unwraps to ErrBackend.
type BackendError struct {
	Code    int
	Message string
	Detail  string
}

func (e *BackendError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	return fmt.Sprintf("backend error %d: %s", e.Code, msg)
}

func (e *BackendError) Unwrap() error {
	return ErrBackend
}

// UserMessage is the short text shown to the browser for a failed call.
func UserMessage(err error) string {
	var be *BackendError
	switch {
	case errors.As(err, &be):
		if be.Detail != "" {
			return be.Detail
		}
		if be.Message != "" {
			return be.Message
		}
		return "Request failed"
	case errors.Is(err, ErrInteractionInFlight):
		return "Please wait for the previous action to finish"
	case errors.Is(err, ErrLoadInFlight):
		return "Still loading"
	case errors.Is(err, ErrNoMorePages):
		return "No more posts"
	case errors.Is(err, ErrUnknownPost):
		return "Post not found"
	case errors.Is(err, ErrWorkspaceClosed):
		return "Session ended"
	case errors.Is(err, ErrInvalidContent):
		return err.Error()
	case errors.Is(err, ErrUnauthenticated):
		return "Please sign in"
	case errors.Is(err, ErrInvalidResponse), errors.Is(err, ErrTransport):
		return "Something went wrong"
	default:
		return "An unexpected error occurred"
	}
}
