package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrUploadFailed        = errors.New("document upload failed")
	ErrInsufficientBalance = errors.New("insufficient credit balance")
	ErrRequestFailed       = errors.New("request failed")
	ErrStreamFailed        = errors.New("generation stream failed")
	ErrPollTimeout         = errors.New("generation still running, check back later")
	ErrSessionExpired      = errors.New("session expired, sign in again")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("entity not found")
)

// RequestError is returned for any non-2xx API response. It carries the
// HTTP status and the server-supplied detail message (or an HTTP-derived
// fallback) and unwraps to the matching sentinel so callers classify with
// errors.Is.
type RequestError struct {
	Status int
	Detail string
}

func NewRequestError(status int, detail string) *RequestError {
	if detail == "" {
		detail = fmt.Sprintf("HTTP %d", status)
	}
	return &RequestError{Status: status, Detail: detail}
}

func (e *RequestError) Error() string { return e.Detail }

func (e *RequestError) Unwrap() error {
	switch e.Status {
	case 402:
		return ErrInsufficientBalance
	case 401, 403:
		return ErrNotAuthenticated
	default:
		return ErrRequestFailed
	}
}

// StreamError is a mid-stream error payload. It terminates the token
// sequence; tokens already delivered are not rolled back.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return e.Message }
func (e *StreamError) Unwrap() error { return ErrStreamFailed }
