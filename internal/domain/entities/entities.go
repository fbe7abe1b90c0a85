// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "fmt"

// Status is the lifecycle state of the current submission.
// Exactly one request may be outstanding at a time.
type Status int

const (
	StatusIdle Status = iota
	StatusInFlight
	StatusSucceeded
	StatusFailed
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusInFlight:
		return "in-flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SessionState is a read-only snapshot of the controller's state.
// The credential and the image payload never leave the controller;
// the snapshot only reports their presence.
type SessionState struct {
	Status        Status
	HasImage      bool
	ImageName     string
	Question      string
	Answer        string
	Error         string
	Configured    bool
	HasCredential bool
	SubmissionID  string // ID of the most recent submit attempt, for the diagnostic trace
}

// GalleryImage describes one sample image available to the form.
type GalleryImage struct {
	Name string
	Path string
	Size int64
}

// Validation failure reasons, all detected locally before any request is sent.
const (
	ReasonSize              = "size"
	ReasonDecode            = "decode"
	ReasonMissingInput      = "missing-input"
	ReasonMissingCredential = "missing-credential"
)

// ValidationError is a locally detected input failure.
// Non-retryable without user correction.
type ValidationError struct {
	Reason string
	Err    error // underlying cause, set for decode failures
}

// Error surfaces the reason (and cause, if any) verbatim for display.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed (%s)", e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MalformedResponse marks a well-formed HTTP success whose body did not
// carry an answer at the expected position.
const MalformedResponse = "malformed-response"

// RequestError is a failure reported by (or about) the inference endpoint:
// a non-success HTTP status, or a success with an unexpected body shape.
type RequestError struct {
	StatusCode int
	Message    string // response body, status text, or MalformedResponse
}

// Error surfaces the status and message verbatim for display.
func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed: %s", e.Message)
}
