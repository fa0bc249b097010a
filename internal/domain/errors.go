package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested track does not exist
	ErrNotFound = errors.New("track not found")

	// ErrServerOffline indicates the catalog server is unreachable
	ErrServerOffline = errors.New("catalog server is unreachable")

	// ErrMutationPending indicates the same action is already in flight
	ErrMutationPending = errors.New("operation already in progress")

	// ErrSuperseded indicates a newer request for the same view replaced this one
	ErrSuperseded = errors.New("request superseded by a newer one")

	// ErrNoAudio indicates the track has no audio file to play
	ErrNoAudio = errors.New("track has no audio file")
)

// ValidationSource tells where a validation failure was detected.
type ValidationSource int

const (
	// SourceClient is a pre-submit check that failed before any request.
	SourceClient ValidationSource = iota
	// SourceServer is a 400/422 rejection from the server.
	SourceServer
	// SourceResponse is a successful response whose body had the wrong shape.
	SourceResponse
)

// ValidationError reports input or payload that failed a schema check.
type ValidationError struct {
	Op      string
	Message string
	Details []string
	Source  ValidationSource
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Details, "; "))
		b.WriteString(")")
	}
	return b.String()
}

// TransportError reports a failed request: a non-2xx status that is not a
// validation or not-found response, or a body that could not be read.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a read that failed with err may succeed on
// another attempt. Only transport-level failures qualify.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrSuperseded) {
		return false
	}
	if errors.Is(err, ErrServerOffline) {
		return true
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == 0 || te.StatusCode >= 500 || te.StatusCode == 429
	}
	return false
}

// UserMessage converts err into a short message fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		switch ve.Source {
		case SourceResponse:
			return "Server sent an unexpected response"
		case SourceServer:
			return ve.Message
		default:
			if len(ve.Details) > 0 {
				return ve.Details[0]
			}
			return ve.Message
		}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return "Track not found"
	case errors.Is(err, ErrServerOffline):
		return "Cannot reach the catalog server"
	case errors.Is(err, ErrMutationPending):
		return "Please wait for the current operation to finish"
	case errors.Is(err, ErrNoAudio):
		return "Track has no audio file"
	}

	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return "Something went wrong"
}
