package codexflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrRequestAborted indicates the caller cancelled the request while
	// the response was streaming.
	ErrRequestAborted = errors.New("request was terminated or cancelled")

	// ErrStreamNotReady indicates Message() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// HTTPError is a non-2xx response from an upstream API, translated from the
// provider's error body.
type HTTPError struct {
	Provider   string
	StatusCode int    // 0 for errors delivered inside a stream
	Type       string // upstream error type or code, if any
	Message    string
}

func (e *HTTPError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("%s completion error: %s", e.Provider, e.Message)
	case e.Type != "":
		return fmt.Sprintf("%s completion error: HTTP %d: %s: %s", e.Provider, e.StatusCode, e.Type, e.Message)
	default:
		return fmt.Sprintf("%s completion error: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	}
}

// StageError reports a failed pipeline stage. StatusCode is set when the
// stage's HTTP call returned a non-success status; Err is set for transport
// or decoding failures.
type StageError struct {
	Stage      string
	StatusCode int
	Body       string
	Err        error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s step failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s step failed: HTTP %d: %s", e.Stage, e.StatusCode, e.Body)
}

func (e *StageError) Unwrap() error { return e.Err }

// PipelineError wraps any failure that aborted a pipeline run.
type PipelineError struct {
	Err error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("cf-x pipeline error: %v", e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
