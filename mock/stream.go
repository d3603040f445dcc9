package mock

import (
	"io"

	"github.com/codexflow/codexflow"
)

// Interface compliance check.
var _ codexflow.Stream = (*Stream)(nil)

// Stream is a test double for codexflow.Stream.
// Set the function fields for the methods you need. NextFn and MessageFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because test code commonly calls defer stream.Close()
// and these methods rarely need custom behavior.
type Stream struct {
	NextFn    func() (codexflow.Event, error)
	StateFn   func() codexflow.StreamState
	MessageFn func() (codexflow.AssistantMessage, error)
	CloseFn   func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (codexflow.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() codexflow.StreamState {
	if s.StateFn == nil {
		return codexflow.StreamStateNew
	}
	return s.StateFn()
}

// Message delegates to MessageFn.
func (s *Stream) Message() (codexflow.AssistantMessage, error) {
	return s.MessageFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Replay returns a Stream that yields events in order, then err (io.EOF
// when err is nil). Message returns msg.
func Replay(msg codexflow.AssistantMessage, err error, events ...codexflow.Event) *Stream {
	if err == nil {
		err = io.EOF
	}
	i := 0
	return &Stream{
		NextFn: func() (codexflow.Event, error) {
			if i < len(events) {
				evt := events[i]
				i++
				return evt, nil
			}
			return nil, err
		},
		MessageFn: func() (codexflow.AssistantMessage, error) {
			return msg, nil
		},
	}
}
