package cfx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/codexflow/codexflow"
)

// sequence adapts a strategy to an iterator. A strategy error is yielded
// as the final element.
func sequence(ctx context.Context, task string, run strategy) iter.Seq2[codexflow.Event, error] {
	return func(yield func(codexflow.Event, error) bool) {
		err := run(ctx, task, func(evt codexflow.Event) bool {
			return yield(evt, nil)
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(nil, err)
		}
	}
}

// stream implements [codexflow.Stream] over a pipeline iterator.
type stream struct {
	ctx   context.Context
	pull  func() (codexflow.Event, error, bool)
	stop  func()
	state codexflow.StreamState
	msg   codexflow.AssistantMessage
	text  strings.Builder
	err   error
}

// Interface compliance check.
var _ codexflow.Stream = (*stream)(nil)

func newStream(ctx context.Context, seq iter.Seq2[codexflow.Event, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: codexflow.StreamStateNew,
	}
}

// Next returns the next pipeline event, or io.EOF once the pipeline is done.
func (s *stream) Next() (codexflow.Event, error) {
	switch s.state {
	case codexflow.StreamStateComplete:
		return nil, io.EOF
	case codexflow.StreamStateError:
		return nil, s.err
	case codexflow.StreamStateClosed:
		return nil, fmt.Errorf("cfx: %w", codexflow.ErrStreamClosed)
	}

	if err := s.ctx.Err(); err != nil {
		s.fail(err)
		return nil, s.err
	}

	evt, err, ok := s.pull()
	if !ok {
		s.state = codexflow.StreamStateComplete
		s.msg.StopReason = codexflow.StopEndTurn
		s.msg.RawStopReason = "stop"
		return nil, io.EOF
	}
	if err != nil {
		s.fail(err)
		return nil, s.err
	}

	s.state = codexflow.StreamStateStreaming
	switch e := evt.(type) {
	case codexflow.EventTextDelta:
		s.text.WriteString(e.Delta)
	case codexflow.EventUsage:
		s.msg.Usage = e.Usage()
	}
	return evt, nil
}

func (s *stream) fail(err error) {
	s.stop()
	s.state = codexflow.StreamStateError
	s.err = abortedOr(s.ctx, err)
	if s.ctx.Err() != nil {
		s.msg.StopReason = codexflow.StopAborted
		s.msg.RawStopReason = "aborted"
		return
	}
	s.msg.StopReason = codexflow.StopError
	s.msg.RawStopReason = "error"
}

// State returns the current stream state.
func (s *stream) State() codexflow.StreamState {
	return s.state
}

// Message returns the pipeline text assembled so far.
func (s *stream) Message() (codexflow.AssistantMessage, error) {
	if s.state == codexflow.StreamStateNew {
		return codexflow.AssistantMessage{}, fmt.Errorf("cfx: %w", codexflow.ErrStreamNotReady)
	}
	msg := s.msg
	if s.text.Len() > 0 {
		msg.Content = []codexflow.ContentBlock{codexflow.TextBlock{Text: s.text.String()}}
	}
	return msg, nil
}

// Close stops the pipeline. Stages not yet started are never called.
func (s *stream) Close() error {
	if s.state != codexflow.StreamStateComplete && s.state != codexflow.StreamStateError {
		s.state = codexflow.StreamStateClosed
		s.msg.StopReason = codexflow.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	s.stop()
	return nil
}
