package litellm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/codexflow/codexflow"
)

const maxLineSize = 1 << 20

// stream implements [codexflow.Stream] by parsing chat.completion.chunk
// objects from an SSE response body.
//
// Chunks can yield several events (a placeholder plus tool-call fragments),
// so decoded events wait in a queue and Next hands them out one at a time.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	info    codexflow.ModelInfo
	state   codexflow.StreamState
	msg     codexflow.AssistantMessage
	err     error // terminal error, if any

	pending []codexflow.Event
	drained bool // wire finished; only queued events remain

	text       strings.Builder
	hasContent bool // any text event emitted, placeholder included
	hasText    bool // non-placeholder text emitted
	calls      map[int]*callState
	callOrder  []int
	usage      *apiUsage
	final      *apiResponseMessage // message object of the most recent chunk, if it carried one
}

// callState accumulates the fragments of one tool call.
type callState struct {
	id   string
	name string
	args strings.Builder
}

// Interface compliance check.
var _ codexflow.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, info codexflow.ModelInfo) *stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &stream{
		body:    body,
		scanner: scanner,
		ctx:     ctx,
		info:    info,
		state:   codexflow.StreamStateNew,
		calls:   make(map[int]*callState),
	}
}

// Next returns the next semantic event. Returns io.EOF after the usage
// event once the stream completes normally.
func (s *stream) Next() (codexflow.Event, error) {
	switch s.state {
	case codexflow.StreamStateComplete:
		return nil, io.EOF
	case codexflow.StreamStateError:
		return nil, s.err
	case codexflow.StreamStateClosed:
		return nil, fmt.Errorf("litellm: %w", codexflow.ErrStreamClosed)
	}

	for {
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			s.state = codexflow.StreamStateStreaming
			return evt, nil
		}
		if s.drained {
			s.state = codexflow.StreamStateComplete
			return nil, io.EOF
		}

		if err := s.ctx.Err(); err != nil {
			s.terminate(err)
			return nil, s.err
		}

		data, err := s.readData()
		if err == io.EOF {
			s.finish()
			continue
		}
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = codexflow.StreamStateStreaming
		if data == doneSentinel {
			s.finish()
			continue
		}
		if err := s.processChunk(data); err != nil {
			s.terminate(err)
			return nil, s.err
		}
	}
}

// State returns the current stream state.
func (s *stream) State() codexflow.StreamState {
	return s.state
}

// Message returns the assistant message assembled so far.
func (s *stream) Message() (codexflow.AssistantMessage, error) {
	if s.state == codexflow.StreamStateNew {
		return codexflow.AssistantMessage{}, fmt.Errorf("litellm: %w", codexflow.ErrStreamNotReady)
	}
	msg := s.msg
	if s.text.Len() > 0 {
		msg.Content = append(msg.Content, codexflow.TextBlock{Text: s.text.String()})
	}
	for _, idx := range s.callOrder {
		cs := s.calls[idx]
		raw := cs.args.String()
		if raw == "" {
			raw = "{}"
		}
		msg.Content = append(msg.Content, codexflow.ToolCallBlock{
			ID:        cs.id,
			Name:      cs.name,
			Arguments: json.RawMessage(raw),
		})
	}
	if s.state == codexflow.StreamStateComplete && msg.StopReason == "" {
		msg.StopReason = codexflow.StopEndTurn
	}
	return msg, nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != codexflow.StreamStateComplete && s.state != codexflow.StreamStateError {
		s.state = codexflow.StreamStateClosed
		s.msg.StopReason = codexflow.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	return s.body.Close()
}

// terminate records a terminal error. Failures while the context is done
// are reported as an aborted request.
func (s *stream) terminate(err error) {
	s.state = codexflow.StreamStateError
	if cause := s.ctx.Err(); cause != nil {
		s.err = fmt.Errorf("litellm: %w: %w", codexflow.ErrRequestAborted, cause)
		s.msg.StopReason = codexflow.StopAborted
		s.msg.RawStopReason = "aborted"
		return
	}
	s.err = err
	s.msg.StopReason = codexflow.StopError
	s.msg.RawStopReason = "error"
}

// readData returns the payload of the next SSE event. Only data lines
// matter for chat completions; event names and comments are skipped.
func (s *stream) readData() (string, error) {
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return dataBuf.String(), nil
			}
			continue
		}

		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(rest, " "))
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("litellm: %w", err)
	}
	if dataBuf.Len() > 0 {
		return dataBuf.String(), nil
	}
	return "", io.EOF
}

// processChunk decodes one chunk and queues the events it produces.
func (s *stream) processChunk(data string) error {
	var chunk apiChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return fmt.Errorf("litellm: failed to parse chunk: %w", err)
	}
	if chunk.Error != nil {
		return newHTTPError(0, chunk.Error)
	}

	s.final = nil
	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]

		if c := choice.Delta.Content; c != nil && *c != "" {
			s.hasContent = true
			s.hasText = true
			s.text.WriteString(*c)
			s.pending = append(s.pending, codexflow.EventTextDelta{Delta: *c})
		}

		if len(choice.Delta.ToolCalls) > 0 {
			if !s.hasContent {
				s.hasContent = true
				s.pending = append(s.pending, codexflow.EventTextDelta{})
			}
			for _, tc := range choice.Delta.ToolCalls {
				s.recordToolCall(tc)
				s.pending = append(s.pending, codexflow.EventToolCallPartial{
					Index:     tc.Index,
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				})
			}
		}

		if choice.Message != nil {
			s.final = choice.Message
		}
		if fr := choice.FinishReason; fr != nil && *fr != "" {
			s.msg.RawStopReason = *fr
			s.msg.StopReason = mapStopReason(*fr)
		}
	}

	if chunk.Usage != nil {
		s.usage = chunk.Usage
	}
	return nil
}

func (s *stream) recordToolCall(tc apiToolCallDelta) {
	cs, ok := s.calls[tc.Index]
	if !ok {
		cs = &callState{}
		s.calls[tc.Index] = cs
		s.callOrder = append(s.callOrder, tc.Index)
	}
	if tc.ID != "" {
		cs.id = tc.ID
	}
	if tc.Function.Name != "" {
		cs.name = tc.Function.Name
	}
	cs.args.WriteString(tc.Function.Arguments)
}

// finish runs once the wire is exhausted: it queues the tool-call notice
// when the model produced no text, then the single usage event.
func (s *stream) finish() {
	s.drained = true

	if !s.hasText && len(s.calls) > 0 {
		if names := s.toolCallNames(); len(names) > 0 {
			notice := "\n\n" + fmt.Sprintf(toolCallNotice, strings.Join(names, ", ")) + "\n"
			s.text.WriteString(notice)
			s.pending = append(s.pending, codexflow.EventTextDelta{Delta: notice})
		}
	}

	if s.usage != nil {
		evt := normalizeUsage(*s.usage, s.info)
		s.msg.Usage = evt.Usage()
		s.pending = append(s.pending, evt)
	}
}

// toolCallNames prefers the tool calls on the last chunk's message and falls
// back to the fragments seen on the wire.
func (s *stream) toolCallNames() []string {
	var names []string
	if s.final != nil {
		for _, tc := range s.final.ToolCalls {
			if tc.Function.Name != "" {
				names = append(names, tc.Function.Name)
			}
		}
	}
	if len(names) > 0 {
		return names
	}
	for _, idx := range s.callOrder {
		if name := s.calls[idx].name; name != "" {
			names = append(names, name)
		}
	}
	return names
}

func mapStopReason(raw string) codexflow.StopReason {
	switch raw {
	case "stop":
		return codexflow.StopEndTurn
	case "length":
		return codexflow.StopLength
	case "tool_calls", "function_call":
		return codexflow.StopToolUse
	case "content_filter":
		return codexflow.StopContentFilter
	default:
		return codexflow.StopUnknown
	}
}
