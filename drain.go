package codexflow

import "io"

// Drain reads stream to the end, forwarding each event to onEvent when it
// is non-nil, and returns the assembled message. On a stream error the
// partial message is returned together with the error. Drain does not close
// the stream.
func Drain(stream Stream, onEvent func(Event)) (AssistantMessage, error) {
	var streamErr error
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		if onEvent != nil {
			onEvent(evt)
		}
	}

	msg, msgErr := stream.Message()
	if streamErr != nil {
		return msg, streamErr
	}
	if msgErr != nil {
		return msg, msgErr
	}
	return msg, nil
}
