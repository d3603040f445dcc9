package litellm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codexflow/codexflow"
	"github.com/codexflow/codexflow/litellm"
	"github.com/stretchr/testify/require"
)

// testInfo is the descriptor pinned by most tests so no catalog call is made.
var testInfo = codexflow.ModelInfo{
	MaxTokens:           4096,
	ContextWindow:       128_000,
	SupportsImages:      true,
	SupportsPromptCache: true,
	SupportsNativeTools: true,
	InputPrice:          3,
	OutputPrice:         15,
	CacheWritesPrice:    3.75,
	CacheReadsPrice:     0.3,
}

// sseChunks writes each payload as an SSE data event, then [DONE].
func sseChunks(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
			if flusher != nil {
				flusher.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func userText(text string) codexflow.UserMessage {
	return codexflow.UserMessage{Content: []codexflow.ContentBlock{codexflow.TextBlock{Text: text}}}
}

func hiRequest() codexflow.Request {
	return codexflow.Request{Model: "test-model", Messages: []codexflow.Message{userText("Hi")}}
}

// streamFrom starts a stream against a server replaying chunks.
func streamFrom(t *testing.T, chunks ...string) codexflow.Stream {
	t.Helper()
	srv := httptest.NewServer(sseChunks(chunks...))
	t.Cleanup(srv.Close)
	client := litellm.New("test-key", litellm.WithBaseURL(srv.URL), litellm.WithModelInfo(testInfo))
	s, err := client.Stream(context.Background(), hiRequest())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// captureBody sends req and returns the decoded request body.
func captureBody(t *testing.T, req codexflow.Request, opts ...litellm.Option) map[string]interface{} {
	t.Helper()
	captured := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		captured <- b
		sseChunks()(w, r)
	}))
	t.Cleanup(srv.Close)

	opts = append([]litellm.Option{litellm.WithBaseURL(srv.URL), litellm.WithModelInfo(testInfo)}, opts...)
	client := litellm.New("test-key", opts...)
	s, err := client.Stream(context.Background(), req)
	require.NoError(t, err)
	_, err = codexflow.Drain(s, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(<-captured, &body))
	return body
}

func collectEvents(t *testing.T, s codexflow.Stream) []codexflow.Event {
	t.Helper()
	var events []codexflow.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}
