package cfx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/codexflow/codexflow"
	"goa.design/clue/log"
)

type orchestratorRequest struct {
	Task string `json:"task"`
}

type orchestratorResponse struct {
	Formatted string `json:"formatted"`
	Result    *struct {
		Plan   string `json:"plan"`
		Code   string `json:"code"`
		Review string `json:"review"`
	} `json:"result"`
}

// text returns the formatted result, or assembles one from the parts.
func (o orchestratorResponse) text() string {
	if o.Formatted != "" {
		return o.Formatted
	}
	var plan, code, review string
	if o.Result != nil {
		plan, code, review = o.Result.Plan, o.Result.Code, o.Result.Review
	}
	return fmt.Sprintf("📋 PLAN:\n%s\n\n💻 CODE:\n%s\n\n🔍 REVIEW:\n%s", plan, code, review)
}

type stageRequest struct {
	Model       string         `json:"model"`
	Messages    []stageMessage `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
}

type stageMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type stageResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s stageResponse) content() string {
	if len(s.Choices) == 0 || s.Choices[0].Message.Content == nil {
		return ""
	}
	return *s.Choices[0].Message.Content
}

// callOrchestrator posts the task to the orchestrator. Any failure,
// including a non-2xx status, is returned so the caller can fall back.
func (r *Runner) callOrchestrator(ctx context.Context, task string) (string, error) {
	body, err := json.Marshal(orchestratorRequest{Task: task})
	if err != nil {
		return "", fmt.Errorf("cfx: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.orchestratorURL+orchestratorPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("cfx: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cfx: orchestrator: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("cfx: orchestrator: HTTP %d", resp.StatusCode)
	}

	var out orchestratorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("cfx: orchestrator: %w", err)
	}
	return out.text(), nil
}

// runStage calls one stage through the gateway.
func (r *Runner) runStage(ctx context.Context, s stage, task string, prior []StageResult) (StageResult, error) {
	body, err := json.Marshal(stageRequest{
		Model: s.model,
		Messages: []stageMessage{
			{Role: "system", Content: s.system},
			{Role: "user", Content: s.prompt(task, prior)},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return StageResult{}, &codexflow.StageError{Stage: s.name, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+stagePath, bytes.NewReader(body))
	if err != nil {
		return StageResult{}, &codexflow.StageError{Stage: s.name, Err: err}
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	log.Debug(ctx, log.KV{K: "msg", V: "stage started"}, log.KV{K: "stage", V: s.name}, log.KV{K: "model", V: s.model})

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return StageResult{}, &codexflow.StageError{Stage: s.name, Err: abortedOr(ctx, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return StageResult{}, &codexflow.StageError{
			Stage:      s.name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var out stageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return StageResult{}, &codexflow.StageError{Stage: s.name, Err: err}
	}
	text := out.content()
	if text == "" {
		text = s.empty
	}

	log.Debug(ctx, log.KV{K: "msg", V: "stage finished"}, log.KV{K: "stage", V: s.name}, log.KV{K: "bytes", V: len(text)})
	return StageResult{Stage: s.name, Model: s.model, Output: text}, nil
}

// abortedOr reports err as an aborted request when ctx is done.
func abortedOr(ctx context.Context, err error) error {
	if cause := ctx.Err(); cause != nil {
		return fmt.Errorf("cfx: %w: %w", codexflow.ErrRequestAborted, cause)
	}
	return err
}
