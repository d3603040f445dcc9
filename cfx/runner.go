package cfx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/codexflow/codexflow"
	"github.com/rivo/uniseg"
	"goa.design/clue/log"
)

// Runner executes the cf-x pipeline against a LiteLLM gateway.
type Runner struct {
	baseURL         string
	apiKey          string
	orchestratorURL string
	headers         map[string]string
	httpClient      *http.Client
}

// Option configures a [Runner].
type Option func(*Runner)

// WithOrchestratorURL overrides the orchestrator endpoint, which otherwise
// lives on port 3000 of the gateway host.
func WithOrchestratorURL(u string) Option {
	return func(r *Runner) { r.orchestratorURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Runner) { r.httpClient = hc }
}

// WithHeaders adds headers to every stage call.
func WithHeaders(h map[string]string) Option {
	return func(r *Runner) { r.headers = h }
}

// New creates a [Runner] for the gateway at baseURL. A trailing /v1 on
// baseURL is ignored.
func New(baseURL, apiKey string, opts ...Option) *Runner {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	base = strings.TrimSuffix(base, "/v1")
	r := &Runner{
		baseURL:    base,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	r.orchestratorURL = orchestratorFor(base)
	for _, o := range opts {
		o(r)
	}
	return r
}

// orchestratorFor places the orchestrator on port 3000 of the gateway host.
func orchestratorFor(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return defaultOrchestratorURL
	}
	return u.Scheme + "://" + net.JoinHostPort(u.Hostname(), orchestratorPort)
}

// strategy produces pipeline events through emit. emit returns false once
// the consumer has stopped listening.
type strategy func(ctx context.Context, task string, emit func(codexflow.Event) bool) error

// errStopped ends a strategy whose consumer went away. It is never
// surfaced to callers.
var errStopped = errors.New("cfx: consumer stopped")

// withFallback runs secondary when primary fails. Primary must not emit
// anything before it knows it will succeed. Cancellation is not retried.
func withFallback(primary, secondary strategy) strategy {
	return func(ctx context.Context, task string, emit func(codexflow.Event) bool) error {
		err := primary(ctx, task, emit)
		if err == nil || errors.Is(err, errStopped) || ctx.Err() != nil {
			return err
		}
		log.Warn(ctx, log.KV{K: "msg", V: "orchestrator not available, falling back to direct stage calls"}, log.KV{K: "err", V: err.Error()})
		return secondary(ctx, task, emit)
	}
}

// Stream runs the pipeline for task and returns its events: the pipeline
// text followed by one zero usage event.
func (r *Runner) Stream(ctx context.Context, task string) codexflow.Stream {
	return newStream(ctx, sequence(ctx, task, withFallback(r.orchestrated, r.direct)))
}

// Complete runs the pipeline for task and returns the full result text.
// Without the orchestrator the text is the stage [Report].
func (r *Runner) Complete(ctx context.Context, task string) (string, error) {
	var b strings.Builder
	err := withFallback(r.orchestrated, r.report)(ctx, task, func(evt codexflow.Event) bool {
		if td, ok := evt.(codexflow.EventTextDelta); ok {
			b.WriteString(td.Delta)
		}
		return true
	})
	if err != nil {
		return "", abortedOr(ctx, err)
	}
	return b.String(), nil
}

// orchestrated asks the orchestrator for the whole result, then streams it
// one grapheme cluster at a time.
func (r *Runner) orchestrated(ctx context.Context, task string, emit func(codexflow.Event) bool) error {
	text, err := r.callOrchestrator(ctx, task)
	if err != nil {
		return err
	}
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		if !emit(codexflow.EventTextDelta{Delta: g.Str()}) {
			return errStopped
		}
	}
	if !emit(codexflow.EventUsage{}) {
		return errStopped
	}
	return nil
}

// direct calls the stages in order, streaming a banner before each call and
// the stage's section after it.
func (r *Runner) direct(ctx context.Context, task string, emit func(codexflow.Event) bool) error {
	var results []StageResult
	for i, s := range stages {
		if !emit(codexflow.EventTextDelta{Delta: s.banner()}) {
			return errStopped
		}
		res, err := r.runStage(ctx, s, task, results)
		if err != nil {
			return &codexflow.PipelineError{Err: err}
		}
		results = append(results, res)

		text := s.section(res.Output)
		if i == len(stages)-1 {
			text += completionMarker
		}
		if !emit(codexflow.EventTextDelta{Delta: text}) {
			return errStopped
		}
	}
	if !emit(codexflow.EventUsage{}) {
		return errStopped
	}
	return nil
}

// report calls the stages in order and emits the combined report once.
func (r *Runner) report(ctx context.Context, task string, emit func(codexflow.Event) bool) error {
	var results []StageResult
	for _, s := range stages {
		res, err := r.runStage(ctx, s, task, results)
		if err != nil {
			return &codexflow.PipelineError{Err: err}
		}
		results = append(results, res)
	}
	if !emit(codexflow.EventTextDelta{Delta: Report(results)}) {
		return errStopped
	}
	return nil
}
