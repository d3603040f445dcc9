package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/codexflow/codexflow"
	"github.com/codexflow/codexflow/cfx"
	"github.com/codexflow/codexflow/quirks"
	"github.com/google/uuid"
	"goa.design/clue/log"
)

// Interface compliance checks.
var (
	_ codexflow.Provider  = (*Client)(nil)
	_ codexflow.Completer = (*Client)(nil)
)

// Client implements [codexflow.Provider] and [codexflow.Completer] against a
// LiteLLM gateway.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	info            *codexflow.ModelInfo
	temperature     *float64
	promptCache     bool
	quirks          *quirks.Registry
	orchestratorURL string
	version         string
	httpClient      *http.Client
	pipeline        *cfx.Runner

	mu        sync.Mutex
	catalog   map[string]codexflow.ModelInfo
	fetchedAt time.Time
}

// catalogTTL bounds how long a fetched model catalog is reused.
const catalogTTL = 5 * time.Minute

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the gateway base URL. The URL is normalized, so
// "http://host:4000/v1/" and "http://host:4000" are equivalent.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = NormalizeBaseURL(url) }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model used when a request does not name one.
func WithModel(id string) Option {
	return func(c *Client) { c.model = id }
}

// WithModelInfo pins the model descriptor and skips the gateway catalog.
func WithModelInfo(info codexflow.ModelInfo) Option {
	return func(c *Client) { c.info = &info }
}

// WithTemperature sets the temperature used when a request carries none.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = &t }
}

// WithPromptCache enables cache_control annotations for models whose
// descriptor supports prompt caching.
func WithPromptCache(enabled bool) Option {
	return func(c *Client) { c.promptCache = enabled }
}

// WithQuirks replaces the default quirks registry.
func WithQuirks(r *quirks.Registry) Option {
	return func(c *Client) { c.quirks = r }
}

// WithOrchestratorURL overrides the cf-x orchestrator endpoint.
func WithOrchestratorURL(url string) Option {
	return func(c *Client) { c.orchestratorURL = url }
}

// WithVersion sets the version reported in the User-Agent header.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// New creates a [Client]. An empty apiKey is replaced by a placeholder,
// since local gateways usually run without authentication.
func New(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		apiKey = defaultAPIKey
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		quirks:     quirks.Default(),
		version:    "dev",
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}

	pipeOpts := []cfx.Option{
		cfx.WithHTTPClient(c.httpClient),
		cfx.WithHeaders(c.defaultHeaders()),
	}
	if c.orchestratorURL != "" {
		pipeOpts = append(pipeOpts, cfx.WithOrchestratorURL(c.orchestratorURL))
	}
	c.pipeline = cfx.New(c.baseURL, c.apiKey, pipeOpts...)
	return c
}

var (
	trailingSlashes = regexp.MustCompile(`/+$`)
	trailingV1      = regexp.MustCompile(`/v1/?$`)
)

// NormalizeBaseURL trims whitespace and strips trailing slashes and a
// trailing /v1 segment. An empty input yields the default gateway URL.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return defaultBaseURL
	}
	u = trailingSlashes.ReplaceAllString(u, "")
	return trailingV1.ReplaceAllString(u, "")
}

// BaseURL returns the normalized gateway URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stream sends a streaming chat completion request to the gateway and
// returns a [codexflow.Stream] that emits semantic events. The cf-x model
// ids run the three-stage pipeline instead.
func (c *Client) Stream(ctx context.Context, req codexflow.Request) (codexflow.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("litellm: %w", err)
	}

	model := c.modelID(req.Model)
	if cfx.IsPipelineModel(model) {
		log.Debug(ctx, log.KV{K: "msg", V: "dispatching to cf-x pipeline"}, log.KV{K: "model", V: model})
		return c.pipeline.Stream(ctx, cfx.TaskFromMessages(req.Messages)), nil
	}

	info := c.modelInfo(ctx, model)
	body, err := json.Marshal(c.buildRequest(model, info, req))
	if err != nil {
		return nil, fmt.Errorf("litellm: %w", err)
	}

	resp, err := c.post(ctx, c.baseURL+chatPath, body, model)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body, info), nil
}

// post sends a JSON body with the gateway headers. Transport failures
// caused by cancellation are reported as [codexflow.ErrRequestAborted].
func (c *Client) post(ctx context.Context, url string, body []byte, model string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("litellm: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	id := c.setHeaders(httpReq)

	log.Debug(ctx, log.KV{K: "msg", V: "chat completion"}, log.KV{K: "model", V: model}, log.KV{K: "request_id", V: id})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("litellm: %w: %w", codexflow.ErrRequestAborted, ctx.Err())
		}
		return nil, fmt.Errorf("litellm: %w", err)
	}
	return resp, nil
}

// setHeaders applies auth, the default headers and a fresh request id,
// which it returns.
func (c *Client) setHeaders(r *http.Request) string {
	r.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.defaultHeaders() {
		r.Header.Set(k, v)
	}
	id := uuid.NewString()
	r.Header.Set("X-Request-Id", id)
	return id
}

func (c *Client) defaultHeaders() map[string]string {
	return map[string]string{
		"HTTP-Referer": referer,
		"X-Title":      title,
		"User-Agent":   title + "/" + c.version,
	}
}

// modelID picks the request model, then the client model, then the default.
func (c *Client) modelID(requested string) string {
	switch {
	case requested != "":
		return requested
	case c.model != "":
		return c.model
	default:
		return codexflow.DefaultModelID
	}
}

// modelInfo resolves the descriptor for model. Catalog failures and
// unknown models fall back to [codexflow.DefaultModelInfo].
func (c *Client) modelInfo(ctx context.Context, model string) codexflow.ModelInfo {
	if c.info != nil {
		return *c.info
	}
	catalog, err := c.cachedModels(ctx)
	if err != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "model catalog unavailable, using default descriptor"}, log.KV{K: "err", V: err.Error()})
		return codexflow.DefaultModelInfo
	}
	info, ok := catalog[model]
	if !ok {
		log.Debug(ctx, log.KV{K: "msg", V: "model not in catalog, using default descriptor"}, log.KV{K: "model", V: model})
		return codexflow.DefaultModelInfo
	}
	return info
}

// cachedModels returns the catalog, fetching it when absent or older than
// catalogTTL. Failed fetches are not cached.
func (c *Client) cachedModels(ctx context.Context) (map[string]codexflow.ModelInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog != nil && time.Since(c.fetchedAt) < catalogTTL {
		return c.catalog, nil
	}
	catalog, err := c.Models(ctx)
	if err != nil {
		return nil, err
	}
	c.catalog, c.fetchedAt = catalog, time.Now()
	return catalog, nil
}
