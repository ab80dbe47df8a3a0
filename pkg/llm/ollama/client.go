package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/logging"
)

const (
	defaultBaseURL   = "http://127.0.0.1:11434"
	defaultModel     = "mistral"
	generateEndpoint = "/api/generate"
	versionEndpoint  = "/api/version"
)

var (
	errNoBaseURL = errors.New("ollama base URL not configured")
	errNoModel   = errors.New("ollama model name not configured")

	_ ai.Oracle = (*Client)(nil)
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the Ollama client.
type Option func(*Client)

// WithConfigManager injects a custom configuration manager.
func WithConfigManager(manager config.Manager) Option {
	return func(c *Client) {
		if manager != nil {
			c.config = manager
		}
	}
}

// WithLogger injects a custom logger implementation.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client httpDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Ollama base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithDefaultModel sets the model used when a call does not name one.
func WithDefaultModel(model string) Option {
	return func(c *Client) {
		if strings.TrimSpace(model) != "" {
			c.defaultModel = model
		}
	}
}

// Client is an ai.Oracle backed by the Ollama generate endpoint.
type Client struct {
	config     config.Manager
	logger     logging.Logger
	httpClient httpDoer

	baseURL      string
	defaultModel string
}

// NewClient creates a new Ollama-backed oracle.
func NewClient(opts ...Option) (ai.Oracle, error) {
	client := &Client{
		config: config.NewConfigManager(),
		logger: logging.NewAPILogger("ollama"),
		httpClient: &http.Client{
			// Local models can take minutes on a full context window;
			// per-call deadlines come from the caller's context.
			Timeout: 30 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	if strings.TrimSpace(client.baseURL) == "" {
		client.baseURL = client.resolveBaseURL()
	}
	if strings.TrimSpace(client.baseURL) == "" {
		return nil, errNoBaseURL
	}
	if client.defaultModel == "" {
		client.defaultModel = client.config.GetStringWithDefault("SYNOPSIS_MODEL_NAME", defaultModel)
	}

	return client, nil
}

// Generate sends prompt to /api/generate without streaming.
func (c *Client) Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Response, error) {
	model := c.resolveModelName(opts.ModelName)
	if model == "" {
		return nil, errNoModel
	}

	request := generateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: buildOptions(opts),
	}

	c.logger.Debug("ollama generate", "model", model, "prompt_chars", len(prompt))
	response, err := c.sendGenerate(ctx, request)
	if err != nil {
		return nil, err
	}
	if response.Error != "" {
		return nil, fmt.Errorf("ollama generate failed: %s", response.Error)
	}
	if strings.TrimSpace(response.Response) == "" {
		return nil, fmt.Errorf("ollama: %w", ai.ErrEmptyResponse)
	}

	result := &ai.Response{
		Text:           response.Response,
		Model:          response.Model,
		Duration:       time.Duration(response.TotalDuration),
		PromptTokens:   response.PromptEvalCount,
		ResponseTokens: response.EvalCount,
	}
	c.logger.Debug("ollama generate done", "model", response.Model,
		"prompt_tokens", response.PromptEvalCount, "response_tokens", response.EvalCount,
		"done_reason", response.DoneReason, "duration", result.Duration)
	return result, nil
}

// GetStatus reports the configured endpoint without contacting it.
func (c *Client) GetStatus() *ai.Status {
	return &ai.Status{
		Model:     c.defaultModel,
		Backend:   "ollama",
		Connected: true,
		Message:   fmt.Sprintf("Ollama configured (endpoint: %s)", c.baseURL),
	}
}

// Version asks the server for its version, which doubles as a reachability
// check.
func (c *Client) Version(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+versionEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	body, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	var v versionResponse
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("decoding ollama version: %w", err)
	}
	return v.Version, nil
}

// buildOptions maps generation options onto Ollama's options object. Only
// values that were set are sent, so server defaults apply otherwise.
func buildOptions(opts ai.Options) map[string]any {
	out := map[string]any{}
	for k, v := range opts.Extra {
		out[k] = v
	}
	if opts.Temperature != nil {
		out["temperature"] = *opts.Temperature
	}
	if opts.TopP != nil {
		out["top_p"] = *opts.TopP
	}
	if opts.TopK > 0 {
		out["top_k"] = opts.TopK
	}
	if opts.MaxTokens > 0 {
		out["num_predict"] = opts.MaxTokens
	}
	if opts.ContextWindow > 0 {
		out["num_ctx"] = opts.ContextWindow
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *Client) sendGenerate(ctx context.Context, req generateRequest) (*generateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generateEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var response generateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}
	return &response, nil
}

func (c *Client) do(httpReq *http.Request) ([]byte, error) {
	for key, values := range ai.DefaultHTTPHeaders() {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ollama response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ollama request failed: status %s: %s", resp.Status, string(body))
	}
	return body, nil
}

func (c *Client) resolveBaseURL() string {
	if env := strings.TrimSpace(c.config.GetStringWithDefault("SYNOPSIS_OLLAMA_BASE_URL", "")); env != "" {
		return strings.TrimRight(env, "/")
	}
	if env := strings.TrimSpace(c.config.GetStringWithDefault("OLLAMA_HOST", "")); env != "" {
		if strings.HasPrefix(env, "http://") || strings.HasPrefix(env, "https://") {
			return strings.TrimRight(env, "/")
		}
		return "http://" + strings.TrimRight(env, "/")
	}
	return defaultBaseURL
}

func (c *Client) resolveModelName(callModel string) string {
	if strings.TrimSpace(callModel) != "" {
		return callModel
	}
	return c.defaultModel
}
