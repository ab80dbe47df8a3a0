package lmstudio

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
	defaultBaseURL = "http://127.0.0.1:1234"
	chatEndpoint   = "/chat/completions"
	modelsEndpoint = "/models"
)

var (
	errNoChoices = errors.New("lm studio returned no choices")

	_ ai.Oracle = (*Client)(nil)
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the LM Studio client.
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

// WithBaseURL overrides the LM Studio base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = ensureV1Suffix(baseURL)
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

// Client is an ai.Oracle backed by LM Studio's OpenAI-compatible server.
type Client struct {
	config     config.Manager
	logger     logging.Logger
	httpClient httpDoer
	now        func() time.Time

	baseURL      string
	defaultModel string
}

// NewClient creates a new LM Studio-backed oracle.
func NewClient(opts ...Option) (ai.Oracle, error) {
	client := &Client{
		config:     config.NewConfigManager(),
		logger:     logging.NewAPILogger("lmstudio"),
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.baseURL == "" {
		client.baseURL = client.resolveBaseURL()
	}
	if client.defaultModel == "" {
		client.defaultModel = client.config.GetStringWithDefault("SYNOPSIS_MODEL_NAME", "")
	}

	return client, nil
}

// Generate sends prompt as a single user message. LM Studio reports no
// server timing, so Duration is the wall-clock round trip.
func (c *Client) Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Response, error) {
	req := chatRequest{
		Model:    c.resolveModelName(opts.ModelName),
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	c.applyGenerationConfig(&req, opts)

	start := c.now()
	resp, err := c.sendChat(ctx, req)
	if err != nil {
		return nil, err
	}
	elapsed := c.now().Sub(start)

	if len(resp.Choices) == 0 {
		return nil, errNoChoices
	}
	text := resp.Choices[0].Message.Content.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("lm studio: %w", ai.ErrEmptyResponse)
	}

	result := &ai.Response{Text: text, Model: resp.Model, Duration: elapsed}
	if resp.Usage != nil {
		result.PromptTokens = resp.Usage.PromptTokens
		result.ResponseTokens = resp.Usage.CompletionTokens
	}
	return result, nil
}

// GetStatus reports the configured endpoint.
func (c *Client) GetStatus() *ai.Status {
	return &ai.Status{
		Model:     c.defaultModel,
		Backend:   "lmstudio",
		Connected: true,
		Message:   fmt.Sprintf("LM Studio endpoint %s", c.baseURL),
	}
}

// Models lists the models the server has loaded.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var list modelList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding lm studio models: %w", err)
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *Client) applyGenerationConfig(req *chatRequest, opts ai.Options) {
	if opts.MaxTokens > 0 {
		maxTokens := opts.MaxTokens
		req.MaxTokens = &maxTokens
	}
	req.Temperature = opts.Temperature
	req.TopP = opts.TopP
	if opts.TopK > 0 {
		topK := opts.TopK
		req.TopK = &topK
	}
	if seed, ok := opts.Extra["seed"].(int); ok {
		req.Seed = &seed
	}
	if opts.ContextWindow > 0 {
		c.logger.Debug("context window is set when the model is loaded in LM Studio; ignoring num_ctx",
			"num_ctx", opts.ContextWindow)
	}
}

func (c *Client) sendChat(ctx context.Context, req chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding lm studio response: %w", err)
	}
	if response.Error != nil && response.Error.Message != "" {
		return nil, fmt.Errorf("lm studio error: %s", response.Error.Message)
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
		return nil, fmt.Errorf("lm studio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading lm studio response: %w", err)
	}
	c.logger.Debug("lmstudio response", "url", httpReq.URL.String(), "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("lm studio request failed: status %s: %s", resp.Status, string(body))
	}
	return body, nil
}

func (c *Client) resolveBaseURL() string {
	for _, key := range []string{"SYNOPSIS_LMSTUDIO_BASE_URL", "LMSTUDIO_BASE_URL", "LM_STUDIO_BASE_URL"} {
		if env := strings.TrimSpace(c.config.GetStringWithDefault(key, "")); env != "" {
			return ensureV1Suffix(env)
		}
	}
	return ensureV1Suffix(defaultBaseURL)
}

func ensureV1Suffix(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" || strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func (c *Client) resolveModelName(callModel string) string {
	if strings.TrimSpace(callModel) != "" {
		return callModel
	}
	return c.defaultModel
}
