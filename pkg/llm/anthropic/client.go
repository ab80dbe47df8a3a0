package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	anthropic_sdk "github.com/anthropics/anthropic-sdk-go"
	anthropic_option "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/logging"
)

const (
	defaultClaudeModel = "claude-3-5-sonnet-20241022"
	defaultMaxTokens   = 1024
)

var (
	errMissingAPIKey           = errors.New("anthropic backend not configured")
	_                ai.Oracle = (*Client)(nil)
)

type messageClient interface {
	New(ctx context.Context, body anthropic_sdk.MessageNewParams, opts ...anthropic_option.RequestOption) (*anthropic_sdk.Message, error)
}

// Option configures the Anthropic client.
type Option func(*Client)

// WithConfigManager injects a custom configuration manager (useful for tests).
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

// WithMessageClient injects a custom Messages client (primarily for tests).
func WithMessageClient(client messageClient) Option {
	return func(c *Client) {
		if client != nil {
			c.messages = client
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

// Client is an ai.Oracle backed by the Anthropic Messages API.
type Client struct {
	mu sync.Mutex

	config       config.Manager
	logger       logging.Logger
	defaultModel string
	now          func() time.Time

	messages messageClient

	initialized bool
	initErr     error
}

// NewClient builds a new Anthropic-backed oracle.
func NewClient(opts ...Option) (ai.Oracle, error) {
	client := &Client{
		config: config.NewConfigManager(),
		logger: logging.NewAPILogger("anthropic"),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.defaultModel == "" {
		client.defaultModel = client.config.GetStringWithDefault("SYNOPSIS_MODEL_NAME", defaultClaudeModel)
	}

	return client, nil
}

// Generate sends prompt as one user turn and joins the text blocks of the
// reply. Duration is the wall-clock round trip.
func (c *Client) Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Response, error) {
	if err := c.ensureInitialized(); err != nil {
		return nil, err
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic_sdk.MessageNewParams{
		Model:     anthropic_sdk.Model(c.resolveModelName(opts.ModelName)),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic_sdk.MessageParam{
			anthropic_sdk.NewUserMessage(anthropic_sdk.NewTextBlock(prompt)),
		},
	}
	c.applyGenerationConfig(&params, opts)

	start := c.now()
	resp, err := c.messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}
	elapsed := c.now().Sub(start)

	text := parseResponse(resp)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("anthropic: %w", ai.ErrEmptyResponse)
	}

	c.logger.Debug("anthropic usage", "model", resp.Model,
		"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	return &ai.Response{
		Text:           text,
		Model:          string(resp.Model),
		Duration:       elapsed,
		PromptTokens:   int(resp.Usage.InputTokens),
		ResponseTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// GetStatus reports whether credentials are present.
func (c *Client) GetStatus() *ai.Status {
	apiKey := strings.TrimSpace(c.config.GetStringWithDefault("ANTHROPIC_API_KEY", ""))
	if apiKey == "" {
		return &ai.Status{
			Model:     c.defaultModel,
			Backend:   "anthropic",
			Connected: false,
			Message:   "ANTHROPIC_API_KEY not configured",
		}
	}

	message := "Anthropic configured"
	if baseURL := strings.TrimSpace(c.config.GetStringWithDefault("ANTHROPIC_BASE_URL", "")); baseURL != "" {
		message = fmt.Sprintf("Anthropic configured (custom endpoint: %s)", baseURL)
	}

	return &ai.Status{
		Model:     c.defaultModel,
		Backend:   "anthropic",
		Connected: true,
		Message:   message,
	}
}

func (c *Client) ensureInitialized() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return c.initErr
	}

	if c.messages != nil {
		c.initialized = true
		c.initErr = nil
		return nil
	}

	apiKey := strings.TrimSpace(c.config.GetStringWithDefault("ANTHROPIC_API_KEY", ""))
	if apiKey == "" {
		c.initErr = fmt.Errorf("%w: please export ANTHROPIC_API_KEY (and optionally ANTHROPIC_BASE_URL or ANTHROPIC_AUTH_TOKEN)", errMissingAPIKey)
		return c.initErr
	}

	opts := []anthropic_option.RequestOption{
		anthropic_option.WithAPIKey(apiKey),
		anthropic_option.WithHeaderAdd(ai.ClientHeaderName, ai.ClientHeaderValue),
	}
	if baseURL := strings.TrimSpace(c.config.GetStringWithDefault("ANTHROPIC_BASE_URL", "")); baseURL != "" {
		opts = append(opts, anthropic_option.WithBaseURL(baseURL))
	}
	if authToken := strings.TrimSpace(c.config.GetStringWithDefault("ANTHROPIC_AUTH_TOKEN", "")); authToken != "" {
		opts = append(opts, anthropic_option.WithAuthToken(authToken))
	}

	client := anthropic_sdk.NewClient(opts...)
	service := client.Messages

	c.messages = &service
	c.initialized = true
	c.initErr = nil
	return nil
}

func parseResponse(resp *anthropic_sdk.Message) string {
	var textBuilder strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" || strings.TrimSpace(block.Text) == "" {
			continue
		}
		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n")
		}
		textBuilder.WriteString(block.Text)
	}
	return textBuilder.String()
}

func (c *Client) applyGenerationConfig(params *anthropic_sdk.MessageNewParams, opts ai.Options) {
	if opts.Temperature != nil {
		params.Temperature = anthropic_sdk.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = anthropic_sdk.Float(*opts.TopP)
	}
	if opts.TopK > 0 {
		params.TopK = anthropic_sdk.Int(int64(opts.TopK))
	}
	if opts.ContextWindow > 0 || len(opts.Extra) > 0 {
		c.logger.Debug("ignoring options anthropic does not accept",
			"num_ctx", opts.ContextWindow, "extra", len(opts.Extra))
	}
}

func (c *Client) resolveModelName(callModel string) string {
	if strings.TrimSpace(callModel) != "" {
		return callModel
	}
	return c.defaultModel
}
