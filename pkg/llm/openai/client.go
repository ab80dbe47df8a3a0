package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/logging"
)

var (
	errMissingAPIKey           = errors.New("openai backend not configured")
	_                ai.Oracle = (*Client)(nil)
)

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Option configures the OpenAI client.
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

// WithChatClient injects a custom Chat Completions client (primarily for tests).
func WithChatClient(chat chatCompletionClient) Option {
	return func(c *Client) {
		if chat != nil {
			c.chatCompletions = chat
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

// Client is an ai.Oracle backed by OpenAI Chat Completions. Each prompt is
// sent as a single user message.
type Client struct {
	mu sync.Mutex

	config       config.Manager
	logger       logging.Logger
	defaultModel string
	now          func() time.Time

	chatCompletions chatCompletionClient

	initialized bool
	initErr     error
}

// NewClient builds a new OpenAI-backed oracle. Credentials are resolved on
// first use.
func NewClient(opts ...Option) (ai.Oracle, error) {
	client := &Client{
		config: config.NewConfigManager(),
		logger: logging.NewAPILogger("openai"),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.defaultModel == "" {
		client.defaultModel = client.config.GetStringWithDefault("SYNOPSIS_MODEL_NAME", string(shared.ChatModelGPT4oMini))
	}

	return client, nil
}

// Generate sends prompt as a user message and returns the first choice.
// OpenAI reports no server timing, so Duration is the wall-clock round trip.
func (c *Client) Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Response, error) {
	if err := c.ensureInitialized(); err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.resolveModelName(opts.ModelName)),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	c.applyGenerationConfig(&params, opts)

	start := c.now()
	resp, err := c.chatCompletions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	elapsed := c.now().Sub(start)

	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion returned no choices")
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("openai: %w", ai.ErrEmptyResponse)
	}

	c.logger.Debug("openai usage", "model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	return &ai.Response{
		Text:           text,
		Model:          resp.Model,
		Duration:       elapsed,
		PromptTokens:   int(resp.Usage.PromptTokens),
		ResponseTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// GetStatus reports whether credentials are present.
func (c *Client) GetStatus() *ai.Status {
	apiKey := strings.TrimSpace(c.config.GetStringWithDefault("OPENAI_API_KEY", ""))
	if apiKey == "" {
		return &ai.Status{
			Model:     c.defaultModel,
			Backend:   "openai",
			Connected: false,
			Message:   "OPENAI_API_KEY not configured",
		}
	}

	message := "OpenAI configured"
	if baseURL := strings.TrimSpace(c.config.GetStringWithDefault("OPENAI_BASE_URL", "")); baseURL != "" {
		message = fmt.Sprintf("OpenAI configured (custom endpoint: %s)", baseURL)
	}

	return &ai.Status{
		Model:     c.defaultModel,
		Backend:   "openai",
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

	if c.chatCompletions != nil {
		c.initialized = true
		return nil
	}

	apiKey := strings.TrimSpace(c.config.GetStringWithDefault("OPENAI_API_KEY", ""))
	if apiKey == "" {
		c.initErr = fmt.Errorf("%w: please export OPENAI_API_KEY (and optionally OPENAI_BASE_URL or OPENAI_ORG_ID)", errMissingAPIKey)
		return c.initErr
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL := strings.TrimSpace(c.config.GetStringWithDefault("OPENAI_BASE_URL", "")); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if orgID := strings.TrimSpace(c.config.GetStringWithDefault("OPENAI_ORG_ID", "")); orgID != "" {
		opts = append(opts, option.WithOrganization(orgID))
	}
	if project := strings.TrimSpace(c.config.GetStringWithDefault("OPENAI_PROJECT_ID", "")); project != "" {
		opts = append(opts, option.WithProject(project))
	}
	opts = append(opts, option.WithHeaderAdd(ai.ClientHeaderName, ai.ClientHeaderValue))

	client := openai.NewClient(opts...)
	service := client.Chat.Completions

	c.chatCompletions = &service
	c.initialized = true
	c.initErr = nil
	return nil
}

func (c *Client) resolveModelName(callModel string) string {
	if strings.TrimSpace(callModel) != "" {
		return callModel
	}
	return c.defaultModel
}

func (c *Client) applyGenerationConfig(params *openai.ChatCompletionNewParams, opts ai.Options) {
	targetModel := string(params.Model)

	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	if allowsSamplingParams(targetModel) {
		if opts.Temperature != nil {
			params.Temperature = openai.Float(*opts.Temperature)
		}
		if opts.TopP != nil {
			params.TopP = openai.Float(*opts.TopP)
		}
	} else if opts.Temperature != nil || opts.TopP != nil {
		c.logger.Debug("sampling parameters not supported for model; using default", "model", targetModel)
	}

	if opts.TopK > 0 || opts.ContextWindow > 0 || len(opts.Extra) > 0 {
		c.logger.Debug("ignoring options openai does not accept", "model", targetModel,
			"top_k", opts.TopK, "num_ctx", opts.ContextWindow, "extra", len(opts.Extra))
	}
}

func allowsSamplingParams(model string) bool {
	model = strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return false
	default:
		return true
	}
}
