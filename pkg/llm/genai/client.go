package genai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/logging"
)

// Backend represents the GenAI backend to use
type Backend string

const (
	BackendVertexAI  Backend = "vertex"
	BackendGeminiAPI Backend = "gemini"
)

const defaultModel = "gemini-2.0-flash"

const setupHelp = "no valid AI backend configured. Please set up one of the following:\n\n" +
	"Option 1 - Gemini API (recommended):\n" +
	"  export GEMINI_API_KEY=your-api-key\n" +
	"  Get your API key from: https://aistudio.google.com/apikey\n\n" +
	"Option 2 - Vertex AI:\n" +
	"  export GOOGLE_CLOUD_PROJECT=your-project-id\n" +
	"  Requires Google Cloud setup and authentication\n"

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client implements ai.Oracle using Google's unified GenAI package.
// Supports both Vertex AI and Gemini API backends.
type Client struct {
	Client       *genai.Client
	Config       config.Manager
	Backend      Backend
	DefaultModel string
	logger       logging.Logger
	now          func() time.Time

	// Allows tests to intercept generate content calls.
	callGenerateContentFn generateFunc

	// Lazy initialization
	mu          sync.Mutex
	initialized bool
	initError   error
}

var _ ai.Oracle = &Client{}

// NewClient creates a new unified GenAI client that will initialize lazily
func NewClient(configManager config.Manager, logger logging.Logger) (ai.Oracle, error) {
	if configManager == nil {
		configManager = config.NewConfigManager()
	}
	if logger == nil {
		logger = logging.NewAPILogger("genai")
	}

	// Determine backend preference and check basic configuration
	backend := Backend(configManager.GetStringWithDefault("GENAI_BACKEND", "gemini"))

	hasGeminiKey := configManager.GetStringWithDefault("GEMINI_API_KEY", "") != ""
	hasVertexProject := configManager.GetStringWithDefault("GOOGLE_CLOUD_PROJECT", "") != ""
	if !hasGeminiKey && !hasVertexProject {
		return nil, fmt.Errorf("%s", setupHelp)
	}

	return &Client{
		Config:       configManager,
		Backend:      backend,
		DefaultModel: configManager.GetStringWithDefault("SYNOPSIS_MODEL_NAME", defaultModel),
		logger:       logger,
		now:          time.Now,
	}, nil
}

// ensureInitialized initializes the GenAI client (idempotent, safe to call multiple times)
func (g *Client) ensureInitialized(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return g.initError
	}
	g.initialized = true

	if g.callGenerateContentFn != nil {
		return nil
	}

	client, actualBackend, err := createClientWithBackend(ctx, g.Config, g.Backend)
	if err != nil {
		// If preferred backend fails, try the other one
		fallbackBackend := BackendGeminiAPI
		if g.Backend == BackendGeminiAPI {
			fallbackBackend = BackendVertexAI
		}

		client, actualBackend, err = createClientWithBackend(ctx, g.Config, fallbackBackend)
		if err != nil {
			g.initError = fmt.Errorf("%s", setupHelp)
			return g.initError
		}
	}

	g.Client = client
	g.Backend = actualBackend
	g.initError = nil
	return nil
}

// createClientWithBackend attempts to create a client with the specified backend
func createClientWithBackend(ctx context.Context, configManager config.Manager, backend Backend) (*genai.Client, Backend, error) {
	switch backend {
	case BackendGeminiAPI:
		apiKey := configManager.GetStringWithDefault("GEMINI_API_KEY", "")
		if apiKey == "" {
			return nil, "", fmt.Errorf("GEMINI_API_KEY not configured")
		}

		cfg := &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		cfg.HTTPOptions.Headers = ai.DefaultHTTPHeaders()

		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("error creating Gemini API client: %w", err)
		}
		return client, BackendGeminiAPI, nil

	case BackendVertexAI:
		projectID, err := configManager.GetString("GOOGLE_CLOUD_PROJECT")
		if err != nil {
			return nil, "", fmt.Errorf("GOOGLE_CLOUD_PROJECT not configured")
		}

		location := configManager.GetStringWithDefault("GOOGLE_CLOUD_LOCATION", "us-central1")

		cfg := &genai.ClientConfig{
			Project:  projectID,
			Location: location,
			Backend:  genai.BackendVertexAI,
		}
		cfg.HTTPOptions.Headers = ai.DefaultHTTPHeaders()

		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("error creating Vertex AI client: %w", err)
		}
		return client, BackendVertexAI, nil

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// Generate sends prompt as a single user turn. Duration is the wall-clock
// round trip.
func (g *Client) Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Response, error) {
	if err := g.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	model := opts.ModelName
	if strings.TrimSpace(model) == "" {
		model = g.DefaultModel
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	start := g.now()
	resp, err := g.callGenerateContent(ctx, model, contents, buildGenerateConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("genai generate content: %w", err)
	}
	elapsed := g.now().Sub(start)

	text := joinCandidateText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("genai: %w", ai.ErrEmptyResponse)
	}

	result := &ai.Response{Text: text, Model: model, Duration: elapsed}
	if resp.ModelVersion != "" {
		result.Model = resp.ModelVersion
	}
	if usage := resp.UsageMetadata; usage != nil {
		result.PromptTokens = int(usage.PromptTokenCount)
		result.ResponseTokens = int(usage.CandidatesTokenCount)
	}
	g.logger.Debug("genai usage", "model", result.Model,
		"prompt_tokens", result.PromptTokens, "response_tokens", result.ResponseTokens)
	return result, nil
}

// GetStatus returns the connection status and backend information
func (g *Client) GetStatus() *ai.Status {
	switch g.Backend {
	case BackendGeminiAPI:
		apiKey := g.Config.GetStringWithDefault("GEMINI_API_KEY", "")
		if apiKey == "" {
			return &ai.Status{Model: g.DefaultModel, Connected: false, Backend: "gemini", Message: "GEMINI_API_KEY not configured"}
		}
		return &ai.Status{Model: g.DefaultModel, Connected: true, Backend: "gemini", Message: "Gemini API configured"}

	case BackendVertexAI:
		projectID := g.Config.GetStringWithDefault("GOOGLE_CLOUD_PROJECT", "")
		if projectID == "" {
			return &ai.Status{Model: g.DefaultModel, Connected: false, Backend: "vertex", Message: "GOOGLE_CLOUD_PROJECT not configured"}
		}
		location := g.Config.GetStringWithDefault("GOOGLE_CLOUD_LOCATION", "us-central1")
		return &ai.Status{Model: g.DefaultModel, Connected: true, Backend: "vertex", Message: fmt.Sprintf("Vertex AI configured (project: %s, location: %s)", projectID, location)}

	default:
		return &ai.Status{Model: g.DefaultModel, Connected: false, Backend: "unknown", Message: fmt.Sprintf("Unknown backend: %s", g.Backend)}
	}
}

func (g *Client) callGenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if g.callGenerateContentFn != nil {
		return g.callGenerateContentFn(ctx, model, contents, cfg)
	}
	return g.Client.Models.GenerateContent(ctx, model, contents, cfg)
}

func buildGenerateConfig(opts ai.Options) *genai.GenerateContentConfig {
	var cfg genai.GenerateContentConfig
	used := false

	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
		used = true
	}
	if opts.Temperature != nil {
		temp := float32(*opts.Temperature)
		cfg.Temperature = &temp
		used = true
	}
	if opts.TopP != nil {
		topP := float32(*opts.TopP)
		cfg.TopP = &topP
		used = true
	}
	if opts.TopK > 0 {
		topK := float32(opts.TopK)
		cfg.TopK = &topK
		used = true
	}
	if used {
		cfg.CandidateCount = 1
	}

	if !used {
		return nil
	}
	return &cfg
}

// joinCandidateText concatenates the text parts of the first candidate,
// leaving out thought summaries.
func joinCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
