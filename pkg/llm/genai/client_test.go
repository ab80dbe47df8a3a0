package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/logging"
)

type capturedCall struct {
	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
}

func newTestClient(t *testing.T, fn generateFunc) *Client {
	t.Helper()
	tick := time.Unix(0, 0)
	return &Client{
		Config:                config.NewStaticManager(map[string]string{"GEMINI_API_KEY": "test"}),
		Backend:               BackendGeminiAPI,
		DefaultModel:          defaultModel,
		logger:                logging.NewDisabledLogger(),
		callGenerateContentFn: fn,
		now: func() time.Time {
			tick = tick.Add(3 * time.Second)
			return tick
		},
	}
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, genai.NewPartFromText(text))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromParts(parts, genai.RoleModel),
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     42,
			CandidatesTokenCount: 7,
		},
	}
}

func TestClient_Generate(t *testing.T) {
	var captured capturedCall
	client := newTestClient(t, func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		captured = capturedCall{model: model, contents: contents, cfg: cfg}
		return textResponse("Condensed ", "text."), nil
	})

	resp, err := client.Generate(context.Background(), "Summarize this.", ai.Options{
		Temperature: ai.Float(0.25),
		TopP:        ai.Float(0.5),
		TopK:        40,
		MaxTokens:   300,
	})
	require.NoError(t, err)

	assert.Equal(t, "Condensed text.", resp.Text)
	assert.Equal(t, defaultModel, resp.Model)
	assert.Equal(t, 42, resp.PromptTokens)
	assert.Equal(t, 7, resp.ResponseTokens)
	assert.Equal(t, 3*time.Second, resp.Duration)

	assert.Equal(t, defaultModel, captured.model)
	require.Len(t, captured.contents, 1)
	assert.Equal(t, genai.RoleUser, captured.contents[0].Role)
	require.Len(t, captured.contents[0].Parts, 1)
	assert.Equal(t, "Summarize this.", captured.contents[0].Parts[0].Text)

	require.NotNil(t, captured.cfg)
	assert.Equal(t, int32(300), captured.cfg.MaxOutputTokens)
	require.NotNil(t, captured.cfg.Temperature)
	assert.InDelta(t, 0.25, *captured.cfg.Temperature, 1e-6)
	require.NotNil(t, captured.cfg.TopP)
	assert.InDelta(t, 0.5, *captured.cfg.TopP, 1e-6)
	require.NotNil(t, captured.cfg.TopK)
	assert.InDelta(t, 40, *captured.cfg.TopK, 1e-6)
}

func TestClient_Generate_NoOptionsSendsNilConfig(t *testing.T) {
	var captured capturedCall
	client := newTestClient(t, func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		captured = capturedCall{model: model, contents: contents, cfg: cfg}
		return textResponse("ok"), nil
	})

	_, err := client.Generate(context.Background(), "hi", ai.Options{ModelName: "gemini-1.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", captured.model)
	assert.Nil(t, captured.cfg)
}

func TestClient_Generate_SkipsThoughtParts(t *testing.T) {
	client := newTestClient(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		resp := textResponse("thinking...", "answer")
		resp.Candidates[0].Content.Parts[0].Thought = true
		return resp, nil
	})

	resp, err := client.Generate(context.Background(), "hi", ai.Options{})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp.Text)
}

func TestClient_Generate_EmptyResponse(t *testing.T) {
	client := newTestClient(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	})

	_, err := client.Generate(context.Background(), "hi", ai.Options{})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}

func TestClient_Generate_PropagatesError(t *testing.T) {
	quota := errors.New("quota exceeded")
	client := newTestClient(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, quota
	})

	_, err := client.Generate(context.Background(), "hi", ai.Options{})
	assert.ErrorIs(t, err, quota)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(config.NewStaticManager(nil), logging.NewDisabledLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestClient_GetStatus(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string]string
		connected bool
		backend   string
	}{
		{
			name:      "gemini",
			values:    map[string]string{"GEMINI_API_KEY": "key"},
			connected: true,
			backend:   "gemini",
		},
		{
			name:      "vertex",
			values:    map[string]string{"GENAI_BACKEND": "vertex", "GOOGLE_CLOUD_PROJECT": "proj"},
			connected: true,
			backend:   "vertex",
		},
		{
			name:      "vertex without project",
			values:    map[string]string{"GENAI_BACKEND": "vertex", "GEMINI_API_KEY": "key"},
			connected: false,
			backend:   "vertex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := NewClient(config.NewStaticManager(tt.values), logging.NewDisabledLogger())
			require.NoError(t, err)

			status := raw.GetStatus()
			assert.Equal(t, tt.connected, status.Connected)
			assert.Equal(t, tt.backend, status.Backend)
			assert.Equal(t, defaultModel, status.Model)
		})
	}
}
