package di

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/condense"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	settings := config.DefaultSettings()
	settings.Tokenizer = tokens.NameWords
	require.NoError(t, settings.Validate())
	return settings
}

func TestProvideOptions(t *testing.T) {
	settings := testSettings(t)
	settings.Generation.Extra = map[string]any{"seed": 7}

	opts := ProvideOptions(settings)
	assert.Equal(t, "ollama", opts.Provider)
	assert.Equal(t, "mistral", opts.ModelName)
	assert.Equal(t, 4096, opts.ContextWindow)
	assert.Equal(t, 512, opts.MaxTokens)
	assert.Equal(t, 20, opts.TopK)
	require.NotNil(t, opts.Temperature)
	assert.Equal(t, 0.0, *opts.Temperature)
	require.NotNil(t, opts.TopP)
	assert.Equal(t, 0.5, *opts.TopP)
	assert.Equal(t, 7, opts.Extra["seed"])

	settings.Generation.NumCtx = 2048
	assert.Equal(t, 2048, ProvideOptions(settings).ContextWindow)
}

func TestProvideSummarizerConfig(t *testing.T) {
	settings := testSettings(t)
	settings.BackstoryStrength = "strong"
	settings.ResponseSeparator = `\n---\n`

	cfg, err := ProvideSummarizerConfig(settings, ai.Options{ModelName: "m"})
	require.NoError(t, err)
	assert.Equal(t, condense.StrengthStrong, cfg.Strength)
	assert.Equal(t, "\n---\n", cfg.Separator)
	assert.Equal(t, settings.MaxRounds, cfg.MaxRounds)
	assert.Equal(t, "m", cfg.Options.ModelName)
	assert.NoError(t, cfg.Validate())

	settings.BackstoryStrength = "medium"
	_, err = ProvideSummarizerConfig(settings, ai.Options{})
	assert.Error(t, err)
}

func TestProvideJournal(t *testing.T) {
	settings := testSettings(t)

	store, cleanup, err := ProvideJournal(settings)
	require.NoError(t, err)
	assert.Nil(t, store)
	cleanup()

	settings.Journal = filepath.Join(t.TempDir(), "runs", "journal.db")
	store, cleanup, err = ProvideJournal(settings)
	require.NoError(t, err)
	require.NotNil(t, store)
	cleanup()
	assert.FileExists(t, settings.Journal)
}

func TestProvideOracle_UnknownProvider(t *testing.T) {
	settings := testSettings(t)
	settings.Provider = "mystery"

	_, err := ProvideOracle(settings, config.NewStaticManager(nil))
	assert.ErrorContains(t, err, "unsupported default provider")
}

func TestProvideOracle_AppliesTimeout(t *testing.T) {
	settings := testSettings(t)
	settings.CallTimeout = time.Minute

	oracle, err := ProvideOracle(settings, config.NewStaticManager(nil))
	require.NoError(t, err)
	assert.IsType(t, &ai.TimeoutMiddleware{}, oracle)
}

func TestInitializeApp(t *testing.T) {
	settings := testSettings(t)
	settings.Journal = filepath.Join(t.TempDir(), "journal.db")

	app, cleanup, err := InitializeApp(settings)
	require.NoError(t, err)
	defer cleanup()

	assert.Same(t, settings, app.Settings)
	assert.NotNil(t, app.Bus)
	assert.NotNil(t, app.Oracle)
	assert.NotNil(t, app.Summarizer)
	assert.NotNil(t, app.Loader)
	assert.NotNil(t, app.Runner)
	assert.Equal(t, tokens.WordTokenizer{}, app.Tokenizer)
}

func TestInitializeApp_BadOutputTemplate(t *testing.T) {
	settings := testSettings(t)
	settings.OutputFilenames.Short = "{{.base"

	_, _, err := InitializeApp(settings)
	assert.Error(t, err)
}
