package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/synopsis/internal/di"
	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/journal"
	"github.com/kcaldas/synopsis/pkg/llm/multiplexer"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	settings := config.DefaultSettings()
	settings.Tokenizer = tokens.NameWords
	require.NoError(t, settings.Validate())
	return settings
}

func staticSettings(settings *config.Settings) SettingsProvider {
	return func() (*config.Settings, error) { return settings, nil }
}

// newTestApp assembles the real pipeline around oracle.
func newTestApp(t *testing.T, settings *config.Settings, oracle ai.Oracle) *di.App {
	t.Helper()
	bus := di.ProvideEventBus()
	tokenizer, err := di.ProvideTokenizer(settings)
	require.NoError(t, err)
	engine := di.ProvideTemplateEngine()
	builder, err := di.ProvidePromptBuilder(engine, settings, tokenizer)
	require.NoError(t, err)
	options := di.ProvideOptions(settings)
	cfg, err := di.ProvideSummarizerConfig(settings, options)
	require.NoError(t, err)
	store, cleanup, err := di.ProvideJournal(settings)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	summarizer, err := di.ProvideSummarizer(cfg, oracle, builder, tokenizer, bus, store)
	require.NoError(t, err)
	files := di.ProvideFileManager()
	namer, err := di.ProvideNamer(engine, settings)
	require.NoError(t, err)
	ld := di.ProvideLoader(files)

	return &di.App{
		Settings:   settings,
		Bus:        bus,
		Oracle:     oracle,
		Options:    options,
		Tokenizer:  tokenizer,
		Summarizer: summarizer,
		Loader:     ld,
		Runner:     di.ProvideRunner(summarizer, ld, namer, files),
	}
}

func builderFor(t *testing.T, oracle ai.Oracle) AppBuilder {
	return func(settings *config.Settings) (*di.App, func(), error) {
		return newTestApp(t, settings, oracle), func() {}, nil
	}
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func withTerminals(t *testing.T, stdin, stdout bool) {
	t.Helper()
	origIn, origOut := stdinIsTerminal, stdoutIsTerminal
	stdinIsTerminal = func() bool { return stdin }
	stdoutIsTerminal = func() bool { return stdout }
	t.Cleanup(func() {
		stdinIsTerminal, stdoutIsTerminal = origIn, origOut
	})
}

func TestSummarizeCommand_Folder(t *testing.T) {
	withTerminals(t, true, false)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("The second book. It is short."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("The first book. It is also short."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	oracle := ai.NewMockOracle()
	oracle.Respond = func(string) string { return "A tiny summary." }
	build := builderFor(t, oracle)

	out, err := execute(t, NewSummarizeCommand(staticSettings(testSettings(t)), build), "", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "summarized a.txt in 1 rounds")
	assert.Contains(t, out, "summarized b.txt in 1 rounds")
	assert.Contains(t, out, "2 of 2 documents summarized")
	assert.Less(t, strings.Index(out, "a.txt"), strings.Index(out, "b.txt"))

	short, err := os.ReadFile(filepath.Join(dir, "a-short.txt"))
	require.NoError(t, err)
	assert.Equal(t, "A tiny summary.", string(short))
	assert.FileExists(t, filepath.Join(dir, "b-detailed.txt"))
	assert.Equal(t, 2, oracle.CallCount)

	out, err = execute(t, NewSummarizeCommand(staticSettings(testSettings(t)), build), "", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped    a.txt (output exists)")
	assert.Contains(t, out, "0 of 2 documents summarized")
	assert.Equal(t, 2, oracle.CallCount)
}

func TestSummarizeCommand_Stdin(t *testing.T) {
	withTerminals(t, false, false)
	oracle := ai.NewMockOracle("Piped summary.")
	build := builderFor(t, oracle)

	out, err := execute(t, NewSummarizeCommand(staticSettings(testSettings(t)), build),
		"Text arriving on a pipe. Two sentences.", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Detailed summary ===\nPiped summary.\n")
	assert.Contains(t, out, "=== Short summary ===\nPiped summary.\n")
	require.Len(t, oracle.Prompts(), 1)
	assert.Contains(t, oracle.Prompts()[0], "Text arriving on a pipe.")
}

func TestSummarizeCommand_StdinRequiresPipe(t *testing.T) {
	withTerminals(t, true, false)
	build := builderFor(t, ai.NewMockOracle())

	_, err := execute(t, NewSummarizeCommand(staticSettings(testSettings(t)), build), "", "-")
	assert.ErrorIs(t, err, errNoStdin)
}

func TestSummarizeCommand_FlagOverrides(t *testing.T) {
	withTerminals(t, true, false)
	dir := t.TempDir()
	input := filepath.Join(dir, "book.txt")
	require.NoError(t, os.WriteFile(input, []byte("One sentence here."), 0o644))

	settings := testSettings(t)
	oracle := ai.NewMockOracle("Done.")
	build := builderFor(t, oracle)
	journalPath := filepath.Join(dir, "journal.db")

	_, err := execute(t, NewSummarizeCommand(staticSettings(settings), build), "", input,
		"--model", "llama3", "--strength", "strong", "--journal", journalPath)
	require.NoError(t, err)

	assert.Equal(t, "llama3", settings.ModelName)
	assert.Equal(t, "strong", settings.BackstoryStrength)
	require.Len(t, oracle.UsedOptions, 1)
	assert.Equal(t, "llama3", oracle.UsedOptions[0].ModelName)

	store, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.StatusSucceeded, runs[0].Status)
	assert.Equal(t, 1, runs[0].Responses)
}

func TestSummarizeCommand_InvalidOverride(t *testing.T) {
	build := builderFor(t, ai.NewMockOracle())
	_, err := execute(t, NewSummarizeCommand(staticSettings(testSettings(t)), build), "", ".", "--strength", "medium")
	assert.ErrorContains(t, err, "backstory_strength")
}

func TestSummarizeCommand_ReportsFailures(t *testing.T) {
	withTerminals(t, true, false)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Will fail."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("Will work."), 0o644))

	build := builderFor(t, ai.NewMockOracle("ERROR", "Worked."))

	out, err := execute(t, NewSummarizeCommand(staticSettings(testSettings(t)), build), "", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed     a.txt")
	assert.Contains(t, out, "summarized b.txt")
	assert.Contains(t, out, "1 of 2 documents summarized")
}

func TestSummarizeCommand_VerboseProgress(t *testing.T) {
	withTerminals(t, false, false)
	build := builderFor(t, ai.NewMockOracle("Summary."))

	cmd := NewSummarizeCommand(staticSettings(testSettings(t)), build)
	cmd.Flags().BoolP("verbose", "v", false, "")
	out, err := execute(t, cmd, "Some text to condense.", "-", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "round 1 section 1:")
	assert.Contains(t, out, "round 1: 1 sections")
}

func TestSpeedtestCommand(t *testing.T) {
	oracle := ai.NewMockOracle("Ready.")
	oracle.Duration = 2 * time.Second
	build := func(*config.Settings) (ai.Oracle, error) { return oracle, nil }

	out, err := execute(t, NewSpeedtestCommand(staticSettings(testSettings(t)), build), "")
	require.NoError(t, err)
	assert.Contains(t, out, "running speed test against ollama (mistral)")
	assert.Contains(t, out, "...done in 2.0 seconds")
	assert.Contains(t, out, "response: Ready.")
	require.Len(t, oracle.UsedOptions, 1)
	assert.Equal(t, 32, oracle.UsedOptions[0].MaxTokens)
}

type versionedOracle struct {
	*ai.MockOracle
}

func (versionedOracle) Version(context.Context) (string, error) { return "0.5.1", nil }

func TestResolveBackend(t *testing.T) {
	backend := versionedOracle{ai.NewMockOracle()}
	wrapped := ai.WithTimeout(backend, ai.TimeoutConfig{Timeout: time.Minute})

	resolved := resolveBackend(wrapped, "ollama")
	_, ok := resolved.(versionReporter)
	assert.True(t, ok)
}

type listingOracle struct {
	*ai.MockOracle
}

func (listingOracle) Models(context.Context) ([]string, error) {
	return []string{"qwen2.5-7b-instruct", "llama-3.2-3b"}, nil
}

func TestSpeedtestCommand_MultiplexedBackend(t *testing.T) {
	settings := testSettings(t)
	settings.Provider = "lmstudio"

	backend := listingOracle{ai.NewMockOracle("Ready.")}
	built := 0
	build := func(s *config.Settings) (ai.Oracle, error) {
		mux, err := multiplexer.NewClient(s.Provider, map[string]multiplexer.Factory{
			"lmstudio": func() (ai.Oracle, error) {
				built++
				return backend, nil
			},
		}, nil)
		if err != nil {
			return nil, err
		}
		return ai.WithTimeout(mux, ai.TimeoutConfig{Timeout: time.Minute}), nil
	}

	out, err := execute(t, NewSpeedtestCommand(staticSettings(settings), build), "")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded models: qwen2.5-7b-instruct, llama-3.2-3b")
	assert.Contains(t, out, "response: Ready.")
	assert.Equal(t, 1, built)
	assert.Equal(t, 1, backend.CallCount)
}

func TestTokensCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.txt")
	require.NoError(t, os.WriteFile(path, []byte("One two three. Four five."), 0o644))

	build := func(s *config.Settings) (tokens.Tokenizer, error) { return tokens.New(s.Tokenizer) }
	out, err := execute(t, NewTokensCommand(staticSettings(testSettings(t)), build), "", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 sentences, 5 tokens")
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synopsis.yaml")

	out, err := execute(t, NewConfigCommand(staticSettings(testSettings(t))), "", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	loaded, err := config.Load(path, config.NewStaticManager(nil))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings().ModelTokenLimit, loaded.ModelTokenLimit)

	_, err = execute(t, NewConfigCommand(staticSettings(testSettings(t))), "", "init", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, NewConfigCommand(staticSettings(testSettings(t))), "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "tokenizer: words")
	assert.Contains(t, out, "backstory_strength: weak")
}

func TestRunsCommand(t *testing.T) {
	settings := testSettings(t)
	_, err := execute(t, NewRunsCommand(staticSettings(settings)), "")
	assert.ErrorIs(t, err, errNoJournal)

	settings.Journal = filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.Open(settings.Journal)
	require.NoError(t, err)
	run, err := store.OpenRun(context.Background(), "book.epub")
	require.NoError(t, err)
	require.NoError(t, run.Append(context.Background(), 0, 0, "text"))
	require.NoError(t, store.Close())

	out, err := execute(t, NewRunsCommand(staticSettings(settings)), "")
	require.NoError(t, err)
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "book.epub")
	assert.Contains(t, out, "running")
}
