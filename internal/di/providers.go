package di

import (
	"fmt"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/batch"
	"github.com/kcaldas/synopsis/pkg/condense"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/events"
	"github.com/kcaldas/synopsis/pkg/fileops"
	"github.com/kcaldas/synopsis/pkg/journal"
	"github.com/kcaldas/synopsis/pkg/llm/anthropic"
	"github.com/kcaldas/synopsis/pkg/llm/genai"
	"github.com/kcaldas/synopsis/pkg/llm/lmstudio"
	"github.com/kcaldas/synopsis/pkg/llm/multiplexer"
	"github.com/kcaldas/synopsis/pkg/llm/ollama"
	"github.com/kcaldas/synopsis/pkg/llm/openai"
	"github.com/kcaldas/synopsis/pkg/loader"
	"github.com/kcaldas/synopsis/pkg/prompt"
	"github.com/kcaldas/synopsis/pkg/template"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

// App is everything a summarize run needs, built from one Settings value.
type App struct {
	Settings   *config.Settings
	Bus        events.EventBus
	Oracle     ai.Oracle
	Options    ai.Options
	Tokenizer  tokens.Tokenizer
	Summarizer *condense.Summarizer
	Loader     *loader.Loader
	Runner     *batch.Runner
}

// providerAliases maps alternative provider names onto registered factories.
var providerAliases = map[string]string{
	"gemini":    "genai",
	"vertex":    "genai",
	"claude":    "anthropic",
	"chatgpt":   "openai",
	"local":     "ollama",
	"lm-studio": "lmstudio",
}

func ProvideConfigManager() config.Manager {
	return config.NewConfigManager()
}

func ProvideEventBus() events.EventBus {
	return events.NewEventBus()
}

func ProvidePublisher(bus events.EventBus) events.Publisher {
	return bus
}

func ProvideTemplateEngine() template.Engine {
	return template.NewEngine()
}

func ProvideFileManager() fileops.Manager {
	return fileops.NewFileOpsManager()
}

func ProvideTokenizer(settings *config.Settings) (tokens.Tokenizer, error) {
	return tokens.New(settings.Tokenizer)
}

func ProvidePromptBuilder(engine template.Engine, settings *config.Settings, tokenizer tokens.Tokenizer) (*prompt.Builder, error) {
	return prompt.NewBuilder(engine, settings.SummaryTemplate, settings.PromptTemplate, tokenizer)
}

// ProvideOptions maps the generation settings onto oracle options. The
// context window defaults to the model token limit.
func ProvideOptions(settings *config.Settings) ai.Options {
	gen := settings.Generation
	return ai.Options{
		Provider:      settings.Provider,
		ModelName:     settings.ModelName,
		Temperature:   gen.Temperature,
		TopP:          gen.TopP,
		TopK:          gen.TopK,
		MaxTokens:     gen.NumPredict,
		ContextWindow: settings.ContextWindow(),
		Extra:         gen.Extra,
	}
}

// ProvideOracle registers every backend behind a multiplexer. Backends are
// constructed on first use, so missing credentials for unused providers
// never surface.
func ProvideOracle(settings *config.Settings, manager config.Manager) (ai.Oracle, error) {
	factories := map[string]multiplexer.Factory{
		"ollama": func() (ai.Oracle, error) {
			return ollama.NewClient(ollama.WithConfigManager(manager), ollama.WithDefaultModel(settings.ModelName))
		},
		"openai": func() (ai.Oracle, error) {
			return openai.NewClient(openai.WithConfigManager(manager), openai.WithDefaultModel(settings.ModelName))
		},
		"anthropic": func() (ai.Oracle, error) {
			return anthropic.NewClient(anthropic.WithConfigManager(manager), anthropic.WithDefaultModel(settings.ModelName))
		},
		"genai": func() (ai.Oracle, error) {
			return genai.NewClient(manager, nil)
		},
		"lmstudio": func() (ai.Oracle, error) {
			return lmstudio.NewClient(lmstudio.WithConfigManager(manager), lmstudio.WithDefaultModel(settings.ModelName))
		},
	}

	mux, err := multiplexer.NewClient(settings.Provider, factories, providerAliases)
	if err != nil {
		return nil, err
	}
	return ai.WithTimeout(mux, ai.TimeoutConfig{Timeout: settings.CallTimeout}), nil
}

func ProvideSummarizerConfig(settings *config.Settings, options ai.Options) (condense.Config, error) {
	strength, err := condense.ParseStrength(settings.BackstoryStrength)
	if err != nil {
		return condense.Config{}, err
	}
	return condense.Config{
		ModelTokenLimit:      settings.ModelTokenLimit,
		ContextRatio:         settings.ContextRatio,
		ReasonableTextLength: settings.ReasonableTextLength,
		Strength:             strength,
		Separator:            settings.Separator(),
		MaxRounds:            settings.MaxRounds,
		Options:              options,
	}, nil
}

// ProvideJournal opens the SQLite journal when one is configured. A nil
// store means responses stay in memory.
func ProvideJournal(settings *config.Settings) (*journal.Store, func(), error) {
	if settings.Journal == "" {
		return nil, func() {}, nil
	}
	store, err := journal.Open(settings.Journal)
	if err != nil {
		return nil, nil, fmt.Errorf("opening journal: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

func ProvideSummarizer(cfg condense.Config, oracle ai.Oracle, builder *prompt.Builder, tokenizer tokens.Tokenizer,
	bus events.Publisher, store *journal.Store) (*condense.Summarizer, error) {
	opts := []condense.Option{condense.WithEventBus(bus)}
	if store != nil {
		opts = append(opts, condense.WithResponseLog(store.OpenRun))
	}
	return condense.NewSummarizer(cfg, oracle, builder, tokenizer, opts...)
}

func ProvideNamer(engine template.Engine, settings *config.Settings) (*fileops.Namer, error) {
	return fileops.NewNamer(engine, settings.OutputFilenames.Detailed, settings.OutputFilenames.Short)
}

func ProvideLoader(files fileops.Manager) *loader.Loader {
	return loader.New(loader.WithFileManager(files))
}

func ProvideRunner(summarizer *condense.Summarizer, ld *loader.Loader, namer *fileops.Namer, files fileops.Manager) *batch.Runner {
	return batch.NewRunner(summarizer, ld, namer, loader.Supported, batch.WithFileManager(files))
}
