//go:build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

var oracleSet = wire.NewSet(
	ProvideConfigManager,
	ProvideOracle,
	ProvideOptions,
)

// InitializeApp builds the full summarize pipeline. The cleanup closes the
// journal when one was opened.
func InitializeApp(settings *config.Settings) (*App, func(), error) {
	wire.Build(
		oracleSet,
		ProvideEventBus,
		ProvidePublisher,
		ProvideTemplateEngine,
		ProvideFileManager,
		ProvideTokenizer,
		ProvidePromptBuilder,
		ProvideSummarizerConfig,
		ProvideJournal,
		ProvideSummarizer,
		ProvideNamer,
		ProvideLoader,
		ProvideRunner,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeOracle builds only the oracle, for speed tests.
func InitializeOracle(settings *config.Settings) (ai.Oracle, error) {
	wire.Build(ProvideConfigManager, ProvideOracle)
	return nil, nil
}

// InitializeTokenizer builds only the tokenizer, for token inspection.
func InitializeTokenizer(settings *config.Settings) (tokens.Tokenizer, error) {
	wire.Build(ProvideTokenizer)
	return nil, nil
}
