package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kcaldas/synopsis/internal/di"
	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/tokens"
	"github.com/kcaldas/synopsis/pkg/version"
)

// SettingsProvider returns the effective settings of one invocation.
type SettingsProvider func() (*config.Settings, error)

// AppBuilder assembles the summarize pipeline. The cleanup must run once the
// command is done.
type AppBuilder func(*config.Settings) (*di.App, func(), error)

// OracleBuilder assembles only the oracle.
type OracleBuilder func(*config.Settings) (ai.Oracle, error)

// TokenizerBuilder assembles only the tokenizer.
type TokenizerBuilder func(*config.Settings) (tokens.Tokenizer, error)

// Execute runs the CLI with all commands and exits non-zero on failure.
func Execute(ctx context.Context) {
	RootCmd.SetVersionTemplate(version.GetInfo().String() + "\n")
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isVerbose reads the persistent --verbose flag from wherever cmd sits.
func isVerbose(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("verbose")
	if flag == nil {
		return false
	}
	return flag.Value.String() == "true"
}
