package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/kcaldas/synopsis/internal/di"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/logging"
	"github.com/kcaldas/synopsis/pkg/version"
)

var (
	// Global flags
	configPath string
	verbose    bool
	quiet      bool
	logFormat  string

	debugLog io.Closer
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "synopsis",
	Short: "Condense long documents with a language model",
	Long: `Synopsis splits a long document into sections that fit the model's context,
condenses them round after round, and writes a detailed and a short summary.`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		manager := config.NewConfigManager()
		if manager.GetStringWithDefault("SYNOPSIS_DEBUG_FILE", "") != "" {
			logger, closer := logging.NewFileLoggerFromEnv("synopsis-debug.log")
			logging.SetGlobalLogger(logger)
			debugLog = closer
			return nil
		}

		format := logFormat
		if format == "" {
			format = manager.GetStringWithDefault("SYNOPSIS_LOG_FORMAT", "text")
		}
		logging.SetGlobalLogger(logging.NewCLILogger(verbose, quiet, logging.ParseFormat(format)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if debugLog != nil {
			_ = debugLog.Close()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default ./synopsis.yaml, then ~/.synopsis/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug level, progress per section)")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (errors only)")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	addCommands()
}

// addCommands adds all CLI subcommands to the root command
func addCommands() {
	RootCmd.AddCommand(NewSummarizeCommand(loadSettings, di.InitializeApp))
	RootCmd.AddCommand(NewSpeedtestCommand(loadSettings, di.InitializeOracle))
	RootCmd.AddCommand(NewTokensCommand(loadSettings, di.InitializeTokenizer))
	RootCmd.AddCommand(NewConfigCommand(loadSettings))
	RootCmd.AddCommand(NewRunsCommand(loadSettings))
	RootCmd.AddCommand(NewUpdateCommand())
}

// loadSettings resolves the settings file from --config and applies the
// environment on top.
func loadSettings() (*config.Settings, error) {
	path, err := config.ResolvePath(configPath)
	if err != nil {
		return nil, err
	}
	return config.Load(path, config.NewConfigManager())
}
