package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kcaldas/synopsis/pkg/batch"
	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/loader"
)

const stdinTarget = "-"

var errNoStdin = errors.New("no input piped to stdin")

// NewSummarizeCommand creates the summarize command. The target is a file, a
// folder, or "-" for stdin.
func NewSummarizeCommand(settingsProvider SettingsProvider, build AppBuilder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <file|folder|->",
		Short: "Summarize a document, every document in a folder, or stdin",
		Long: fmt.Sprintf(`Summarize writes <name>-detailed.txt and <name>-short.txt next to each input
(names come from output_filenames). Inputs whose outputs already exist are
skipped. Supported formats: %v. With "-" the text is read from stdin and both
summaries are printed instead of written.`, loader.Extensions()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := settingsProvider()
			if err != nil {
				return err
			}
			if err := applyOverrides(cmd, settings); err != nil {
				return err
			}
			return runSummarize(cmd, args[0], settings, build)
		},
	}

	cmd.Flags().String("provider", "", "oracle provider (ollama, openai, anthropic, genai, lmstudio)")
	cmd.Flags().String("model", "", "model name")
	cmd.Flags().String("strength", "", "backstory strength (none, weak, strong)")
	cmd.Flags().Int("max-rounds", 0, "give up after this many rounds (0 = unbounded)")
	cmd.Flags().String("journal", "", "record every response in this SQLite file")
	cmd.Flags().Bool("print", false, "print the short summary after writing it")

	return cmd
}

// applyOverrides copies explicitly set flags over settings and revalidates.
func applyOverrides(cmd *cobra.Command, settings *config.Settings) error {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		settings.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("model") {
		settings.ModelName, _ = flags.GetString("model")
	}
	if flags.Changed("strength") {
		settings.BackstoryStrength, _ = flags.GetString("strength")
	}
	if flags.Changed("max-rounds") {
		settings.MaxRounds, _ = flags.GetInt("max-rounds")
	}
	if flags.Changed("journal") {
		settings.Journal, _ = flags.GetString("journal")
	}
	return settings.Validate()
}

func runSummarize(cmd *cobra.Command, target string, settings *config.Settings, build AppBuilder) error {
	app, cleanup, err := build(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize synopsis: %w", err)
	}
	defer cleanup()

	if isVerbose(cmd) {
		subscribeProgress(app.Bus, cmd.ErrOrStderr())
	}

	ctx := cmd.Context()
	render := stdoutIsTerminal()

	if target == stdinTarget {
		if !hasStdinInput() {
			return errNoStdin
		}
		text, err := readStdinInput(cmd.InOrStdin())
		if err != nil {
			return err
		}
		result, err := app.Summarizer.Summarize(ctx, "stdin", text)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := printSummary(out, "Detailed summary", result.Detailed, render); err != nil {
			return err
		}
		return printSummary(out, "Short summary", result.Short, render)
	}

	report, runErr := app.Runner.Run(ctx, target)
	printReport(cmd.OutOrStdout(), report)

	if printShort, _ := cmd.Flags().GetBool("print"); printShort && runErr == nil {
		for _, o := range report.Outcomes {
			if o.Skipped != "" || o.Err != nil {
				continue
			}
			short, err := app.Loader.Load(o.Outputs.Short)
			if err != nil {
				return err
			}
			if err := printSummary(cmd.OutOrStdout(), filepath.Base(o.Input), short, render); err != nil {
				return err
			}
		}
	}
	return runErr
}

func printReport(w io.Writer, report batch.Report) {
	for _, o := range report.Outcomes {
		name := filepath.Base(o.Input)
		switch {
		case o.Err != nil:
			fmt.Fprintf(w, "failed     %s: %v\n", name, o.Err)
		case o.Skipped != "":
			fmt.Fprintf(w, "skipped    %s (%s)\n", name, o.Skipped)
		default:
			fmt.Fprintf(w, "summarized %s in %d rounds, %s -> %s, %s\n", name, o.Rounds,
				o.Elapsed.Round(time.Second), filepath.Base(o.Outputs.Detailed), filepath.Base(o.Outputs.Short))
		}
	}
	fmt.Fprintf(w, "%d of %d documents summarized\n", report.Processed(), len(report.Outcomes))
}
