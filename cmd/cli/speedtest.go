package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kcaldas/synopsis/internal/di"
	"github.com/kcaldas/synopsis/pkg/ai"
)

const speedtestPrompt = "Reply with one short sentence confirming you are ready to summarize text."

type versionReporter interface {
	Version(ctx context.Context) (string, error)
}

type modelLister interface {
	Models(ctx context.Context) ([]string, error)
}

type warmer interface {
	WarmUp(provider string) error
}

type providerLookup interface {
	Provider(name string) (ai.Oracle, error)
}

type unwrapper interface {
	Unwrap() ai.Oracle
}

// NewSpeedtestCommand creates a command that sends one short prompt and
// reports the round trip and throughput.
func NewSpeedtestCommand(settingsProvider SettingsProvider, build OracleBuilder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speedtest",
		Short: "Send one short prompt to the configured oracle and report its speed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := settingsProvider()
			if err != nil {
				return err
			}
			oracle, err := build(settings)
			if err != nil {
				return fmt.Errorf("failed to initialize oracle: %w", err)
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if w, ok := unwrapAll(oracle).(warmer); ok {
				if err := w.WarmUp(settings.Provider); err != nil {
					return fmt.Errorf("failed to initialize oracle: %w", err)
				}
			}

			backend := resolveBackend(oracle, settings.Provider)
			if v, ok := backend.(versionReporter); ok {
				if version, err := v.Version(ctx); err == nil {
					fmt.Fprintf(out, "server version %s\n", version)
				}
			}
			if l, ok := backend.(modelLister); ok {
				if models, err := l.Models(ctx); err == nil {
					fmt.Fprintf(out, "loaded models: %s\n", strings.Join(models, ", "))
				}
			}

			opts := di.ProvideOptions(settings)
			opts.MaxTokens = 32

			fmt.Fprintf(out, "running speed test against %s (%s)...\n", settings.Provider, settings.ModelName)
			start := time.Now()
			resp, err := oracle.Generate(ctx, speedtestPrompt, opts)
			if err != nil {
				return fmt.Errorf("speed test failed: %w", err)
			}
			elapsed := time.Since(start)

			if resp.HasTiming() {
				fmt.Fprintf(out, "...done in %.1f seconds (%.0f t/s).\n", resp.Duration.Seconds(), resp.Throughput())
			} else {
				fmt.Fprintf(out, "...done in %.1f seconds.\n", elapsed.Seconds())
			}
			fmt.Fprintf(out, "response: %s\n", resp.Text)
			return nil
		},
	}
	return cmd
}

// resolveBackend peels middleware and multiplexing off oracle to reach the
// concrete backend for provider. It returns oracle when that is not possible.
func resolveBackend(oracle ai.Oracle, provider string) ai.Oracle {
	current := unwrapAll(oracle)
	if p, ok := current.(providerLookup); ok {
		if backend, err := p.Provider(provider); err == nil {
			return backend
		}
	}
	return current
}

func unwrapAll(oracle ai.Oracle) ai.Oracle {
	for {
		u, ok := oracle.(unwrapper)
		if !ok {
			return oracle
		}
		oracle = u.Unwrap()
	}
}
