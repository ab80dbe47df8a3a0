package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kcaldas/synopsis/pkg/document"
	"github.com/kcaldas/synopsis/pkg/loader"
)

// NewTokensCommand creates a command that loads documents and reports how
// they measure against the model token limit.
func NewTokensCommand(settingsProvider SettingsProvider, build TokenizerBuilder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens <file>...",
		Short: "Count sentences and tokens of documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := settingsProvider()
			if err != nil {
				return err
			}
			tokenizer, err := build(settings)
			if err != nil {
				return err
			}
			ld := loader.New()
			out := cmd.OutOrStdout()

			for _, path := range args {
				text, err := ld.Load(path)
				if err != nil {
					return err
				}
				doc := document.New(text, tokenizer)
				sections := float64(doc.Tokens()) / float64(settings.ModelTokenLimit)
				fmt.Fprintf(out, "%s: %d sentences, %d tokens, %d characters (~%.1f x model limit of %d)\n",
					path, doc.Len(), doc.Tokens(), doc.Chars(), sections, settings.ModelTokenLimit)
			}
			return nil
		},
	}
	return cmd
}
