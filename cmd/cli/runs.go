package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kcaldas/synopsis/pkg/journal"
)

var errNoJournal = errors.New("no journal configured; set journal in the settings file or SYNOPSIS_JOURNAL")

// NewRunsCommand lists the runs recorded in the journal.
func NewRunsCommand(settingsProvider SettingsProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List summarization runs recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := settingsProvider()
			if err != nil {
				return err
			}
			if settings.Journal == "" {
				return errNoJournal
			}

			store, err := journal.Open(settings.Journal)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSOURCE\tSTATUS\tSTARTED\tRESPONSES\tERROR")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID[:8], r.Source, r.Status, r.StartedAt.Local().Format(time.DateTime), r.Responses, r.Error)
			}
			return tw.Flush()
		},
	}
	return cmd
}
