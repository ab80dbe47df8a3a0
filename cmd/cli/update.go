package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kcaldas/synopsis/pkg/update"
)

// NewUpdateCommand creates the self-update command.
func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update synopsis to the latest release",
		Long: `Update synopsis to the latest version from GitHub releases.

Examples:
  synopsis update            # Update to latest version
  synopsis update --check    # Check for updates without updating
  synopsis update --force    # Reinstall even if already current`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checkOnly, _ := cmd.Flags().GetBool("check")
			force, _ := cmd.Flags().GetBool("force")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			updater, err := update.NewUpdater()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if checkOnly {
				info, err := updater.Check(ctx)
				if err != nil {
					return fmt.Errorf("failed to check for updates: %w", err)
				}
				fmt.Fprintf(out, "Current version: %s\nLatest version: %s\n", info.CurrentVersion, info.LatestVersion)
				if info.UpdateNeeded {
					if info.ReleaseNotes != "" {
						fmt.Fprintf(out, "\nRelease Notes:\n%s\n", info.ReleaseNotes)
					}
					fmt.Fprintln(out, "\nRun 'synopsis update' to install it.")
				} else {
					fmt.Fprintln(out, "You are already using the latest version.")
				}
				return nil
			}

			info, err := updater.Update(ctx, force)
			if err != nil {
				return err
			}
			if !info.UpdateNeeded && !force {
				fmt.Fprintf(out, "Already using the latest version (%s). Use --force to reinstall.\n", info.LatestVersion)
				return nil
			}
			fmt.Fprintf(out, "Updated from %s to %s.\n", info.CurrentVersion, info.LatestVersion)
			return nil
		},
	}

	cmd.Flags().Bool("check", false, "Check for updates without updating")
	cmd.Flags().Bool("force", false, "Reinstall even if the current version is the latest")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Timeout for the update operation")
	return cmd
}
