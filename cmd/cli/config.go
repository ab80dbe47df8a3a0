package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kcaldas/synopsis/pkg/config"
	"github.com/kcaldas/synopsis/pkg/fileops"
)

// NewConfigCommand groups settings helpers.
func NewConfigCommand(settingsProvider SettingsProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create settings files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default settings to a new file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			err := fileops.NewFileOpsManager().WriteObjectAsYAML(path, config.DefaultSettings())
			if errors.Is(err, fileops.ErrOutputExists) {
				return fmt.Errorf("%s already exists, not overwriting", path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings after file and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := settingsProvider()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	return cmd
}
