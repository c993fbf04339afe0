package cli

import (
	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins in execution order",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutput(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors, err := app.discover()
			if err != nil {
				return err
			}

			data, err := encodeDescriptors(output, descriptors)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", OutputText, "Output format (text, table, json, yaml)")

	return cmd
}
