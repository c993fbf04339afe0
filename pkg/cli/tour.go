package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/platinummonkey/plugkit/pkg/builtin"
	"github.com/spf13/cobra"
)

func newTourCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tour",
		Short: "List, run, then inspect the built-in plugins in an isolated context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			printHeading(out, "Discovered plugins")
			descriptors, err := app.discover()
			if err != nil {
				return err
			}
			data, err := encodeDescriptors(OutputText, descriptors)
			if err != nil {
				return err
			}
			if _, err := out.Write(data); err != nil {
				return err
			}

			printHeading(out, "Pipeline run")
			if err := app.runOnce(ctx, out, []string{app.Config.Pipeline.Payload}); err != nil {
				return err
			}

			printHeading(out, "Isolated inspection")
			dir, err := os.MkdirTemp(app.Config.Inspector.TempDir, "plugkit-tour-*")
			if err != nil {
				return fmt.Errorf("failed to create image directory: %w", err)
			}
			defer os.RemoveAll(dir)

			image := filepath.Join(dir, "builtin")
			if err := os.CopyFS(image, builtin.Image()); err != nil {
				return fmt.Errorf("failed to write built-in image: %w", err)
			}

			c := app.newContext()
			if _, err := c.Load(ctx, image); err != nil {
				return err
			}
			summaries, err := c.Summaries()
			if err != nil {
				_ = c.Teardown()
				return err
			}
			if err := writeSummaries(out, OutputText, summaries); err != nil {
				_ = c.Teardown()
				return err
			}

			if err := c.Teardown(); err != nil {
				return err
			}
			printNote(out, "Isolated context %s", c.State())
			return nil
		},
	}
}
