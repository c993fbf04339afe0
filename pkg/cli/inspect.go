package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/platinummonkey/plugkit/pkg/async"
	"github.com/platinummonkey/plugkit/pkg/sandbox"
	"github.com/spf13/cobra"
)

func newInspectCommand(app *App) *cobra.Command {
	var (
		output string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "List the plugin types of a module image in an isolated context",
		Long: `Inspect loads a module image, a directory or .zip archive holding a
module.yaml and Go sources, into an isolated context and lists the plugin
types it declares. Nothing from the image is executed or added to the host.

With --watch the image is reloaded whenever it changes.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutput(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return app.watchImage(cmd.Context(), cmd.OutOrStdout(), args[0], output)
			}
			return app.inspectImage(cmd.Context(), cmd.OutOrStdout(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", OutputText, "Output format (text, table, json, yaml)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload and print again when the image changes")

	return cmd
}

func (a *App) inspectImage(ctx context.Context, out io.Writer, path, output string) error {
	c := a.newContext()
	defer func() {
		if err := c.Teardown(); err != nil {
			a.Logger.WithError(err).Warn("Failed to tear down isolated context")
		}
	}()

	if _, err := c.Load(ctx, path); err != nil {
		return err
	}

	summaries, err := c.Summaries()
	if err != nil {
		return err
	}

	return writeSummaries(out, output, summaries)
}

func (a *App) watchImage(ctx context.Context, out io.Writer, path, output string) error {
	watcher := sandbox.NewWatcher(path, a.newContext, func(summaries []sandbox.Summary, err error) {
		if err != nil {
			a.Logger.Errorf("Failed to load %s: %v", path, err)
			return
		}
		if err := writeSummaries(out, output, summaries); err != nil {
			a.Logger.WithError(err).Error("Failed to write summaries")
		}
	}, a.Logger)
	watcher.SetDebounce(a.Config.Watch.Debounce)

	a.Health.Register("image", watcher.Healthy)

	var runErr error
	done := async.SafeGo(ctx, 0, "image watcher", a.Logger, func(ctx context.Context) error {
		runErr = watcher.Run(ctx)
		return runErr
	})
	<-done

	if runErr != nil {
		return fmt.Errorf("watch %s: %w", path, runErr)
	}
	return nil
}

func writeSummaries(out io.Writer, output string, summaries []sandbox.Summary) error {
	data, err := encodeSummaries(output, summaries)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
