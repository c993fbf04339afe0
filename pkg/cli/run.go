package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newRunCommand(app *App) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "run [payload...]",
		Short: "Run the discovered plugins as a pipeline",
		Long: `Run threads each payload through every discovered plugin in order, logging
each call with its duration. Several payloads run concurrently, each through
its own pipeline. Without a payload the configured default is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads := args
			if len(payloads) == 0 {
				payloads = []string{app.Config.Pipeline.Payload}
			}

			if schedule == "" {
				return app.runOnce(cmd.Context(), cmd.OutOrStdout(), payloads)
			}
			return app.runScheduled(cmd.Context(), cmd.OutOrStdout(), schedule, payloads)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", `Repeat on a cron schedule until interrupted (e.g. "@every 10s")`)

	return cmd
}

func (a *App) runOnce(ctx context.Context, out io.Writer, payloads []string) error {
	descriptors, err := a.discover()
	if err != nil {
		return err
	}

	if timeout := a.Config.Pipeline.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, fmt.Errorf("pipeline timeout of %v reached", timeout))
		defer cancel()
	}

	executor := a.executor(out)

	if len(payloads) == 1 {
		p, err := executor.Build(descriptors)
		if err != nil {
			return err
		}

		result, err := p.Run(ctx, payloads[0])
		if err != nil {
			return fmt.Errorf("pipeline failed: %w", err)
		}
		printResult(out, result)
		return nil
	}

	results, errs := executor.RunAll(ctx, descriptors, payloads, a.Config.Pipeline.Workers)
	for i, result := range results {
		if errs[i] != nil {
			fmt.Fprintf(out, "%q failed: %v\n", payloads[i], errs[i])
			continue
		}
		printResult(out, result)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}

func (a *App) runScheduled(ctx context.Context, out io.Writer, schedule string, payloads []string) error {
	out = &lockedWriter{w: out}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(schedule, func() {
		if err := a.runOnce(ctx, out, payloads); err != nil {
			if errors.Is(err, plugins.ErrOperationCancelled) {
				return
			}
			a.Logger.Errorf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	c.Start()
	a.Logger.Infof("Running on schedule %s", schedule)

	<-ctx.Done()
	a.Logger.Info("Stopping scheduled runs")

	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

// lockedWriter serializes writes from overlapping scheduled runs
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
