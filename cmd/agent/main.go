// Command agent runs the agent task worker outside the API process.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hospital-shifts/scheduler/internal/app"
)

var (
	configPath string
	workers    int
	interval   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "agent",
	Short:         "Hospital scheduling agent worker",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll pending agent tasks and process them until interrupted",
	RunE:  runWorker,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent workers (overrides config)")
	runCmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, log, level, err := app.Init(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if workers > 0 {
		cfg.Agent.Workers = workers
	}
	if interval > 0 {
		cfg.Agent.PollInterval = interval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("agent worker starting",
		zap.Int("workers", cfg.Agent.Workers),
		zap.Duration("interval", cfg.Agent.PollInterval),
		zap.String("mode", a.Workflow.Mode()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Dispatcher().Run(gctx) })
	g.Go(func() error { return app.WatchLogLevel(gctx, configPath, level, log) })
	return g.Wait()
}
