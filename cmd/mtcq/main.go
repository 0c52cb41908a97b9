package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lu-w/stars-logic-mtcq/internal/config"
	"github.com/lu-w/stars-logic-mtcq/internal/logging"
)

// rootOptions are the global flags.
type rootOptions struct {
	configPath string
	verbose    bool
	timeout    time.Duration

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mtcq",
		Short: "Evaluate Datalog queries over recorded driving scenarios",
		Long: `mtcq turns every tick of a recorded scenario segment into a knowledge-base
snapshot (template facts plus the facts of the observed objects) and evaluates
Google Mangle queries over the resulting sequence.

A query is Mangle source: optional rules followed by a final ?goal line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if err := logging.Initialize(cfg.Logging.Options()); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "mtcq.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(newEvalCmd(opts))
	rootCmd.AddCommand(newFactsCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	return rootCmd
}

// newApp builds the pipeline from the loaded config with a fresh registry.
func (o *rootOptions) newApp() (*app, error) {
	return newApp(o.cfg, prometheus.NewRegistry())
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if o.timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, o.timeout)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
