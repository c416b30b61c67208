package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"buffcal/internal/config"
	appLog "buffcal/internal/log"
	"buffcal/internal/refresh"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "buffcal",
		Short: "Calendar of recurring in-game buff events",
		Long: `buffcal loads buff events from a JSON or ICS feed, expands recurring
events over a window starting today and lays them out on month grids.

It can serve the calendar over HTTP, print it as JSON, export occurrences
as an ICS file or capture the rendered page as a PNG.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				appLog.SetLevel(appLog.LevelDebug)
			}
		},
	}
	root.SetVersionTemplate(`{{printf "buffcal version %s\n" .Version}}`)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "./buffcal.yaml", "Path to config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newExportCmd(opts),
		newCaptureCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig loads and validates the config file, including the refresh
// schedule.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", o.configPath)
		return nil, err
	}
	if err := refresh.ValidateSchedule(cfg.RefreshCron); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// parseToday parses a --today value (YYYY-MM-DD) in loc. Empty means now.
func parseToday(s string, loc *time.Location, now time.Time) (time.Time, error) {
	if s == "" {
		return now.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q: %w", s, err)
	}
	return t, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("buffcal version %s\n", version)
		},
	}
}
