package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"buffcal/internal/capture"
	"buffcal/internal/config"
	"buffcal/internal/events"
	appLog "buffcal/internal/log"
	"buffcal/internal/metrics"
	"buffcal/internal/refresh"
	"buffcal/internal/web"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar over HTTP and refresh events on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			// --listen overrides the config file.
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, cancel := signalContext()
			defer cancel()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"horizon_days", cfg.HorizonDays,
		"refresh", cfg.RefreshCron,
		"source_type", cfg.Source.Type,
		"demo_fallback", cfg.DemoFallback,
		"capture", cfg.Capture.Enabled,
	)

	m := metrics.New()
	r := refresh.New(events.NewLoader(cfg), m)

	// The first load may fail without demo fallback; the server then
	// answers 503 until a scheduled refresh succeeds.
	if err := r.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	srv := web.NewServer(cfg, r, web.WithMetrics(m))
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	if cfg.Capture.Enabled {
		opts := capture.OptionsFromConfig(cfg)
		opts.URL = "http://" + ln.Addr().String() + "/calendar"
		r.OnRefresh = func(ctx context.Context, _ events.Batch) {
			runCapture(ctx, opts)
		}
		go runCapture(ctx, opts)
	}

	if err := r.Start(ctx, cfg.RefreshCron); err != nil {
		_ = ln.Close()
		return err
	}
	defer r.Stop()

	err = srv.Serve(ctx, ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	appLog.Info("buffcal exiting")
	return err
}

// runCapture writes a PNG of the calendar page. Failures are logged only.
func runCapture(ctx context.Context, opts capture.Options) {
	if err := capture.CalendarPNG(ctx, opts); err != nil {
		appLog.Error("calendar capture failed", err, "output", opts.OutputPath)
	}
}
