package main

import (
	"context"

	"github.com/spf13/cobra"

	"buffcal/internal/capture"
	"buffcal/internal/config"
	"buffcal/internal/events"
	"buffcal/internal/refresh"
	"buffcal/internal/web"
)

func newCaptureCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Load events once and capture the calendar page as a PNG",
		Long: `capture serves the calendar on a temporary local port, renders it in
headless Chromium and writes the screenshot. Chromium must be installed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Capture.Output = output
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runCaptureOnce(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG output path (overrides capture.output)")
	return cmd
}

func runCaptureOnce(ctx context.Context, cfg *config.Config) error {
	r := refresh.New(events.NewLoader(cfg), nil)
	if err := r.Refresh(ctx); err != nil {
		return err
	}

	local := *cfg
	local.Listen = "127.0.0.1:0"
	local.BasicAuth = nil
	srv := web.NewServer(&local, r)
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	srvCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(srvCtx, ln) }()

	opts := capture.OptionsFromConfig(cfg)
	opts.URL = "http://" + ln.Addr().String() + "/calendar"
	capErr := capture.CalendarPNG(ctx, opts)

	stop()
	if err := <-done; err != nil && capErr == nil {
		return err
	}
	return capErr
}
