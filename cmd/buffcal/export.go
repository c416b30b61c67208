package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"buffcal/internal/events"
	"buffcal/internal/expand"
	appLog "buffcal/internal/log"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		wf     windowFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the occurrences of a window as an ICS file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			batch, err := loadOnce(ctx, cfg)
			if err != nil {
				return err
			}
			now := time.Now()
			_, w, err := wf.window(cfg, now)
			if err != nil {
				return err
			}

			ecfg := expand.ConfigForWindow(w)
			ecfg.MaxOccurrencesPerEvent = cfg.MaxOccurrencesPerEvent
			res := expand.Expand(batch.Events, ecfg)
			for _, e := range res.Errors {
				appLog.Error("export: event skipped", e)
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if err := events.WriteICS(out, res.Occurrences, now); err != nil {
				return err
			}
			appLog.Info("export done", "occurrences", len(res.Occurrences), "output", output)
			return nil
		},
	}

	wf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	return cmd
}
