package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"buffcal/internal/calendar"
	"buffcal/internal/config"
	"buffcal/internal/dateutil"
	"buffcal/internal/events"
	"buffcal/internal/model"
	"buffcal/internal/web"
)

// windowFlags are shared by commands that work on a window of days.
type windowFlags struct {
	today string
	days  int
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.today, "today", "", "First day of the window (YYYY-MM-DD); defaults to the current date")
	cmd.Flags().IntVar(&f.days, "days", 0, "Number of days in the window (defaults to horizon_days)")
}

// window resolves the flags against cfg.
func (f *windowFlags) window(cfg *config.Config, now time.Time) (time.Time, model.Window, error) {
	loc := web.ResolveLocationOrLocal(cfg.Timezone)
	today, err := parseToday(f.today, loc, now)
	if err != nil {
		return time.Time{}, model.Window{}, err
	}
	days := f.days
	if days <= 0 {
		days = cfg.HorizonDays
	}
	return today, model.NewWindow(today, days), nil
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		wf     windowFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Load events once and print the calendar for a window",
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
			today, w, err := wf.window(cfg, time.Now())
			if err != nil {
				return err
			}

			v := calendar.Build(batch.Events, w, today, calendar.Options{
				MaxOccurrencesPerEvent: cfg.MaxOccurrencesPerEvent,
			})
			return renderView(cmd.OutOrStdout(), format, v, batch)
		},
	}

	wf.register(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or text")
	return cmd
}

func renderView(out io.Writer, format string, v calendar.View, batch events.Batch) error {
	switch format {
	case "json":
		return web.EncodeCalendar(out, v, batch)
	case "text":
		return renderText(out, v, batch)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// renderText prints one line per day followed by that day's segments.
func renderText(out io.Writer, v calendar.View, batch events.Batch) error {
	if batch.Demo {
		if _, err := fmt.Fprintln(out, "# demo events: the feed is unavailable"); err != nil {
			return err
		}
	}
	for i, segs := range v.Days {
		day := dateutil.AddDays(v.Window.Start, i)
		marker := ""
		if dateutil.IsSameDay(day, v.Today) {
			marker = " (today)"
		}
		if _, err := fmt.Fprintf(out, "%s%s\n", day.Format("Mon 2006-01-02"), marker); err != nil {
			return err
		}
		for _, seg := range segs {
			if _, err := fmt.Fprintf(out, "  %s-%s  %s\n",
				seg.Start.Format("15:04"), seg.End.Format("15:04"), seg.Type.Label()); err != nil {
				return err
			}
		}
	}
	for _, e := range append(append([]error{}, batch.Errors...), v.Expand.Errors...) {
		if _, err := fmt.Fprintf(out, "! %v\n", e); err != nil {
			return err
		}
	}
	return nil
}

// loadOnce loads the feed once for commands that do not serve.
func loadOnce(ctx context.Context, cfg *config.Config) (events.Batch, error) {
	b, err := events.NewLoader(cfg).Load(ctx)
	if err != nil {
		return events.Batch{}, fmt.Errorf("load events: %w", err)
	}
	return b, nil
}
