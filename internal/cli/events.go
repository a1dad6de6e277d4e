package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/config"
	"github.com/rcliao/personal-assistant/internal/events"
)

func init() {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the latest session's event log",
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Count the latest session's events by type",
		Run:   runEventsSummary,
	}

	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest session's last events",
		Run:   runEventsTail,
	}
	tailCmd.Flags().IntP("limit", "l", 10, "Number of events")

	eventsCmd.AddCommand(summaryCmd, tailCmd)
	RootCmd.AddCommand(eventsCmd)
}

// openLatestSession returns a reader over the most recent session in the
// configured sink, or nil when there is none yet.
func openLatestSession(cmd *cobra.Command) (events.Reader, func()) {
	switch cfg.EventSink {
	case config.SinkNone:
		exitErr("events", errors.New("event recording is off (event_sink = none)"))
	case config.SinkSQLite:
		r, err := events.NewSQLiteRecorder(filepath.Join(cfg.LogDir, "events.db"))
		if err != nil {
			exitErr("open event log", err)
		}
		if err := r.ResumeLatest(cmd.Context()); err != nil {
			r.Close()
			if errors.Is(err, events.ErrNoSession) {
				return nil, func() {}
			}
			exitErr("open event log", err)
		}
		return r, func() { r.Close() }
	}
	r, err := events.OpenLatestJSONL(cfg.LogDir)
	if errors.Is(err, events.ErrNoSession) {
		return nil, func() {}
	}
	if err != nil {
		exitErr("open event log", err)
	}
	return r, func() {}
}

func runEventsSummary(cmd *cobra.Command, args []string) {
	r, done := openLatestSession(cmd)
	defer done()

	sum := &events.Summary{}
	if r != nil {
		var err error
		if sum, err = r.Summary(cmd.Context()); err != nil {
			exitErr("events summary", err)
		}
	}
	if formatFlag == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), sum.String())
		return
	}
	printJSON(sum)
}

func runEventsTail(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	r, done := openLatestSession(cmd)
	defer done()

	evs := []events.Event{}
	if r != nil {
		tail, err := r.Tail(cmd.Context(), limit)
		if err != nil {
			exitErr("events tail", err)
		}
		evs = append(evs, tail...)
	}
	if formatFlag == "text" {
		for _, ev := range evs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-14s %v\n", ev.Time.Format("2006-01-02 15:04:05"), ev.Type, ev.Data)
		}
		return
	}
	printJSON(evs)
}
