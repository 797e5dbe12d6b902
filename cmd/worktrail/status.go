package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktrail/internal/core/model"
	"worktrail/internal/core/timeline"
	"worktrail/internal/storage"
	"worktrail/internal/ui/dashboard"
)

func statusCmd(config *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running session and today's totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(config)
			if err != nil {
				return err
			}
			records, err := storage.NewRecords(opts.dataDir)
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), records, time.Now())
		},
	}
}

func writeStatus(out io.Writer, records *storage.Records, now time.Time) error {
	recent, err := records.SessionsInRange(now.AddDate(0, 0, -1), now)
	if err != nil {
		return err
	}
	today, err := records.LoadDay(now)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "WorkTrail Status")
	fmt.Fprintln(out, strings.Repeat("=", 40))

	active := latestActive(recent)
	if active == nil {
		fmt.Fprintln(out, "Session:  none running")
	} else {
		state := "working"
		if active.IsPaused {
			state = "paused"
		}
		fmt.Fprintf(out, "Session:  %s (%s)\n", active.Title, state)
		fmt.Fprintf(out, "Started:  %s\n", active.StartTime.Local().Format("15:04"))
		fmt.Fprintf(out, "Worked:   %s\n", dashboard.FormatDuration(timeline.LiveDuration(*active, now)))
	}

	fmt.Fprintf(out, "\nToday (%s):\n", today.Date)
	fmt.Fprintf(out, "  Sessions: %d\n", today.Totals.SessionCount)
	fmt.Fprintf(out, "  Worked:   %s\n", dashboard.FormatDuration(time.Duration(today.Totals.WorkedDuration)*time.Millisecond))
	return nil
}

func latestActive(sessions []model.WorkSession) *model.WorkSession {
	var latest *model.WorkSession
	for i := range sessions {
		session := sessions[i]
		if !session.IsActive || session.Sealed() {
			continue
		}
		if latest == nil || session.StartTime.After(latest.StartTime) {
			latest = &session
		}
	}
	return latest
}
