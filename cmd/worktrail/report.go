package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktrail/internal/core/timeline"
	"worktrail/internal/storage"
	"worktrail/internal/ui/dashboard"
)

func reportCmd(config *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize worked time per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := cmd.Flags().GetInt("days")
			if err != nil {
				return err
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			byTag, err := cmd.Flags().GetBool("tags")
			if err != nil {
				return err
			}
			opts, err := resolveOptions(config)
			if err != nil {
				return err
			}
			records, err := storage.NewRecords(opts.dataDir)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), records, time.Now(), days, byTag)
		},
	}

	cmd.Flags().IntP("days", "d", 7, "number of days to include, ending today")
	cmd.Flags().Bool("tags", false, "also total worked time per tag")
	return cmd
}

func writeReport(out io.Writer, records *storage.Records, now time.Time, days int, byTag bool) error {
	first := now.AddDate(0, 0, -(days - 1))
	var total time.Duration
	tagTotals := map[string]time.Duration{}

	fmt.Fprintf(out, "Worked time, last %d day(s)\n", days)
	fmt.Fprintln(out, strings.Repeat("=", 40))
	for day := 0; day < days; day++ {
		document, err := records.LoadDay(first.AddDate(0, 0, day))
		if err != nil {
			return err
		}
		worked := time.Duration(document.Totals.WorkedDuration) * time.Millisecond
		total += worked
		fmt.Fprintf(out, "%s  %s  (%d sessions)\n", document.Date, dashboard.FormatDuration(worked), document.Totals.SessionCount)
		for _, session := range document.Sessions {
			if !session.Sealed() {
				fmt.Fprintf(out, "    %-28s running\n", session.Title)
				continue
			}
			sessionWorked := timeline.FinalizedDuration(session)
			fmt.Fprintf(out, "    %-28s %s\n", session.Title, dashboard.FormatDuration(sessionWorked))
			for _, tag := range session.Tags {
				tagTotals[tag] += sessionWorked
			}
		}
	}
	fmt.Fprintf(out, "%-10s  %s\n", "TOTAL", dashboard.FormatDuration(total))

	if byTag && len(tagTotals) > 0 {
		tags := make([]string, 0, len(tagTotals))
		for tag := range tagTotals {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		fmt.Fprintln(out, "\nBy tag:")
		for _, tag := range tags {
			fmt.Fprintf(out, "  %-20s %s\n", tag, dashboard.FormatDuration(tagTotals[tag]))
		}
	}
	return nil
}
