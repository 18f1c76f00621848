package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-support-chatbot/internal/logs"
)

const dateLayout = "2006-01-02"

func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", raw)
		}
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return &t, nil
}

func dateRange(cmd *cobra.Command) (*time.Time, *time.Time, error) {
	startRaw, _ := cmd.Flags().GetString("start")
	endRaw, _ := cmd.Flags().GetString("end")
	start, err := parseDate(startRaw, false)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseDate(endRaw, true)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "Start date, inclusive (YYYY-MM-DD or RFC3339)")
	cmd.Flags().String("end", "", "End date, inclusive (YYYY-MM-DD or RFC3339)")
}

func (r *runner) logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query, summarize and purge interaction logs",
	}

	query := &cobra.Command{
		Use:   "query",
		Short: "Print log entries matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dateRange(cmd)
			if err != nil {
				return err
			}
			f := logs.Filters{StartDate: start, EndDate: end}
			f.InteractionType, _ = cmd.Flags().GetString("type")
			f.SessionID, _ = cmd.Flags().GetString("session")
			f.Status, _ = cmd.Flags().GetString("status")
			f.Limit, _ = cmd.Flags().GetInt("limit")

			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Logs.Query(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	addRangeFlags(query)
	query.Flags().String("type", "", "Interaction type")
	query.Flags().String("session", "", "Session id")
	query.Flags().String("status", "", "Status")
	query.Flags().Int("limit", 0, "Maximum entries (0 = no limit)")
	cmd.AddCommand(query)

	analytics := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize interactions over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dateRange(cmd)
			if err != nil {
				return err
			}

			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tz, _ := cmd.Flags().GetString("tz")
			if tz == "" {
				tz = a.Settings.BusinessHours(cmd.Context()).Timezone
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tz, err)
			}

			summary, err := a.Logs.Summarize(cmd.Context(), start, end, loc)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	addRangeFlags(analytics)
	analytics.Flags().String("tz", "", "Timezone for hour and day buckets (default: timezone setting)")
	cmd.AddCommand(analytics)

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete entries older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")

			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var deleted int
			if days > 0 {
				deleted, err = a.Logs.Purge(cmd.Context(), days)
			} else {
				deleted, err = a.PurgeLogs(cmd.Context())
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", deleted)
			return err
		},
	}
	purge.Flags().Int("days", 0, "Retention in days (default: log_retention_days setting)")
	cmd.AddCommand(purge)

	return cmd
}
