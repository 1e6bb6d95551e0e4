package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/timecalc"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var (
	listFrom string
	listTo   string
)

var listCmd = &cobra.Command{
	Use:   "list <childId>",
	Short: "List attendance records of a child",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "Start date (YYYY-MM-DD), default first of the month")
	listCmd.Flags().StringVar(&listTo, "to", "", "End date (YYYY-MM-DD), default today")
}

// resolvePeriod fills missing bounds with the default recap period.
func resolvePeriod(svc *tracker.Service, from, to string) (string, string) {
	defFrom, defTo := svc.DefaultPeriod()
	if from == "" {
		from = defFrom
	}
	if to == "" {
		to = defTo
	}
	return from, to
}

func runList(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		from, to := resolvePeriod(svc, listFrom, listTo)
		recs, err := svc.QueryRange(ctx, args[0], from, to)
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), recs)
		return nil
	})
}

// printList groups records by date and prints them.
func printList(w io.Writer, recs []model.AttendanceRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	var currentDay string
	for _, r := range recs {
		if r.Date != currentDay {
			fmt.Fprintln(w, r.Date)
			currentDay = r.Date
		}

		endStr := "present"
		durStr := ""
		if r.CheckOut != nil {
			endStr = *r.CheckOut
			if m, err := timecalc.DurationMinutes(r.CheckIn, *r.CheckOut); err == nil {
				durStr = fmt.Sprintf(" (%s)", timecalc.FormatDuration(m))
			}
		}
		fmt.Fprintf(w, "  %s–%s%s  %s\n", r.CheckIn, endStr, durStr, r.ID)
	}
}
