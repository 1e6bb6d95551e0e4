package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/timecalc"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var (
	checkoutDate string
	checkoutTime string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <childId>",
	Short: "Check a child out",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckout,
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutDate, "date", "", "Date (YYYY-MM-DD), default today")
	checkoutCmd.Flags().StringVar(&checkoutTime, "time", "", "Time (HH:MM), default now")
}

func runCheckout(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		child, err := svc.GetChild(ctx, args[0])
		if err != nil {
			return err
		}
		rec, err := svc.CheckOut(ctx, child.ID, checkoutDate, checkoutTime)
		if err != nil {
			return fmt.Errorf("%s: %w", child.DisplayName(), err)
		}
		minutes, _ := timecalc.DurationMinutes(rec.CheckIn, *rec.CheckOut)
		fmt.Fprintf(cmd.OutOrStdout(), "Checked out %s at %s. Stayed: %s\n",
			child.DisplayName(), *rec.CheckOut, timecalc.FormatDuration(minutes))
		return nil
	})
}
