package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var (
	checkinDate string
	checkinTime string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin <childId>",
	Short: "Check a child in",
	Long: `Opens an attendance interval. If the child is already checked in on that
date the open interval is kept and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckin,
}

func init() {
	checkinCmd.Flags().StringVar(&checkinDate, "date", "", "Date (YYYY-MM-DD), default today")
	checkinCmd.Flags().StringVar(&checkinTime, "time", "", "Time (HH:MM), default now")
}

func runCheckin(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		child, err := svc.GetChild(ctx, args[0])
		if err != nil {
			return err
		}
		rec, created, err := svc.CheckIn(ctx, child.ID, checkinDate, checkinTime)
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is already checked in since %s\n", child.DisplayName(), rec.CheckIn)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checked in %s on %s at %s\n", child.DisplayName(), rec.Date, rec.CheckIn)
		return nil
	})
}
