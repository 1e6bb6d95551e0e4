package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var (
	editDate   string
	editIn     string
	editOut    string
	editReopen bool
)

var editCmd = &cobra.Command{
	Use:   "edit <recordId>",
	Short: "Correct an attendance record",
	Long: `Changes the date, check-in or check-out time of a record. --reopen clears
the check-out so the child shows as present again.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editDate, "date", "", "New date (YYYY-MM-DD)")
	editCmd.Flags().StringVar(&editIn, "in", "", "New check-in time (HH:MM)")
	editCmd.Flags().StringVar(&editOut, "out", "", "New check-out time (HH:MM)")
	editCmd.Flags().BoolVar(&editReopen, "reopen", false, "Clear the check-out time")
	editCmd.MarkFlagsMutuallyExclusive("out", "reopen")
}

func editPatch() model.RecordPatch {
	var p model.RecordPatch
	p.Date = optionalFlag(editDate)
	p.CheckIn = optionalFlag(editIn)
	switch {
	case editReopen:
		p.CheckOut = model.Null()
	case editOut != "":
		p.CheckOut = model.Some(editOut)
	}
	return p
}

func runEdit(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		rec, err := svc.UpdateRecord(ctx, args[0], editPatch())
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), []model.AttendanceRecord{rec})
		return nil
	})
}
