package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var statusDate string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is present today",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusDate, "date", "", "Date (YYYY-MM-DD), default today")
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		date := statusDate
		if date == "" {
			date = svc.Today()
		}
		board, err := svc.Board(ctx, date)
		if err != nil {
			return err
		}
		printBoard(cmd.OutOrStdout(), date, board)
		return nil
	})
}

var statusLabels = map[model.Status]string{
	model.StatusNotArrived: "not arrived",
	model.StatusPresent:    "present",
	model.StatusLeft:       "left",
}

func printBoard(w io.Writer, date string, board []model.BoardEntry) {
	if len(board) == 0 {
		fmt.Fprintln(w, "No active children.")
		return
	}
	present := 0
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(date)
	t.AppendHeader(table.Row{"Child", "Status", "Intervals", "ID"})
	for _, e := range board {
		if e.Status == model.StatusPresent {
			present++
		}
		t.AppendRow(table.Row{e.Child.DisplayName(), statusLabels[e.Status], formatIntervals(e.Records), e.Child.ID})
	}
	t.AppendFooter(table.Row{"Present", present, "", ""})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

// formatIntervals renders records as "08:30–12:15, 13:00–…".
func formatIntervals(recs []model.AttendanceRecord) string {
	parts := make([]string, 0, len(recs))
	for _, r := range recs {
		out := "…"
		if r.CheckOut != nil {
			out = *r.CheckOut
		}
		parts = append(parts, r.CheckIn+"–"+out)
	}
	return strings.Join(parts, ", ")
}
