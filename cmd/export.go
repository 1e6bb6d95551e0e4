package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/timecalc"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var (
	exportFrom   string
	exportTo     string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export <childId>",
	Short: "Export attendance records to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (YYYY-MM-DD), default first of the month")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (YYYY-MM-DD), default today")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json")
}

func runExport(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		from, to := resolvePeriod(svc, exportFrom, exportTo)
		recs, err := svc.QueryRange(ctx, args[0], from, to)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch exportFormat {
		case "json":
			data, err := json.MarshalIndent(recs, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding JSON: %w", err)
			}
			fmt.Fprintln(w, string(data))
		case "csv", "":
			printCSV(w, recs)
		default:
			return model.Invalid("format", "unknown format %q (want csv or json)", exportFormat)
		}
		return nil
	})
}

func printCSV(w io.Writer, recs []model.AttendanceRecord) {
	fmt.Fprintln(w, "id,child_id,date,check_in,check_out,duration_minutes")
	for _, r := range recs {
		checkOut := ""
		durMin := 0
		if r.CheckOut != nil {
			checkOut = *r.CheckOut
			durMin, _ = timecalc.DurationMinutes(r.CheckIn, checkOut)
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%d\n",
			csvEscape(r.ID),
			csvEscape(r.ChildID),
			csvEscape(r.Date),
			csvEscape(r.CheckIn),
			csvEscape(checkOut),
			durMin,
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
