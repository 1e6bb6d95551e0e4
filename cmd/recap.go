package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/timecalc"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var (
	recapFrom   string
	recapTo     string
	recapWeek   bool
	recapFormat string
)

var recapCmd = &cobra.Command{
	Use:   "recap <childId>",
	Short: "Print an attendance recap for a period",
	Long: `Prints every day of the period with its intervals and total, followed by
the period total. The default period is the current month up to today.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecap,
}

func init() {
	recapCmd.Flags().StringVar(&recapFrom, "from", "", "Start date (YYYY-MM-DD)")
	recapCmd.Flags().StringVar(&recapTo, "to", "", "End date (YYYY-MM-DD)")
	recapCmd.Flags().BoolVar(&recapWeek, "week", false, "Recap the current ISO week")
	recapCmd.Flags().StringVar(&recapFormat, "format", "md", "Output format: md, csv, json")
	recapCmd.MarkFlagsMutuallyExclusive("week", "from")
	recapCmd.MarkFlagsMutuallyExclusive("week", "to")
}

func runRecap(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *tracker.Service) error {
		child, err := svc.GetChild(ctx, args[0])
		if err != nil {
			return err
		}

		var from, to, title string
		if recapWeek {
			monday, sunday := timecalc.WeekRange(svc.Now())
			from, to = timecalc.Today(monday), timecalc.Today(sunday)
			title = fmt.Sprintf("%s – week %s", child.DisplayName(), timecalc.ISOWeekLabel(monday))
		} else {
			from, to = resolvePeriod(svc, recapFrom, recapTo)
			title = fmt.Sprintf("%s – %s to %s", child.DisplayName(), from, to)
		}

		r, err := svc.Recap(ctx, child.ID, from, to)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch recapFormat {
		case "csv":
			writeRecapCSV(w, r)
		case "json":
			return writeRecapJSON(w, r)
		case "md", "":
			writeRecapTable(w, title, r)
		default:
			return model.Invalid("format", "unknown format %q (want md, csv or json)", recapFormat)
		}
		return nil
	})
}

// intervalLabel renders one interval; open ones are marked in progress.
func intervalLabel(iv model.Interval) string {
	if iv.CheckOut == nil {
		return iv.CheckIn + " –  (in progress)"
	}
	return iv.CheckIn + " – " + *iv.CheckOut
}

func writeRecapTable(w io.Writer, title string, r model.Recap) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Date", "Intervals", "Total"})
	for _, d := range r.Days {
		labels := make([]string, 0, len(d.Intervals))
		for _, iv := range d.Intervals {
			labels = append(labels, intervalLabel(iv))
		}
		t.AppendRow(table.Row{d.Date, strings.Join(labels, "\n"), timecalc.FormatDuration(d.TotalMinutes)})
	}
	if len(r.Days) == 0 {
		t.AppendRow(table.Row{"", "no attendance in this period", ""})
	}
	t.AppendFooter(table.Row{"", "Period total", r.TotalFormatted})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func writeRecapCSV(w io.Writer, r model.Recap) {
	fmt.Fprintln(w, "date,check_in,check_out,day_total_minutes")
	for _, d := range r.Days {
		for _, iv := range d.Intervals {
			fmt.Fprintf(w, "%s,%s,%s,%d\n", csvEscape(d.Date), csvEscape(iv.CheckIn), csvEscape(deref(iv.CheckOut)), d.TotalMinutes)
		}
	}
	fmt.Fprintf(w, "total,,,%d\n", r.TotalMinutes)
}

func writeRecapJSON(w io.Writer, r model.Recap) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding recap: %w", err)
	}
	return nil
}
