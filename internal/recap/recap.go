// Package recap aggregates attendance records into per-day and per-period
// totals. It holds no state and performs no I/O.
package recap

import (
	"sort"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/timecalc"
)

// Build groups records dated within [start, end] by day. Closed intervals
// add their duration to the day total; open intervals are listed but add
// nothing. Records with malformed times are listed and count as zero.
// The result only depends on the set of input records, not their order.
func Build(records []model.AttendanceRecord, start, end string) model.Recap {
	inRange := make([]model.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if r.Date >= start && r.Date <= end {
			inRange = append(inRange, r)
		}
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		a, b := inRange[i], inRange[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.CheckIn != b.CheckIn {
			return a.CheckIn < b.CheckIn
		}
		return a.ID < b.ID
	})

	out := model.Recap{Start: start, End: end, Days: []model.DayRecap{}}
	for _, r := range inRange {
		n := len(out.Days)
		if n == 0 || out.Days[n-1].Date != r.Date {
			out.Days = append(out.Days, model.DayRecap{Date: r.Date, Intervals: []model.Interval{}})
			n++
		}
		day := &out.Days[n-1]
		day.Intervals = append(day.Intervals, model.Interval{CheckIn: r.CheckIn, CheckOut: r.CheckOut})
		if r.CheckOut != nil {
			// Unparseable times were rejected on write; count them as zero.
			if d, err := timecalc.DurationMinutes(r.CheckIn, *r.CheckOut); err == nil {
				day.TotalMinutes += d
			}
		}
	}
	for _, d := range out.Days {
		out.TotalMinutes += d.TotalMinutes
	}
	out.TotalFormatted = timecalc.FormatDuration(out.TotalMinutes)
	return out
}
