package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
)

const (
	// MinDate and MaxDate bound "all dates" range queries.
	MinDate = "0001-01-01"
	MaxDate = "9999-12-31"
)

// ChildStore persists the child registry.
type ChildStore interface {
	ListChildren(ctx context.Context) ([]model.Child, error)
	GetChild(ctx context.Context, id string) (model.Child, error)
	CreateChild(ctx context.Context, c model.Child) (model.Child, error)
	UpdateChild(ctx context.Context, id string, patch model.ChildPatch) (model.Child, error)
	// DeleteChild removes the child and all of its attendance records.
	DeleteChild(ctx context.Context, id string) error
}

// RecordStore persists attendance records. Implementations guarantee that
// CheckIn and UpdateRecord never leave two open records for the same child
// and date.
type RecordStore interface {
	// CheckIn returns the open record for (childID, date) if one exists,
	// otherwise inserts rec and reports created=true.
	CheckIn(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error)
	// CheckOut closes the open record of (childID, date) with the latest
	// check-in time.
	CheckOut(ctx context.Context, childID, date, at string) (model.AttendanceRecord, error)
	GetRecord(ctx context.Context, id string) (model.AttendanceRecord, error)
	UpdateRecord(ctx context.Context, id string, patch model.RecordPatch) (model.AttendanceRecord, error)
	// QueryRange returns records with start <= date <= end ordered by date
	// then check-in.
	QueryRange(ctx context.Context, childID, start, end string) ([]model.AttendanceRecord, error)
	QueryByChildAndDate(ctx context.Context, childID, date string) ([]model.AttendanceRecord, error)
}

// Store is the full persistence contract used by the tracker.
type Store interface {
	ChildStore
	RecordStore
	Close() error
}

// BaseDir returns the root data directory: $TAT_HOME or ~/.tat.
func BaseDir() (string, error) {
	if dir := os.Getenv("TAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tat"), nil
}

// sortChildren orders by first name, then creation time, then id.
func sortChildren(children []model.Child) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// sortRecords orders by date, then check-in, then id.
func sortRecords(recs []model.AttendanceRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.CheckIn != b.CheckIn {
			return a.CheckIn < b.CheckIn
		}
		return a.ID < b.ID
	})
}

// latestOpen returns the open record with the greatest check-in time.
func latestOpen(recs []model.AttendanceRecord) (model.AttendanceRecord, bool) {
	var (
		found model.AttendanceRecord
		ok    bool
	)
	for _, r := range recs {
		if !r.Open() {
			continue
		}
		if !ok || r.CheckIn > found.CheckIn {
			found, ok = r, true
		}
	}
	return found, ok
}

// hasOtherOpen reports whether recs holds an open record other than id.
func hasOtherOpen(recs []model.AttendanceRecord, id string) bool {
	for _, r := range recs {
		if r.ID != id && r.Open() {
			return true
		}
	}
	return false
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, model.ErrNotFound)
}
