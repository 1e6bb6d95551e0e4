package storage_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/storage"
)

func newBunt(t *testing.T) *storage.Bunt {
	t.Helper()
	st, err := storage.OpenBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func strp(s string) *string { return &s }

func openRecord(id, child, date, in string) model.AttendanceRecord {
	return model.AttendanceRecord{ID: id, ChildID: child, Date: date, CheckIn: in}
}

func TestBuntChildrenLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newBunt(t)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, name := range []string{"Zoe", "Emma", "Liam"} {
		_, err := st.CreateChild(ctx, model.Child{ID: fmt.Sprintf("c%d", i), FirstName: name, Active: true, CreatedAt: now})
		require.NoError(t, err)
	}

	list, err := st.ListChildren(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Emma", "Liam", "Zoe"}, []string{list[0].FirstName, list[1].FirstName, list[2].FirstName})

	inactive := false
	updated, err := st.UpdateChild(ctx, "c1", model.ChildPatch{Active: &inactive, Notes: model.Some("picked up by grandma")})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "picked up by grandma", *updated.Notes)

	got, err := st.GetChild(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = st.UpdateChild(ctx, "missing", model.ChildPatch{Active: &inactive})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = st.GetChild(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBuntDeleteChildCascades(t *testing.T) {
	ctx := context.Background()
	st := newBunt(t)

	_, err := st.CreateChild(ctx, model.Child{ID: "emma", FirstName: "Emma", Active: true})
	require.NoError(t, err)
	_, err = st.CreateChild(ctx, model.Child{ID: "emma2", FirstName: "Emma", Active: true})
	require.NoError(t, err)
	_, _, err = st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	_, _, err = st.CheckIn(ctx, openRecord("r2", "emma2", "2026-03-02", "08:40"))
	require.NoError(t, err)

	require.NoError(t, st.DeleteChild(ctx, "emma"))

	recs, err := st.QueryRange(ctx, "emma", storage.MinDate, storage.MaxDate)
	require.NoError(t, err)
	assert.Empty(t, recs)
	_, err = st.GetRecord(ctx, "r1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// A child whose id shares the prefix keeps its records.
	recs, err = st.QueryRange(ctx, "emma2", storage.MinDate, storage.MaxDate)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	assert.ErrorIs(t, st.DeleteChild(ctx, "emma"), model.ErrNotFound)
}

func TestBuntCheckInIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newBunt(t)

	first, created, err := st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := st.CheckIn(ctx, openRecord("r2", "emma", "2026-03-02", "08:45"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	recs, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestBuntCheckOut(t *testing.T) {
	ctx := context.Background()
	st := newBunt(t)

	_, err := st.CheckOut(ctx, "emma", "2026-03-02", "12:00")
	assert.ErrorIs(t, err, model.ErrNoOpenInterval)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, _, err = st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	closed, err := st.CheckOut(ctx, "emma", "2026-03-02", "12:15")
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOut)
	assert.Equal(t, "12:15", *closed.CheckOut)

	_, err = st.CheckOut(ctx, "emma", "2026-03-02", "12:30")
	assert.ErrorIs(t, err, model.ErrNoOpenInterval)

	// Second cycle on the same day.
	_, created, err := st.CheckIn(ctx, openRecord("r2", "emma", "2026-03-02", "13:00"))
	require.NoError(t, err)
	assert.True(t, created)
	_, err = st.CheckOut(ctx, "emma", "2026-03-02", "17:30")
	require.NoError(t, err)

	recs, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "08:30", recs[0].CheckIn)
	assert.Equal(t, "13:00", recs[1].CheckIn)
	assert.Equal(t, model.StatusLeft, model.StatusOf(recs))
}

func TestBuntQueryRangeOrderAndBounds(t *testing.T) {
	ctx := context.Background()
	st := newBunt(t)

	for _, r := range []model.AttendanceRecord{
		{ID: "a", ChildID: "emma", Date: "2026-03-05", CheckIn: "14:00", CheckOut: strp("15:00")},
		{ID: "b", ChildID: "emma", Date: "2026-03-05", CheckIn: "08:00", CheckOut: strp("09:00")},
		{ID: "c", ChildID: "emma", Date: "2026-03-01", CheckIn: "08:00", CheckOut: strp("09:00")},
		{ID: "d", ChildID: "emma", Date: "2026-03-31", CheckIn: "08:00", CheckOut: strp("09:00")},
		{ID: "e", ChildID: "emma", Date: "2026-04-01", CheckIn: "08:00", CheckOut: strp("09:00")},
		{ID: "f", ChildID: "liam", Date: "2026-03-05", CheckIn: "07:00", CheckOut: strp("09:00")},
	} {
		// Seed closed records through check-in followed by a direct edit.
		_, _, err := st.CheckIn(ctx, openRecord(r.ID, r.ChildID, r.Date, r.CheckIn))
		require.NoError(t, err)
		_, err = st.UpdateRecord(ctx, r.ID, model.RecordPatch{CheckOut: model.Some(*r.CheckOut)})
		require.NoError(t, err)
	}

	recs, err := st.QueryRange(ctx, "emma", "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids)

	empty, err := st.QueryRange(ctx, "emma", "2025-01-01", "2025-12-31")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestBuntUpdateRecord(t *testing.T) {
	ctx := context.Background()
	st := newBunt(t)

	_, _, err := st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	_, err = st.CheckOut(ctx, "emma", "2026-03-02", "12:00")
	require.NoError(t, err)
	_, _, err = st.CheckIn(ctx, openRecord("r2", "emma", "2026-03-02", "13:00"))
	require.NoError(t, err)

	// Reopening r1 would create a second open interval on the same day.
	_, err = st.UpdateRecord(ctx, "r1", model.RecordPatch{CheckOut: model.Null()})
	assert.ErrorIs(t, err, model.ErrOpenIntervalConflict)

	// Moving it to another day changes its key and keeps it queryable.
	moved, err := st.UpdateRecord(ctx, "r1", model.RecordPatch{Date: strp("2026-03-03"), CheckIn: strp("08:00")})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", moved.Date)

	sameDay, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, sameDay, 1)
	assert.Equal(t, "r2", sameDay[0].ID)

	got, err := st.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, moved, got)

	// Alone on its day, it may be reopened.
	reopened, err := st.UpdateRecord(ctx, "r1", model.RecordPatch{CheckOut: model.Null()})
	require.NoError(t, err)
	assert.True(t, reopened.Open())

	_, err = st.UpdateRecord(ctx, "missing", model.RecordPatch{CheckIn: strp("08:00")})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// Random interleavings of check-in, check-out and edits never leave more
// than one open record for a (child, date).
func TestBuntOpenIntervalInvariant(t *testing.T) {
	ctx := context.Background()
	st := newBunt(t)
	rng := rand.New(rand.NewSource(7))
	children := []string{"emma", "liam"}
	dates := []string{"2026-03-02", "2026-03-03"}
	var ids []string

	for step := 0; step < 500; step++ {
		child := children[rng.Intn(len(children))]
		date := dates[rng.Intn(len(dates))]
		clock := fmt.Sprintf("%02d:%02d", rng.Intn(24), rng.Intn(60))

		switch rng.Intn(4) {
		case 0, 1:
			id := fmt.Sprintf("r%d", step)
			rec, created, err := st.CheckIn(ctx, openRecord(id, child, date, clock))
			require.NoError(t, err)
			if created {
				ids = append(ids, rec.ID)
			}
		case 2:
			_, err := st.CheckOut(ctx, child, date, clock)
			if err != nil {
				require.ErrorIs(t, err, model.ErrNoOpenInterval)
			}
		case 3:
			if len(ids) == 0 {
				continue
			}
			patch := model.RecordPatch{CheckOut: model.Null()}
			if rng.Intn(2) == 0 {
				patch.Date = &date
			}
			_, err := st.UpdateRecord(ctx, ids[rng.Intn(len(ids))], patch)
			if err != nil && !errors.Is(err, model.ErrOpenIntervalConflict) {
				t.Fatalf("UpdateRecord: %v", err)
			}
		}

		for _, c := range children {
			for _, d := range dates {
				recs, err := st.QueryByChildAndDate(ctx, c, d)
				require.NoError(t, err)
				open := 0
				for _, r := range recs {
					if r.Open() {
						open++
					}
				}
				require.LessOrEqual(t, open, 1, "step %d: %s on %s has %d open records", step, c, d, open)
			}
		}
	}
}

func TestOpenBuntFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tat.db")

	st, err := storage.OpenBunt(path)
	require.NoError(t, err)
	_, err = st.CreateChild(ctx, model.Child{ID: "emma", FirstName: "Emma", Active: true})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := storage.OpenBunt(path)
	require.NoError(t, err)
	defer reopened.Close()
	c, err := reopened.GetChild(ctx, "emma")
	require.NoError(t, err)
	assert.Equal(t, "Emma", c.FirstName)
}
