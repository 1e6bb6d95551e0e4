package tracker_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/storage"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

var fixedNow = time.Date(2026, 3, 2, 8, 30, 47, 0, time.Local)

func newService(t *testing.T) *tracker.Service {
	t.Helper()
	st, err := storage.OpenBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tracker.New(st, logger, func() time.Time { return fixedNow })
}

func strp(s string) *string { return &s }

func mustChild(t *testing.T, svc *tracker.Service, first string) model.Child {
	t.Helper()
	c, err := svc.CreateChild(context.Background(), model.NewChild{FirstName: first})
	require.NoError(t, err)
	return c
}

func TestCreateChild(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c, err := svc.CreateChild(ctx, model.NewChild{
		FirstName: "  Emma ",
		LastName:  strp("  "),
		BirthDate: strp("2021-06-15"),
		Notes:     strp(" allergic to nuts "),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Emma", c.FirstName)
	assert.Nil(t, c.LastName, "blank optional becomes absent")
	assert.Equal(t, "allergic to nuts", *c.Notes)
	assert.True(t, c.Active)
	assert.Equal(t, fixedNow.UTC(), c.CreatedAt)

	tests := []struct {
		name string
		in   model.NewChild
	}{
		{"blank first name", model.NewChild{FirstName: "   "}},
		{"bad birth date", model.NewChild{FirstName: "Liam", BirthDate: strp("15.06.2021")}},
		{"impossible birth date", model.NewChild{FirstName: "Liam", BirthDate: strp("2021-02-30")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateChild(ctx, tt.in)
			assert.True(t, model.IsValidation(err), "got %v", err)
		})
	}
}

func TestUpdateChildAndArchive(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")
	mustChild(t, svc, "Liam")

	_, err := svc.UpdateChild(ctx, emma.ID, model.ChildPatch{})
	assert.True(t, model.IsValidation(err))

	_, err = svc.UpdateChild(ctx, emma.ID, model.ChildPatch{FirstName: strp(" ")})
	assert.True(t, model.IsValidation(err))

	_, err = svc.UpdateChild(ctx, emma.ID, model.ChildPatch{BirthDate: model.Some("yesterday")})
	assert.True(t, model.IsValidation(err))

	_, err = svc.UpdateChild(ctx, "missing", model.ChildPatch{Color: model.Some("#fff")})
	assert.ErrorIs(t, err, model.ErrNotFound)

	updated, err := svc.UpdateChild(ctx, emma.ID, model.ChildPatch{LastName: model.Some(" Rossi "), Color: model.Some("#ffcc00")})
	require.NoError(t, err)
	assert.Equal(t, "Rossi", *updated.LastName)

	cleared, err := svc.UpdateChild(ctx, emma.ID, model.ChildPatch{LastName: model.Null()})
	require.NoError(t, err)
	assert.Nil(t, cleared.LastName)
	assert.Equal(t, "#ffcc00", *cleared.Color)

	archived, err := svc.Archive(ctx, emma.ID)
	require.NoError(t, err)
	assert.False(t, archived.Active)

	active, err := svc.ActiveChildren(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Liam", active[0].FirstName)

	arch, err := svc.ArchivedChildren(ctx)
	require.NoError(t, err)
	require.Len(t, arch, 1)
	assert.Equal(t, emma.ID, arch[0].ID)

	_, err = svc.Unarchive(ctx, emma.ID)
	require.NoError(t, err)
	active, err = svc.ActiveChildren(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

// Emma checks in 08:30 and out 12:15, in again 13:00 and out 17:30.
func TestEmmaDay(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")
	day := "2026-03-02"

	status, err := svc.Status(ctx, emma.ID, day)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotArrived, status)

	_, created, err := svc.CheckIn(ctx, emma.ID, day, "08:30")
	require.NoError(t, err)
	assert.True(t, created)

	status, err = svc.Status(ctx, emma.ID, day)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, status)

	_, err = svc.CheckOut(ctx, emma.ID, day, "12:15")
	require.NoError(t, err)
	_, _, err = svc.CheckIn(ctx, emma.ID, day, "13:00")
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, emma.ID, day, "17:30")
	require.NoError(t, err)

	status, err = svc.Status(ctx, emma.ID, day)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLeft, status)

	r, err := svc.Recap(ctx, emma.ID, day, day)
	require.NoError(t, err)
	assert.Equal(t, emma.ID, r.ChildID)
	require.Len(t, r.Days, 1)
	assert.Len(t, r.Days[0].Intervals, 2)
	assert.Equal(t, 495, r.Days[0].TotalMinutes)
	assert.Equal(t, 495, r.TotalMinutes)
	assert.Equal(t, "8h15", r.TotalFormatted)
}

func TestCheckInDefaultsToClock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")

	rec, created, err := svc.CheckIn(ctx, emma.ID, "", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2026-03-02", rec.Date)
	assert.Equal(t, "08:30", rec.CheckIn, "seconds are truncated")
	assert.True(t, rec.Open())
}

func TestCheckInIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")

	first, created, err := svc.CheckIn(ctx, emma.ID, "2026-03-02", "08:30")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.CheckIn(ctx, emma.ID, "2026-03-02", "09:00")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)
}

func TestCheckInOutValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")

	_, _, err := svc.CheckIn(ctx, "", "", "")
	assert.True(t, model.IsValidation(err))

	_, _, err = svc.CheckIn(ctx, emma.ID, "02/03/2026", "")
	assert.True(t, model.IsValidation(err))

	_, _, err = svc.CheckIn(ctx, emma.ID, "", "8:30am")
	assert.True(t, model.IsValidation(err))

	_, _, err = svc.CheckIn(ctx, "missing", "", "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.CheckOut(ctx, emma.ID, "2026-03-02", "12:00")
	assert.ErrorIs(t, err, model.ErrNoOpenInterval)

	_, err = svc.Archive(ctx, emma.ID)
	require.NoError(t, err)
	_, _, err = svc.CheckIn(ctx, emma.ID, "", "")
	assert.True(t, model.IsValidation(err), "archived children cannot be checked in")
}

func TestUpdateRecord(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")

	rec, _, err := svc.CheckIn(ctx, emma.ID, "2026-03-02", "08:30")
	require.NoError(t, err)

	_, err = svc.UpdateRecord(ctx, rec.ID, model.RecordPatch{})
	assert.True(t, model.IsValidation(err))
	_, err = svc.UpdateRecord(ctx, rec.ID, model.RecordPatch{CheckIn: strp("25:00")})
	assert.True(t, model.IsValidation(err))
	_, err = svc.UpdateRecord(ctx, rec.ID, model.RecordPatch{CheckOut: model.Some("noon")})
	assert.True(t, model.IsValidation(err))
	_, err = svc.UpdateRecord(ctx, "missing", model.RecordPatch{CheckIn: strp("08:00")})
	assert.ErrorIs(t, err, model.ErrNotFound)

	closed, err := svc.UpdateRecord(ctx, rec.ID, model.RecordPatch{CheckIn: strp("08:00"), CheckOut: model.Some("12:00")})
	require.NoError(t, err)
	assert.Equal(t, "08:00", closed.CheckIn)
	assert.Equal(t, "12:00", *closed.CheckOut)

	_, _, err = svc.CheckIn(ctx, emma.ID, "2026-03-02", "13:00")
	require.NoError(t, err)
	_, err = svc.UpdateRecord(ctx, rec.ID, model.RecordPatch{CheckOut: model.Null()})
	assert.ErrorIs(t, err, model.ErrOpenIntervalConflict)
}

func TestQueryRangeAndRecapValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")

	_, err := svc.QueryRange(ctx, emma.ID, "2026-03-31", "2026-03-01")
	assert.True(t, model.IsValidation(err))
	_, err = svc.QueryRange(ctx, emma.ID, "", "2026-03-01")
	assert.True(t, model.IsValidation(err))
	_, err = svc.Recap(ctx, "", "2026-03-01", "2026-03-31")
	assert.True(t, model.IsValidation(err))

	r, err := svc.Recap(ctx, emma.ID, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, 0, r.TotalMinutes)
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"days":[]`)
}

func TestBoard(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")
	liam := mustChild(t, svc, "Liam")
	zoe := mustChild(t, svc, "Zoe")

	_, _, err := svc.CheckIn(ctx, emma.ID, "", "07:45")
	require.NoError(t, err)
	_, _, err = svc.CheckIn(ctx, liam.ID, "", "08:00")
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, liam.ID, "", "08:20")
	require.NoError(t, err)
	_, err = svc.Archive(ctx, zoe.ID)
	require.NoError(t, err)
	mustChild(t, svc, "Mia")

	board, err := svc.Board(ctx, "")
	require.NoError(t, err)
	require.Len(t, board, 3)

	got := map[string]model.Status{}
	for _, e := range board {
		got[e.Child.FirstName] = e.Status
	}
	assert.Equal(t, map[string]model.Status{
		"Emma": model.StatusPresent,
		"Liam": model.StatusLeft,
		"Mia":  model.StatusNotArrived,
	}, got)

	_, err = svc.Board(ctx, "March 2nd")
	assert.True(t, model.IsValidation(err))
}

func TestDeleteChildRemovesHistory(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	emma := mustChild(t, svc, "Emma")

	rec, _, err := svc.CheckIn(ctx, emma.ID, "", "")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteChild(ctx, emma.ID))

	_, err = svc.GetChild(ctx, emma.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.GetRecord(ctx, rec.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteChild(ctx, emma.ID), model.ErrNotFound)
}

func TestDefaultPeriod(t *testing.T) {
	svc := newService(t)
	start, end := svc.DefaultPeriod()
	assert.Equal(t, "2026-03-01", start)
	assert.Equal(t, "2026-03-02", end)
}
