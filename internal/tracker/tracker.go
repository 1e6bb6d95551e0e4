// Package tracker implements the child registry and attendance operations
// on top of a storage.Store. It owns input validation and the defaults that
// depend on the wall clock.
package tracker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/recap"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/storage"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/timecalc"
)

// Service is the entry point used by the HTTP API and the CLI.
type Service struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New returns a Service. A nil clock defaults to time.Now.
func New(store storage.Store, logger *slog.Logger, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    clock,
		newID:  func() string { return uuid.NewString() },
	}
}

// ---- children ----

func (s *Service) ListChildren(ctx context.Context) ([]model.Child, error) {
	return s.store.ListChildren(ctx)
}

// ActiveChildren returns the children currently cared for.
func (s *Service) ActiveChildren(ctx context.Context) ([]model.Child, error) {
	return s.filterChildren(ctx, true)
}

// ArchivedChildren returns archived children.
func (s *Service) ArchivedChildren(ctx context.Context) ([]model.Child, error) {
	return s.filterChildren(ctx, false)
}

func (s *Service) filterChildren(ctx context.Context, active bool) ([]model.Child, error) {
	all, err := s.store.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Child{}
	for _, c := range all {
		if c.Active == active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) GetChild(ctx context.Context, id string) (model.Child, error) {
	if strings.TrimSpace(id) == "" {
		return model.Child{}, model.Invalid("id", "is required")
	}
	return s.store.GetChild(ctx, id)
}

// CreateChild registers a new active child.
func (s *Service) CreateChild(ctx context.Context, in model.NewChild) (model.Child, error) {
	first := strings.TrimSpace(in.FirstName)
	if first == "" {
		return model.Child{}, model.Invalid("firstName", "is required")
	}
	birth := trimOptional(in.BirthDate)
	if birth != nil && !timecalc.ValidDate(*birth) {
		return model.Child{}, model.Invalid("birthDate", "must be YYYY-MM-DD, got %q", *birth)
	}
	c := model.Child{
		ID:        s.newID(),
		FirstName: first,
		LastName:  trimOptional(in.LastName),
		BirthDate: birth,
		Notes:     trimOptional(in.Notes),
		Color:     trimOptional(in.Color),
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	created, err := s.store.CreateChild(ctx, c)
	if err != nil {
		return model.Child{}, err
	}
	s.logger.Info("child registered", slog.String("child_id", created.ID))
	return created, nil
}

// UpdateChild applies a partial update. Optional fields set to null are
// cleared; blank strings clear them too.
func (s *Service) UpdateChild(ctx context.Context, id string, patch model.ChildPatch) (model.Child, error) {
	if patch.Empty() {
		return model.Child{}, model.Invalid("", "update contains no fields")
	}
	if patch.FirstName != nil {
		first := strings.TrimSpace(*patch.FirstName)
		if first == "" {
			return model.Child{}, model.Invalid("firstName", "must not be blank")
		}
		patch.FirstName = &first
	}
	patch.LastName = trimPatch(patch.LastName)
	patch.BirthDate = trimPatch(patch.BirthDate)
	patch.Notes = trimPatch(patch.Notes)
	patch.Color = trimPatch(patch.Color)
	if v := patch.BirthDate.Value; v != nil && !timecalc.ValidDate(*v) {
		return model.Child{}, model.Invalid("birthDate", "must be YYYY-MM-DD, got %q", *v)
	}
	return s.store.UpdateChild(ctx, id, patch)
}

func (s *Service) Archive(ctx context.Context, id string) (model.Child, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) Unarchive(ctx context.Context, id string) (model.Child, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) (model.Child, error) {
	return s.UpdateChild(ctx, id, model.ChildPatch{Active: &active})
}

// DeleteChild removes a child and its whole attendance history.
func (s *Service) DeleteChild(ctx context.Context, id string) error {
	if err := s.store.DeleteChild(ctx, id); err != nil {
		return err
	}
	s.logger.Info("child deleted", slog.String("child_id", id))
	return nil
}

// ---- attendance ----

// CheckIn opens an interval for the child. An existing open interval on the
// same date is returned unchanged with created=false. Empty date and clock
// default to now.
func (s *Service) CheckIn(ctx context.Context, childID, date, clock string) (model.AttendanceRecord, bool, error) {
	child, date, clock, err := s.resolveMark(ctx, childID, date, clock)
	if err != nil {
		return model.AttendanceRecord{}, false, err
	}
	if !child.Active {
		return model.AttendanceRecord{}, false, model.Invalid("childId", "child %s is archived", child.ID)
	}
	rec, created, err := s.store.CheckIn(ctx, model.AttendanceRecord{
		ID:      s.newID(),
		ChildID: child.ID,
		Date:    date,
		CheckIn: clock,
	})
	if err != nil {
		return model.AttendanceRecord{}, false, err
	}
	s.logger.Info("checked in",
		slog.String("child_id", child.ID),
		slog.String("date", rec.Date),
		slog.String("time", rec.CheckIn),
		slog.Bool("created", created))
	return rec, created, nil
}

// CheckOut closes the latest open interval of the child on date.
func (s *Service) CheckOut(ctx context.Context, childID, date, clock string) (model.AttendanceRecord, error) {
	child, date, clock, err := s.resolveMark(ctx, childID, date, clock)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	rec, err := s.store.CheckOut(ctx, child.ID, date, clock)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	s.logger.Info("checked out",
		slog.String("child_id", child.ID),
		slog.String("date", date),
		slog.String("time", clock))
	return rec, nil
}

// resolveMark validates the common check-in/check-out inputs and fills the
// clock defaults.
func (s *Service) resolveMark(ctx context.Context, childID, date, clock string) (model.Child, string, string, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return model.Child{}, "", "", model.Invalid("childId", "is required")
	}
	now := s.now()
	if date == "" {
		date = timecalc.Today(now)
	} else if !timecalc.ValidDate(date) {
		return model.Child{}, "", "", model.Invalid("date", "must be YYYY-MM-DD, got %q", date)
	}
	if clock == "" {
		clock = timecalc.ClockNow(now)
	} else if !timecalc.ValidClock(clock) {
		return model.Child{}, "", "", model.Invalid("time", "must be HH:MM, got %q", clock)
	}
	child, err := s.store.GetChild(ctx, childID)
	if err != nil {
		return model.Child{}, "", "", err
	}
	return child, date, clock, nil
}

func (s *Service) GetRecord(ctx context.Context, id string) (model.AttendanceRecord, error) {
	return s.store.GetRecord(ctx, id)
}

// UpdateRecord applies a manual correction. Setting checkOut to null reopens
// the interval, which fails with ErrOpenIntervalConflict when another
// interval of that day is already open.
func (s *Service) UpdateRecord(ctx context.Context, id string, patch model.RecordPatch) (model.AttendanceRecord, error) {
	if patch.Empty() {
		return model.AttendanceRecord{}, model.Invalid("", "update contains no fields")
	}
	if patch.Date != nil && !timecalc.ValidDate(*patch.Date) {
		return model.AttendanceRecord{}, model.Invalid("date", "must be YYYY-MM-DD, got %q", *patch.Date)
	}
	if patch.CheckIn != nil && !timecalc.ValidClock(*patch.CheckIn) {
		return model.AttendanceRecord{}, model.Invalid("checkIn", "must be HH:MM, got %q", *patch.CheckIn)
	}
	if v := patch.CheckOut.Value; v != nil && !timecalc.ValidClock(*v) {
		return model.AttendanceRecord{}, model.Invalid("checkOut", "must be HH:MM, got %q", *v)
	}
	rec, err := s.store.UpdateRecord(ctx, id, patch)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	s.logger.Info("attendance record corrected",
		slog.String("record_id", rec.ID),
		slog.String("child_id", rec.ChildID),
		slog.String("date", rec.Date))
	return rec, nil
}

// QueryRange returns the child's records with start <= date <= end.
func (s *Service) QueryRange(ctx context.Context, childID, start, end string) ([]model.AttendanceRecord, error) {
	if err := validateRange(childID, start, end); err != nil {
		return nil, err
	}
	return s.store.QueryRange(ctx, childID, start, end)
}

// Status derives the child's presence on date. An empty date means today.
func (s *Service) Status(ctx context.Context, childID, date string) (model.Status, error) {
	if strings.TrimSpace(childID) == "" {
		return "", model.Invalid("childId", "is required")
	}
	date, err := s.dateOrToday(date)
	if err != nil {
		return "", err
	}
	recs, err := s.store.QueryByChildAndDate(ctx, childID, date)
	if err != nil {
		return "", err
	}
	return model.StatusOf(recs), nil
}

// Board lists every active child with its status and records on date.
func (s *Service) Board(ctx context.Context, date string) ([]model.BoardEntry, error) {
	date, err := s.dateOrToday(date)
	if err != nil {
		return nil, err
	}
	children, err := s.ActiveChildren(ctx)
	if err != nil {
		return nil, err
	}
	board := make([]model.BoardEntry, 0, len(children))
	for _, c := range children {
		recs, err := s.store.QueryByChildAndDate(ctx, c.ID, date)
		if err != nil {
			return nil, err
		}
		board = append(board, model.BoardEntry{Child: c, Status: model.StatusOf(recs), Records: recs})
	}
	return board, nil
}

// Recap aggregates the child's records over [start, end].
func (s *Service) Recap(ctx context.Context, childID, start, end string) (model.Recap, error) {
	recs, err := s.QueryRange(ctx, childID, start, end)
	if err != nil {
		return model.Recap{}, err
	}
	r := recap.Build(recs, start, end)
	r.ChildID = childID
	return r, nil
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Today returns the service clock's current date.
func (s *Service) Today() string {
	return timecalc.Today(s.now())
}

// DefaultPeriod is the recap period used when none is given: the first of
// the current month through today.
func (s *Service) DefaultPeriod() (string, string) {
	now := s.now()
	return timecalc.MonthStart(now), timecalc.Today(now)
}

func (s *Service) dateOrToday(date string) (string, error) {
	if date == "" {
		return s.Today(), nil
	}
	if !timecalc.ValidDate(date) {
		return "", model.Invalid("date", "must be YYYY-MM-DD, got %q", date)
	}
	return date, nil
}

func validateRange(childID, start, end string) error {
	if strings.TrimSpace(childID) == "" {
		return model.Invalid("childId", "is required")
	}
	if !timecalc.ValidDate(start) {
		return model.Invalid("start", "must be YYYY-MM-DD, got %q", start)
	}
	if !timecalc.ValidDate(end) {
		return model.Invalid("end", "must be YYYY-MM-DD, got %q", end)
	}
	if start > end {
		return model.Invalid("end", "must not be before start (%s > %s)", start, end)
	}
	return nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func trimPatch(o model.Optional) model.Optional {
	if !o.Set {
		return o
	}
	return model.Optional{Set: true, Value: trimOptional(o.Value)}
}
