package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/cache"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
)

// Cached is a read-through cache of per-child record lists in front of a
// Store. After every successful write the child's entry is replaced by a
// fresh full load; cache failures never fail the request.
//
// Each child has a generation that every write bumps. A load only fills the
// cache if the generation it started under is still current, so a slow read
// cannot overwrite the list stored by a later write.
type Cached struct {
	Store
	records *cache.Records
	logger  *slog.Logger

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCached wraps inner with the given record cache.
func NewCached(inner Store, records *cache.Records, logger *slog.Logger) *Cached {
	return &Cached{Store: inner, records: records, logger: logger, generations: map[string]uint64{}}
}

func (c *Cached) generation(childID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[childID]
}

func (c *Cached) bump(childID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[childID]++
	return c.generations[childID]
}

// fill stores recs for childID unless a write happened after gen was taken.
func (c *Cached) fill(ctx context.Context, childID string, gen uint64, recs []model.AttendanceRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[childID] != gen {
		return nil
	}
	return c.records.Replace(ctx, childID, recs)
}

// childRecords returns every record of childID, from the cache when possible.
func (c *Cached) childRecords(ctx context.Context, childID string) ([]model.AttendanceRecord, error) {
	recs, ok, err := c.records.Get(ctx, childID)
	if err != nil {
		c.logger.Warn("record cache read failed", slog.String("child_id", childID), slog.Any("error", err))
	}
	if ok {
		return recs, nil
	}
	gen := c.generation(childID)
	recs, err = c.Store.QueryRange(ctx, childID, MinDate, MaxDate)
	if err != nil {
		return nil, err
	}
	if err := c.fill(ctx, childID, gen, recs); err != nil {
		c.logger.Warn("record cache fill failed", slog.String("child_id", childID), slog.Any("error", err))
	}
	return recs, nil
}

// refresh replaces the cached list of childID after a write.
// A newer concurrent write supersedes this refresh and stores its own list.
func (c *Cached) refresh(ctx context.Context, childID string) {
	gen := c.bump(childID)
	recs, err := c.Store.QueryRange(ctx, childID, MinDate, MaxDate)
	if err == nil {
		if err = c.fill(ctx, childID, gen, recs); err == nil {
			return
		}
	}
	c.logger.Warn("record cache refresh failed, invalidating", slog.String("child_id", childID), slog.Any("error", err))
	if err := c.records.Invalidate(ctx, childID); err != nil {
		c.logger.Error("record cache invalidation failed", slog.String("child_id", childID), slog.Any("error", err))
	}
}

func (c *Cached) QueryRange(ctx context.Context, childID, start, end string) ([]model.AttendanceRecord, error) {
	all, err := c.childRecords(ctx, childID)
	if err != nil {
		return nil, err
	}
	out := []model.AttendanceRecord{}
	for _, r := range all {
		if r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

func (c *Cached) QueryByChildAndDate(ctx context.Context, childID, date string) ([]model.AttendanceRecord, error) {
	return c.QueryRange(ctx, childID, date, date)
}

func (c *Cached) CheckIn(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error) {
	got, created, err := c.Store.CheckIn(ctx, rec)
	if err != nil {
		return got, created, err
	}
	if created {
		c.refresh(ctx, rec.ChildID)
	}
	return got, created, nil
}

func (c *Cached) CheckOut(ctx context.Context, childID, date, at string) (model.AttendanceRecord, error) {
	got, err := c.Store.CheckOut(ctx, childID, date, at)
	if err != nil {
		return got, err
	}
	c.refresh(ctx, childID)
	return got, nil
}

func (c *Cached) UpdateRecord(ctx context.Context, id string, patch model.RecordPatch) (model.AttendanceRecord, error) {
	got, err := c.Store.UpdateRecord(ctx, id, patch)
	if err != nil {
		return got, err
	}
	c.refresh(ctx, got.ChildID)
	return got, nil
}

func (c *Cached) DeleteChild(ctx context.Context, id string) error {
	if err := c.Store.DeleteChild(ctx, id); err != nil {
		return err
	}
	c.bump(id)
	if err := c.records.Invalidate(ctx, id); err != nil {
		c.logger.Warn("record cache invalidation failed", slog.String("child_id", id), slog.Any("error", err))
	}
	return nil
}
