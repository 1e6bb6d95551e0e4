package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/buntdb"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
)

// Bunt is the embedded, file-backed Store. Every write runs in a single
// exclusive buntdb transaction, so check-then-insert sequences are atomic.
//
// Key layout:
//
//	child:<id>                      child JSON
//	rec:<childId>:<date>:<id>       record JSON
//	recid:<id>                      key of the record above
type Bunt struct {
	db *buntdb.DB
}

// OpenBunt opens (or creates) the database at path. ":memory:" keeps
// everything in memory.
func OpenBunt(path string) (*Bunt, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, model.Unavailable("creating data directory", err)
		}
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, model.Unavailable(fmt.Sprintf("opening %s", path), err)
	}
	return NewBunt(db), nil
}

// NewBunt wraps an already opened database.
func NewBunt(db *buntdb.DB) *Bunt {
	return &Bunt{db: db}
}

func (b *Bunt) Close() error {
	return b.db.Close()
}

func childKey(id string) string { return "child:" + id }

func recordKey(r model.AttendanceRecord) string {
	return fmt.Sprintf("rec:%s:%s:%s", r.ChildID, r.Date, r.ID)
}

func recordIDKey(id string) string { return "recid:" + id }

func decode[T any](key, raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("corrupt JSON at %s: %w", key, err)
	}
	return v, nil
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	return string(data), nil
}

// wrap classifies buntdb failures; domain errors pass through unchanged.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrOpenIntervalConflict) || model.IsValidation(err) {
		return err
	}
	return model.Unavailable(op, err)
}

func (b *Bunt) ListChildren(_ context.Context) ([]model.Child, error) {
	children := []model.Child{}
	err := b.db.View(func(tx *buntdb.Tx) error {
		var derr error
		iterErr := tx.AscendKeys("child:*", func(key, value string) bool {
			c, err := decode[model.Child](key, value)
			if err != nil {
				derr = err
				return false
			}
			children = append(children, c)
			return true
		})
		if iterErr != nil {
			return iterErr
		}
		return derr
	})
	if err != nil {
		return nil, wrap("listing children", err)
	}
	sortChildren(children)
	return children, nil
}

func getChild(tx *buntdb.Tx, id string) (model.Child, error) {
	raw, err := tx.Get(childKey(id))
	if errors.Is(err, buntdb.ErrNotFound) {
		return model.Child{}, notFound("child", id)
	}
	if err != nil {
		return model.Child{}, err
	}
	return decode[model.Child](childKey(id), raw)
}

func (b *Bunt) GetChild(_ context.Context, id string) (model.Child, error) {
	var c model.Child
	err := b.db.View(func(tx *buntdb.Tx) error {
		var err error
		c, err = getChild(tx, id)
		return err
	})
	return c, wrap("reading child", err)
}

func (b *Bunt) CreateChild(_ context.Context, c model.Child) (model.Child, error) {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		raw, err := encode(c)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(childKey(c.ID), raw, nil)
		return err
	})
	if err != nil {
		return model.Child{}, wrap("creating child", err)
	}
	return c, nil
}

func (b *Bunt) UpdateChild(_ context.Context, id string, patch model.ChildPatch) (model.Child, error) {
	var updated model.Child
	err := b.db.Update(func(tx *buntdb.Tx) error {
		c, err := getChild(tx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(c)
		raw, err := encode(updated)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(childKey(id), raw, nil)
		return err
	})
	if err != nil {
		return model.Child{}, wrap("updating child", err)
	}
	return updated, nil
}

func (b *Bunt) DeleteChild(_ context.Context, id string) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Delete(childKey(id)); err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return notFound("child", id)
			}
			return err
		}
		recs, err := scanRecords(tx, id, MinDate, MaxDate)
		if err != nil {
			return err
		}
		for _, r := range recs {
			if _, err := tx.Delete(recordKey(r)); err != nil {
				return err
			}
			if _, err := tx.Delete(recordIDKey(r.ID)); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	return wrap("deleting child", err)
}

// scanRecords walks the keys of childID between start and end inclusive.
func scanRecords(tx *buntdb.Tx, childID, start, end string) ([]model.AttendanceRecord, error) {
	recs := []model.AttendanceRecord{}
	prefix := "rec:" + childID + ":"
	// ';' sorts right after ':', so every key of the end date is included.
	var derr error
	err := tx.AscendRange("", prefix+start, prefix+end+";", func(key, value string) bool {
		r, err := decode[model.AttendanceRecord](key, value)
		if err != nil {
			derr = err
			return false
		}
		recs = append(recs, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	if derr != nil {
		return nil, derr
	}
	sortRecords(recs)
	return recs, nil
}

func getRecord(tx *buntdb.Tx, id string) (model.AttendanceRecord, error) {
	key, err := tx.Get(recordIDKey(id))
	if errors.Is(err, buntdb.ErrNotFound) {
		return model.AttendanceRecord{}, notFound("attendance record", id)
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	raw, err := tx.Get(key)
	if errors.Is(err, buntdb.ErrNotFound) {
		return model.AttendanceRecord{}, notFound("attendance record", id)
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	return decode[model.AttendanceRecord](key, raw)
}

func putRecord(tx *buntdb.Tx, r model.AttendanceRecord) error {
	raw, err := encode(r)
	if err != nil {
		return err
	}
	if _, _, err := tx.Set(recordKey(r), raw, nil); err != nil {
		return err
	}
	_, _, err = tx.Set(recordIDKey(r.ID), recordKey(r), nil)
	return err
}

func (b *Bunt) CheckIn(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error) {
	var (
		result  model.AttendanceRecord
		created bool
	)
	err := b.db.Update(func(tx *buntdb.Tx) error {
		sameDay, err := scanRecords(tx, rec.ChildID, rec.Date, rec.Date)
		if err != nil {
			return err
		}
		if open, ok := latestOpen(sameDay); ok {
			result = open
			return nil
		}
		rec.CheckOut = nil
		if err := putRecord(tx, rec); err != nil {
			return err
		}
		result, created = rec, true
		return nil
	})
	if err != nil {
		return model.AttendanceRecord{}, false, wrap("checking in", err)
	}
	return result, created, nil
}

func (b *Bunt) CheckOut(_ context.Context, childID, date, at string) (model.AttendanceRecord, error) {
	var result model.AttendanceRecord
	err := b.db.Update(func(tx *buntdb.Tx) error {
		sameDay, err := scanRecords(tx, childID, date, date)
		if err != nil {
			return err
		}
		open, ok := latestOpen(sameDay)
		if !ok {
			return model.ErrNoOpenInterval
		}
		open.CheckOut = &at
		if err := putRecord(tx, open); err != nil {
			return err
		}
		result = open
		return nil
	})
	if err != nil {
		return model.AttendanceRecord{}, wrap("checking out", err)
	}
	return result, nil
}

func (b *Bunt) GetRecord(_ context.Context, id string) (model.AttendanceRecord, error) {
	var r model.AttendanceRecord
	err := b.db.View(func(tx *buntdb.Tx) error {
		var err error
		r, err = getRecord(tx, id)
		return err
	})
	return r, wrap("reading attendance record", err)
}

func (b *Bunt) UpdateRecord(_ context.Context, id string, patch model.RecordPatch) (model.AttendanceRecord, error) {
	var updated model.AttendanceRecord
	err := b.db.Update(func(tx *buntdb.Tx) error {
		current, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		if updated.Open() {
			sameDay, err := scanRecords(tx, updated.ChildID, updated.Date, updated.Date)
			if err != nil {
				return err
			}
			if hasOtherOpen(sameDay, id) {
				return model.ErrOpenIntervalConflict
			}
		}
		if recordKey(current) != recordKey(updated) {
			if _, err := tx.Delete(recordKey(current)); err != nil {
				return err
			}
		}
		return putRecord(tx, updated)
	})
	if err != nil {
		return model.AttendanceRecord{}, wrap("updating attendance record", err)
	}
	return updated, nil
}

func (b *Bunt) QueryRange(_ context.Context, childID, start, end string) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := b.db.View(func(tx *buntdb.Tx) error {
		var err error
		recs, err = scanRecords(tx, childID, start, end)
		return err
	})
	if err != nil {
		return nil, wrap("querying attendance", err)
	}
	return recs, nil
}

func (b *Bunt) QueryByChildAndDate(ctx context.Context, childID, date string) ([]model.AttendanceRecord, error) {
	return b.QueryRange(ctx, childID, date, date)
}
