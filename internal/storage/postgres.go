package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/timecalc"
)

// childRow is the persisted shape of a child (snake_case columns).
type childRow struct {
	ID        string  `gorm:"primaryKey;type:uuid"`
	FirstName string  `gorm:"column:first_name;not null"`
	LastName  *string `gorm:"column:last_name"`
	BirthDate *string `gorm:"column:birth_date;type:date"`
	Notes     *string `gorm:"column:notes;type:text"`
	Color     *string `gorm:"column:color"`
	Active    bool    `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time
}

func (childRow) TableName() string { return "children" }

// attendanceRow is the persisted shape of an attendance record.
type attendanceRow struct {
	ID       string  `gorm:"primaryKey;type:uuid"`
	ChildID  string  `gorm:"column:child_id;type:uuid;not null;index:idx_attendance_child_date"`
	Date     string  `gorm:"column:date;type:date;not null;index:idx_attendance_child_date"`
	CheckIn  string  `gorm:"column:check_in;type:time;not null"`
	CheckOut *string `gorm:"column:check_out;type:time"`
}

func (attendanceRow) TableName() string { return "attendance" }

// openIntervalIndex enforces the single-open-interval invariant in the
// database itself.
const openIntervalIndex = `CREATE UNIQUE INDEX IF NOT EXISTS attendance_one_open_per_day
	ON attendance (child_id, date) WHERE check_out IS NULL`

func childFromRow(r childRow) model.Child {
	c := model.Child{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Notes:     r.Notes,
		Color:     r.Color,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
	}
	if r.BirthDate != nil {
		d := timecalc.NormalizeDate(*r.BirthDate)
		c.BirthDate = &d
	}
	return c
}

func childToRow(c model.Child) childRow {
	return childRow{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		BirthDate: c.BirthDate,
		Notes:     c.Notes,
		Color:     c.Color,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
}

func recordFromRow(r attendanceRow) model.AttendanceRecord {
	rec := model.AttendanceRecord{
		ID:      r.ID,
		ChildID: r.ChildID,
		Date:    timecalc.NormalizeDate(r.Date),
		CheckIn: timecalc.NormalizeClock(r.CheckIn),
	}
	if r.CheckOut != nil {
		out := timecalc.NormalizeClock(*r.CheckOut)
		rec.CheckOut = &out
	}
	return rec
}

func recordToRow(r model.AttendanceRecord) attendanceRow {
	return attendanceRow{
		ID:       r.ID,
		ChildID:  r.ChildID,
		Date:     r.Date,
		CheckIn:  r.CheckIn,
		CheckOut: r.CheckOut,
	}
}

// childColumns maps a patch to column updates. Columns are listed
// explicitly so that false and NULL are written.
func childColumns(p model.ChildPatch) map[string]any {
	cols := map[string]any{}
	if p.Active != nil {
		cols["active"] = *p.Active
	}
	if p.FirstName != nil {
		cols["first_name"] = *p.FirstName
	}
	if p.LastName.Set {
		cols["last_name"] = p.LastName.Value
	}
	if p.BirthDate.Set {
		cols["birth_date"] = p.BirthDate.Value
	}
	if p.Notes.Set {
		cols["notes"] = p.Notes.Value
	}
	if p.Color.Set {
		cols["color"] = p.Color.Value
	}
	return cols
}

// Postgres is the relational Store backed by gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, model.Unavailable("connecting to postgres", err)
	}
	p := NewPostgres(db)
	if err := p.Migrate(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an open gorm handle.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables and the partial unique index.
func (p *Postgres) Migrate(ctx context.Context) error {
	db := p.db.WithContext(ctx)
	if err := db.AutoMigrate(&childRow{}, &attendanceRow{}); err != nil {
		return model.Unavailable("auto migrate", err)
	}
	if err := db.Exec(openIntervalIndex).Error; err != nil {
		return model.Unavailable("creating open interval index", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrOpenIntervalConflict), model.IsValidation(err):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, model.ErrOpenIntervalConflict)
	default:
		return model.Unavailable(op, err)
	}
}

func (p *Postgres) ListChildren(ctx context.Context) ([]model.Child, error) {
	var rows []childRow
	err := p.db.WithContext(ctx).Order("first_name ASC, created_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, p.classify("listing children", err)
	}
	out := make([]model.Child, 0, len(rows))
	for _, r := range rows {
		out = append(out, childFromRow(r))
	}
	return out, nil
}

func (p *Postgres) GetChild(ctx context.Context, id string) (model.Child, error) {
	var row childRow
	err := p.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Child{}, notFound("child", id)
	}
	if err != nil {
		return model.Child{}, p.classify("reading child", err)
	}
	return childFromRow(row), nil
}

func (p *Postgres) CreateChild(ctx context.Context, c model.Child) (model.Child, error) {
	row := childToRow(c)
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Child{}, p.classify("creating child", err)
	}
	return childFromRow(row), nil
}

func (p *Postgres) UpdateChild(ctx context.Context, id string, patch model.ChildPatch) (model.Child, error) {
	var row childRow
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&childRow{}).Where("id = ?", id).Updates(childColumns(patch))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("child", id)
		}
		return tx.Where("id = ?", id).Take(&row).Error
	})
	if err != nil {
		return model.Child{}, p.classify("updating child", err)
	}
	return childFromRow(row), nil
}

func (p *Postgres) DeleteChild(ctx context.Context, id string) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("child_id = ?", id).Delete(&attendanceRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&childRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("child", id)
		}
		return nil
	})
	return p.classify("deleting child", err)
}

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// serializationFailure is the SQLSTATE postgres reports when a serializable
// transaction loses to a concurrent one.
const serializationFailure = "40001"

const maxSerializableAttempts = 3

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}

// retrySerializable runs fn again while it fails with a serialization
// failure, at most maxSerializableAttempts times.
func retrySerializable(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxSerializableAttempts; attempt++ {
		if err = fn(); !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

// serializableTx runs fn in a serializable transaction, retried on
// serialization failures. fn must reset any state it captures.
func (p *Postgres) serializableTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return retrySerializable(func() error {
		return p.db.WithContext(ctx).Transaction(fn, serializable)
	})
}

func openRecords(tx *gorm.DB, childID, date string) ([]model.AttendanceRecord, error) {
	var rows []attendanceRow
	err := tx.Where("child_id = ? AND date = ? AND check_out IS NULL", childID, date).
		Order("check_in DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, recordFromRow(r))
	}
	return out, nil
}

func (p *Postgres) CheckIn(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error) {
	var (
		result  model.AttendanceRecord
		created bool
	)
	err := p.serializableTx(ctx, func(tx *gorm.DB) error {
		result, created = model.AttendanceRecord{}, false
		open, err := openRecords(tx, rec.ChildID, rec.Date)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			result = open[0]
			return nil
		}
		rec.CheckOut = nil
		row := recordToRow(rec)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		result, created = recordFromRow(row), true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) || isSerializationFailure(err) {
		// A concurrent check-in won; hand back its record.
		open, rerr := openRecords(p.db.WithContext(ctx), rec.ChildID, rec.Date)
		if rerr == nil && len(open) > 0 {
			return open[0], false, nil
		}
	}
	if err != nil {
		return model.AttendanceRecord{}, false, p.classify("checking in", err)
	}
	return result, created, nil
}

func (p *Postgres) CheckOut(ctx context.Context, childID, date, at string) (model.AttendanceRecord, error) {
	var result model.AttendanceRecord
	err := p.serializableTx(ctx, func(tx *gorm.DB) error {
		open, err := openRecords(tx, childID, date)
		if err != nil {
			return err
		}
		if len(open) == 0 {
			return model.ErrNoOpenInterval
		}
		target := open[0]
		if err := tx.Model(&attendanceRow{}).Where("id = ?", target.ID).Update("check_out", at).Error; err != nil {
			return err
		}
		target.CheckOut = &at
		result = target
		return nil
	})
	if err != nil {
		return model.AttendanceRecord{}, p.classify("checking out", err)
	}
	return result, nil
}

func getRecordRow(tx *gorm.DB, id string) (model.AttendanceRecord, error) {
	var row attendanceRow
	err := tx.Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AttendanceRecord{}, notFound("attendance record", id)
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	return recordFromRow(row), nil
}

func (p *Postgres) GetRecord(ctx context.Context, id string) (model.AttendanceRecord, error) {
	rec, err := getRecordRow(p.db.WithContext(ctx), id)
	return rec, p.classify("reading attendance record", err)
}

func (p *Postgres) UpdateRecord(ctx context.Context, id string, patch model.RecordPatch) (model.AttendanceRecord, error) {
	var updated model.AttendanceRecord
	err := p.serializableTx(ctx, func(tx *gorm.DB) error {
		current, err := getRecordRow(tx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		if updated.Open() {
			open, err := openRecords(tx, updated.ChildID, updated.Date)
			if err != nil {
				return err
			}
			if hasOtherOpen(open, id) {
				return model.ErrOpenIntervalConflict
			}
		}
		return tx.Model(&attendanceRow{}).Where("id = ?", id).Updates(map[string]any{
			"date":      updated.Date,
			"check_in":  updated.CheckIn,
			"check_out": updated.CheckOut,
		}).Error
	})
	if err != nil {
		return model.AttendanceRecord{}, p.classify("updating attendance record", err)
	}
	return updated, nil
}

func (p *Postgres) QueryRange(ctx context.Context, childID, start, end string) ([]model.AttendanceRecord, error) {
	var rows []attendanceRow
	err := p.db.WithContext(ctx).
		Where("child_id = ? AND date BETWEEN ? AND ?", childID, start, end).
		Order("date ASC, check_in ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, p.classify("querying attendance", err)
	}
	out := make([]model.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, recordFromRow(r))
	}
	return out, nil
}

func (p *Postgres) QueryByChildAndDate(ctx context.Context, childID, date string) ([]model.AttendanceRecord, error) {
	return p.QueryRange(ctx, childID, date, date)
}
