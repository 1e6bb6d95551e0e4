package storage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/cache"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/config"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/storage"
)

// countingStore counts full loads that reach the backend.
type countingStore struct {
	storage.Store
	queries int
}

func (s *countingStore) QueryRange(ctx context.Context, childID, start, end string) ([]model.AttendanceRecord, error) {
	s.queries++
	return s.Store.QueryRange(ctx, childID, start, end)
}

// gatedStore holds the first full load, after it has read the backend,
// until release is closed.
type gatedStore struct {
	storage.Store
	held    atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func (s *gatedStore) QueryRange(ctx context.Context, childID, start, end string) ([]model.AttendanceRecord, error) {
	recs, err := s.Store.QueryRange(ctx, childID, start, end)
	if s.held.CompareAndSwap(false, true) {
		close(s.loaded)
		<-s.release
	}
	return recs, err
}

// failingBackend rejects every operation.
type failingBackend struct{}

var errBackendDown = errors.New("backend down")

func (failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errBackendDown
}
func (failingBackend) Set(context.Context, string, []byte, time.Duration) error { return errBackendDown }
func (failingBackend) Delete(context.Context, string) error                     { return errBackendDown }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCached(t *testing.T, backend cache.Backend) (*storage.Cached, *countingStore) {
	t.Helper()
	inner := &countingStore{Store: newBunt(t)}
	return storage.NewCached(inner, cache.NewRecords(backend, time.Minute), quietLogger()), inner
}

func TestCachedReadThrough(t *testing.T) {
	ctx := context.Background()
	st, inner := newCached(t, cache.NewMemoryBackend())

	_, _, err := st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	loads := inner.queries

	for i := 0; i < 3; i++ {
		recs, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
		require.NoError(t, err)
		require.Len(t, recs, 1)
	}
	assert.Equal(t, loads, inner.queries, "reads after a write are served from the cache")

	// Range filtering happens on the cached list.
	recs, err := st.QueryRange(ctx, "emma", "2026-03-03", "2026-03-31")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, loads, inner.queries)
}

func TestCachedReplacesEntryOnWrite(t *testing.T) {
	ctx := context.Background()
	st, _ := newCached(t, cache.NewMemoryBackend())

	_, _, err := st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	recs, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, model.StatusOf(recs))

	_, err = st.CheckOut(ctx, "emma", "2026-03-02", "12:00")
	require.NoError(t, err)
	recs, err = st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, model.StatusLeft, model.StatusOf(recs))

	_, err = st.UpdateRecord(ctx, "r1", model.RecordPatch{Date: strp("2026-03-04")})
	require.NoError(t, err)
	recs, err = st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	assert.Empty(t, recs)
	recs, err = st.QueryByChildAndDate(ctx, "emma", "2026-03-04")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = st.CreateChild(ctx, model.Child{ID: "emma", FirstName: "Emma", Active: true})
	require.NoError(t, err)
	require.NoError(t, st.DeleteChild(ctx, "emma"))
	recs, err = st.QueryRange(ctx, "emma", storage.MinDate, storage.MaxDate)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCachedSlowFillDoesNotOverwriteWrite(t *testing.T) {
	ctx := context.Background()
	inner := &gatedStore{Store: newBunt(t), loaded: make(chan struct{}), release: make(chan struct{})}
	st := storage.NewCached(inner, cache.NewRecords(cache.NewMemoryBackend(), time.Minute), quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
		done <- err
	}()
	<-inner.loaded

	// The reader now holds a list without r1.
	_, created, err := st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	require.True(t, created)

	close(inner.release)
	require.NoError(t, <-done)

	recs, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, model.StatusPresent, model.StatusOf(recs))
}

func TestCachedWithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	backend, err := cache.NewRedisBackend(ctx, mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	st, inner := newCached(t, backend)
	_, _, err = st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("tat:records:emma"))

	loads := inner.queries
	_, err = st.QueryRange(ctx, "emma", storage.MinDate, storage.MaxDate)
	require.NoError(t, err)
	assert.Equal(t, loads, inner.queries)

	// Once redis drops the entry the next read reloads it.
	mr.FlushAll()
	_, err = st.QueryRange(ctx, "emma", storage.MinDate, storage.MaxDate)
	require.NoError(t, err)
	assert.Equal(t, loads+1, inner.queries)
}

func TestCachedSurvivesCacheFailure(t *testing.T) {
	ctx := context.Background()
	st, _ := newCached(t, failingBackend{})

	_, created, err := st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	assert.True(t, created)

	recs, err := st.QueryByChildAndDate(ctx, "emma", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = st.CheckOut(ctx, "emma", "2026-03-02", "12:00")
	require.NoError(t, err)
}

func TestOpenFromConfig(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		Store: config.StoreConfig{Driver: config.DriverBunt, BuntPath: ":memory:"},
		Cache: config.CacheConfig{TTL: "1m"},
	}

	st, err := storage.Open(ctx, cfg, quietLogger())
	require.NoError(t, err)
	_, created, err := st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, st.Close())

	mr := miniredis.RunT(t)
	cfg.Cache.RedisAddr = mr.Addr()
	st, err = storage.Open(ctx, cfg, quietLogger())
	require.NoError(t, err)
	_, _, err = st.CheckIn(ctx, openRecord("r1", "emma", "2026-03-02", "08:30"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("tat:records:emma"))
	require.NoError(t, st.Close())

	cfg.Store.Driver = "sqlite"
	_, err = storage.Open(ctx, cfg, quietLogger())
	assert.Error(t, err)
}
