package sourcecache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/tplmgr/fetcher"
)

func countingFetcher(body string, calls *atomic.Int32) fetcher.Fetcher {
	return fetcher.Func(func(_ context.Context, location string) ([]byte, error) {
		calls.Add(1)
		return []byte(body + location), nil
	})
}

func TestFetcher_MissThenHit(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	f := New(countingFetcher("src:", &calls), NewMemory(0))
	ctx := context.Background()

	data, err := f.Fetch(ctx, "/a.html")
	require.NoError(t, err)
	assert.Equal(t, "src:/a.html", string(data))
	data, err = f.Fetch(ctx, "/a.html")
	require.NoError(t, err)
	assert.Equal(t, "src:/a.html", string(data))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_UpstreamErrorNotCached(t *testing.T) {
	t.Parallel()
	store := NewMemory(0)
	f := New(fetcher.Func(func(context.Context, string) ([]byte, error) {
		return nil, fetcher.ErrNotFound
	}), store)
	_, err := f.Fetch(context.Background(), "/missing.html")
	require.ErrorIs(t, err, fetcher.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("down")
}

func (brokenStore) Set(context.Context, string, string) error { return errors.New("down") }

func TestFetcher_StoreFailuresDegradeToMiss(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	f := New(countingFetcher("x", &calls), brokenStore{})
	data, err := f.Fetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "x1", string(data))
	assert.Equal(t, int32(1), calls.Load())
}

func TestNew_NilPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { New(nil, NewMemory(0)) })
	assert.Panics(t, func() { New(fetcher.Func(nil), nil) })
}

func TestMemory_TTL(t *testing.T) {
	t.Parallel()
	m := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Clear(t *testing.T) {
	t.Parallel()
	m := NewMemory(-1)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "b", "2"))
	assert.Equal(t, 2, m.Len())
	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestRedis_Get_Hit(t *testing.T) {
	t.Parallel()
	db, mock := redismock.NewClientMock()
	defer db.Close()
	r := NewRedis(db, time.Hour, "test:")

	mock.ExpectGet("test:/a.html").SetVal("<p>a</p>")
	v, ok, err := r.Get(context.Background(), "/a.html")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<p>a</p>", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Get_Miss(t *testing.T) {
	t.Parallel()
	db, mock := redismock.NewClientMock()
	defer db.Close()
	r := NewRedis(db, time.Hour, "")

	mock.ExpectGet(DefaultKeyPrefix + "/a.html").RedisNil()
	_, ok, err := r.Get(context.Background(), "/a.html")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Get_Error(t *testing.T) {
	t.Parallel()
	db, mock := redismock.NewClientMock()
	defer db.Close()
	r := NewRedis(db, 0, "test:")

	mock.ExpectGet("test:/a.html").SetErr(errors.New("connection refused"))
	_, _, err := r.Get(context.Background(), "/a.html")
	require.ErrorIs(t, err, ErrStore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Set(t *testing.T) {
	t.Parallel()
	db, mock := redismock.NewClientMock()
	defer db.Close()
	r := NewRedis(db, time.Hour, "test:")

	mock.ExpectSet("test:/a.html", "<p>a</p>", time.Hour).SetVal("OK")
	require.NoError(t, r.Set(context.Background(), "/a.html", "<p>a</p>"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetcher_WithRedis(t *testing.T) {
	t.Parallel()
	db, mock := redismock.NewClientMock()
	defer db.Close()
	var calls atomic.Int32
	f := New(countingFetcher("body", &calls), NewRedis(db, 0, "v:"))

	mock.ExpectGet("v:/n.html").RedisNil()
	mock.ExpectSet("v:/n.html", "body/n.html", 0).SetVal("OK")
	mock.ExpectGet("v:/n.html").SetVal("body/n.html")

	ctx := context.Background()
	for range 2 {
		data, err := f.Fetch(ctx, "/n.html")
		require.NoError(t, err)
		assert.Equal(t, "body/n.html", string(data))
	}
	assert.Equal(t, int32(1), calls.Load())
	require.NoError(t, mock.ExpectationsWereMet())
}
