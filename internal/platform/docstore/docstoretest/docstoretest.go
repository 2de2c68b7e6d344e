// Package docstoretest holds the behaviour every docstore backend must share.
package docstoretest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studystreak/internal/platform/docstore"
	apperrors "studystreak/internal/platform/errors"
)

type counter struct {
	N int `json:"n"`
}

// Run exercises a fresh store produced by open.
func Run(t *testing.T, open func(t *testing.T) docstore.Store) {
	t.Run("documents", func(t *testing.T) {
		t.Parallel()
		testDocuments(t, open(t))
	})
	t.Run("records", func(t *testing.T) {
		t.Parallel()
		testRecords(t, open(t))
	})
	t.Run("transactions", func(t *testing.T) {
		t.Parallel()
		testTransactions(t, open(t))
	})
	t.Run("concurrent increments", func(t *testing.T) {
		t.Parallel()
		testConcurrentIncrements(t, open(t))
	})
}

func testDocuments(t *testing.T, store docstore.Store) {
	ctx := context.Background()
	_, err := store.Get(ctx, "users", "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, docstore.PutJSON(ctx, store, "users", "u1", counter{N: 1}))
	got, err := docstore.GetJSON[counter](ctx, store, "users", "u1")
	require.NoError(t, err)
	require.Equal(t, 1, got.N)

	require.NoError(t, docstore.PutJSON(ctx, store, "users", "u1", counter{N: 2}))
	got, err = docstore.GetJSON[counter](ctx, store, "users", "u1")
	require.NoError(t, err)
	require.Equal(t, 2, got.N)

	err = docstore.InsertJSON(ctx, store, "users", "u1", counter{N: 9})
	require.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	require.NoError(t, docstore.InsertJSON(ctx, store, "users", "u2", counter{N: 9}))

	_, err = store.Get(ctx, "other", "u1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func testRecords(t *testing.T, store docstore.Store) {
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	fixtures := []struct {
		id, user, date string
		offset         time.Duration
	}{
		{"r1", "u1", "2024-01-09", 0},
		{"r2", "u1", "2024-01-10", time.Minute},
		{"r3", "u2", "2024-01-10", 2 * time.Minute},
		{"r4", "u1", "2024-01-11", 3 * time.Minute},
	}
	for _, f := range fixtures {
		rec, err := docstore.NewRecord(f.id, f.user, f.date, base.Add(f.offset), counter{N: 1})
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, "sessions", rec))
	}
	dup, err := docstore.NewRecord("r1", "u1", "2024-01-09", base, counter{N: 5})
	require.NoError(t, err)
	require.ErrorIs(t, store.Append(ctx, "sessions", dup), apperrors.ErrAlreadyExists)

	all, err := store.Query(ctx, "sessions", docstore.Query{})
	require.NoError(t, err)
	require.Equal(t, []string{"r1", "r2", "r3", "r4"}, ids(all))

	u1, err := store.Query(ctx, "sessions", docstore.Query{UserIDs: []string{"u1"}, From: "2024-01-10", To: "2024-01-11"})
	require.NoError(t, err)
	require.Equal(t, []string{"r2", "r4"}, ids(u1))

	today, err := store.Query(ctx, "sessions", docstore.Query{UserIDs: []string{"u1", "u2"}, From: "2024-01-10", To: "2024-01-10"})
	require.NoError(t, err)
	require.Equal(t, []string{"r2", "r3"}, ids(today))

	newest, err := store.Query(ctx, "sessions", docstore.Query{Newest: true, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"r4", "r3"}, ids(newest))
	require.JSONEq(t, `{"n":1}`, string(newest[0].Body))

	none, err := store.Query(ctx, "activities", docstore.Query{})
	require.NoError(t, err)
	require.Empty(t, none)
}

func testTransactions(t *testing.T, store docstore.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := store.Within(ctx, func(ctx context.Context) error {
		require.NoError(t, docstore.PutJSON(ctx, store, "users", "rollback", counter{N: 1}))
		rec, err := docstore.NewRecord("rb-1", "rollback", "2024-01-10", time.Now(), counter{N: 1})
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, "sessions", rec))
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = store.Get(ctx, "users", "rollback")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	recs, err := store.Query(ctx, "sessions", docstore.Query{UserIDs: []string{"rollback"}})
	require.NoError(t, err)
	require.Empty(t, recs)

	err = store.Within(ctx, func(ctx context.Context) error {
		if err := docstore.PutJSON(ctx, store, "users", "commit", counter{N: 1}); err != nil {
			return err
		}
		return store.Within(ctx, func(ctx context.Context) error {
			got, err := docstore.GetJSON[counter](ctx, store, "users", "commit")
			if err != nil {
				return err
			}
			got.N++
			return docstore.PutJSON(ctx, store, "users", "commit", got)
		})
	})
	require.NoError(t, err)
	got, err := docstore.GetJSON[counter](ctx, store, "users", "commit")
	require.NoError(t, err)
	require.Equal(t, 2, got.N)
}

func testConcurrentIncrements(t *testing.T, store docstore.Store) {
	ctx := context.Background()
	require.NoError(t, docstore.PutJSON(ctx, store, "counters", "c", counter{}))
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Within(ctx, func(ctx context.Context) error {
				got, err := docstore.GetJSON[counter](ctx, store, "counters", "c")
				if err != nil {
					return err
				}
				got.N++
				rec, err := docstore.NewRecord("inc-"+strconv.Itoa(i), "c", "2024-01-10", time.Now(), got)
				if err != nil {
					return err
				}
				if err := store.Append(ctx, "increments", rec); err != nil {
					return err
				}
				return docstore.PutJSON(ctx, store, "counters", "c", got)
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	got, err := docstore.GetJSON[counter](ctx, store, "counters", "c")
	require.NoError(t, err)
	require.Equal(t, workers, got.N)
	recs, err := store.Query(ctx, "increments", docstore.Query{})
	require.NoError(t, err)
	require.Len(t, recs, workers)
}

func ids(records []docstore.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
