package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"studystreak/internal/platform/docstore"
	"studystreak/internal/platform/docstore/docstoretest"
	"studystreak/internal/platform/docstore/sqlite"
)

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	docstoretest.Run(t, func(t *testing.T) docstore.Store {
		store, err := sqlite.Open(sqlite.MemoryPath)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".studystreak", "studystreak.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "users", "u1", []byte(`{"n":3}`)))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	raw, err := reopened.Get(context.Background(), "users", "u1")
	require.NoError(t, err)
	require.JSONEq(t, `{"n":3}`, string(raw))
}
