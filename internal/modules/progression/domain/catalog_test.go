package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]Character{
		{ID: "owl", UnlockDay: 7, WorldID: "forest"},
		{ID: "fox", UnlockDay: 1, WorldID: "forest"},
		{ID: "bear", UnlockDay: 3, WorldID: "forest"},
		{ID: "whale", UnlockDay: 30, WorldID: "ocean"},
	})
	require.NoError(t, err)
	return catalog
}

func TestCatalogOrdersByUnlockDay(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(t)
	var ids []string
	for _, c := range catalog.Characters() {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []string{"fox", "bear", "owl", "whale"}, ids)
	require.Equal(t, "fox", catalog.First().ID)
}

func TestCharacterForStreakDayIsExact(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(t)
	c, ok := catalog.CharacterForStreakDay(3)
	require.True(t, ok)
	require.Equal(t, "bear", c.ID)
	for _, day := range []int{0, 2, 4, 8, 31} {
		_, ok := catalog.CharacterForStreakDay(day)
		require.Falsef(t, ok, "day %d", day)
	}
}

func TestActiveCharacter(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(t)
	require.Equal(t, "fox", catalog.ActiveCharacter(0).ID)
	require.Equal(t, "fox", catalog.ActiveCharacter(2).ID)
	require.Equal(t, "bear", catalog.ActiveCharacter(3).ID)
	require.Equal(t, "owl", catalog.ActiveCharacter(29).ID)
	require.Equal(t, "whale", catalog.ActiveCharacter(400).ID)

	next, ok := catalog.NextUnlock(7)
	require.True(t, ok)
	require.Equal(t, "whale", next.ID)
	_, ok = catalog.NextUnlock(30)
	require.False(t, ok)
}

func TestActiveCharacterFallsBackWhenFirstUnlockIsLater(t *testing.T) {
	t.Parallel()
	catalog, err := NewCatalog([]Character{{ID: "late", UnlockDay: 5}})
	require.NoError(t, err)
	require.Equal(t, "late", catalog.ActiveCharacter(0).ID)
}

func TestNewCatalogRejectsInvalidTables(t *testing.T) {
	t.Parallel()
	_, err := NewCatalog(nil)
	require.Error(t, err)
	_, err = NewCatalog([]Character{{ID: "a", UnlockDay: 1}, {ID: "b", UnlockDay: 1}})
	require.Error(t, err)
	_, err = NewCatalog([]Character{{ID: "a", UnlockDay: 1}, {ID: "a", UnlockDay: 2}})
	require.Error(t, err)
	_, err = NewCatalog([]Character{{ID: "", UnlockDay: 1}})
	require.Error(t, err)
	_, err = NewCatalog([]Character{{ID: "a", UnlockDay: 0}})
	require.Error(t, err)
}
