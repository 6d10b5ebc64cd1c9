package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceStore_GetSet(t *testing.T) {
	store := NewPreferenceStore(newTestDB(t))
	ctx := context.Background()

	value, found, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, found, "unset key should not be found")
	assert.Empty(t, value)

	require.NoError(t, store.Set(ctx, "theme", "dark"))
	value, found, err = store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", value)

	require.NoError(t, store.Set(ctx, "theme", "light"))
	value, _, err = store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value, "second Set should replace the value")
}

func TestPreferenceStore_Swap(t *testing.T) {
	db := newTestDB(t)
	store := NewPreferenceStore(db)
	ctx := context.Background()

	t.Run("first write reports nothing previous", func(t *testing.T) {
		previous, found, err := store.Swap(ctx, "lastSeenMenuDate", "2024-01-01")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, previous)

		value, _, err := store.Get(ctx, "lastSeenMenuDate")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", value)
	})

	t.Run("same value leaves the row untouched", func(t *testing.T) {
		_, err := db.conn.Exec(`UPDATE preferences SET updated_at = '2000-01-01 00:00:00' WHERE key = ?`, "lastSeenMenuDate")
		require.NoError(t, err)

		previous, found, err := store.Swap(ctx, "lastSeenMenuDate", "2024-01-01")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "2024-01-01", previous)

		var updatedAt string
		require.NoError(t, db.conn.QueryRow(`SELECT updated_at FROM preferences WHERE key = ?`, "lastSeenMenuDate").Scan(&updatedAt))
		assert.Contains(t, updatedAt, "2000-01-01", "no write should happen when the value is unchanged")
	})

	t.Run("new value replaces and returns the old one", func(t *testing.T) {
		previous, found, err := store.Swap(ctx, "lastSeenMenuDate", "2024-01-02")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "2024-01-01", previous)

		value, _, err := store.Get(ctx, "lastSeenMenuDate")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-02", value)
	})
}
