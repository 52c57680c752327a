package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
	"github.com/ternarybob/leadrelay/internal/models"
)

func openTestDB(t *testing.T, path string) *BadgerDB {
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	return db
}

func TestCursorStorage_LoadDefaultsToEpoch(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "db"))
	store := NewCursorStorage(db, "leads", arbor.NewLogger())
	defer store.Close()

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EpochWatermark, got)
}

func TestCursorStorage_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	db := openTestDB(t, path)
	store := NewCursorStorage(db, "leads", arbor.NewLogger())
	require.NoError(t, store.Save(ctx, "2024-01-02 10:00:00"))
	require.NoError(t, store.Save(ctx, "2024-01-03 08:00:00"))
	require.NoError(t, store.Close())

	reopened := NewCursorStorage(openTestDB(t, path), "leads", arbor.NewLogger())
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03 08:00:00", got)
}

func TestCursorStorage_NamesAreIndependent(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "db"))
	defer db.Close()
	ctx := context.Background()

	a := NewCursorStorage(db, "a", arbor.NewLogger())
	b := NewCursorStorage(db, "b", arbor.NewLogger())
	require.NoError(t, a.Save(ctx, "2024-01-01 00:00:00"))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EpochWatermark, got)
}

func TestNewBadgerDB_SecondOpenFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db := openTestDB(t, path)
	defer db.Close()

	_, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: path})
	assert.Error(t, err, "directory lock prevents concurrent use")
}

func TestNewBadgerDB_ResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	db := openTestDB(t, path)
	require.NoError(t, NewCursorStorage(db, "leads", arbor.NewLogger()).Save(ctx, "2024-01-01 00:00:00"))
	require.NoError(t, db.Close())

	fresh, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: path, ResetOnStartup: true})
	require.NoError(t, err)
	store := NewCursorStorage(fresh, "leads", arbor.NewLogger())
	defer store.Close()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EpochWatermark, got)
}
