package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/models"
)

func TestCursorStorage_MissingFileIsEpoch(t *testing.T) {
	store, err := NewCursorStorage(filepath.Join(t.TempDir(), "nested", "cursor.json"), arbor.NewLogger())
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EpochWatermark, got)
}

func TestCursorStorage_SaveWritesDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cursor.json")
	store, err := NewCursorStorage(path, arbor.NewLogger())
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "2024-01-02 10:00:00"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_created_at":"2024-01-02 10:00:00"}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is renamed away")

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 10:00:00", got)
}

func TestCursorStorage_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_created_at": "2023-11-30 18:00:00"}`), 0644))

	store, err := NewCursorStorage(path, arbor.NewLogger())
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2023-11-30 18:00:00", got)
}

func TestCursorStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	store, err := NewCursorStorage(path, arbor.NewLogger())
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestNewCursorStorage_RequiresPath(t *testing.T) {
	_, err := NewCursorStorage("", arbor.NewLogger())
	assert.Error(t, err)
}
