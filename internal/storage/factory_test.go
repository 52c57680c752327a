package storage

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

func TestNewCursorStore(t *testing.T) {
	dir := t.TempDir()

	for _, storageType := range []string{"badger", "file"} {
		t.Run(storageType, func(t *testing.T) {
			config := &common.StorageConfig{
				Type:       storageType,
				CursorName: "leads",
				Badger:     common.BadgerConfig{Path: filepath.Join(dir, storageType, "db")},
				File:       common.FileConfig{Path: filepath.Join(dir, storageType, "cursor.json")},
			}

			store, err := NewCursorStore(arbor.NewLogger(), config)
			require.NoError(t, err)
			defer store.Close()

			got, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, models.EpochWatermark, got)
		})
	}
}

func TestNewCursorStore_UnknownType(t *testing.T) {
	_, err := NewCursorStore(arbor.NewLogger(), &common.StorageConfig{Type: "sqlite"})
	assert.Error(t, err)
}
