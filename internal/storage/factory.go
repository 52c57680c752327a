package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
	"github.com/ternarybob/leadrelay/internal/interfaces"
	"github.com/ternarybob/leadrelay/internal/storage/badger"
	"github.com/ternarybob/leadrelay/internal/storage/file"
)

// NewCursorStore creates the cursor store selected by config
func NewCursorStore(logger arbor.ILogger, config *common.StorageConfig) (interfaces.CursorStore, error) {
	switch config.Type {
	case "badger", "":
		db, err := badger.NewBadgerDB(logger, &config.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewCursorStorage(db, config.CursorName, logger), nil
	case "file":
		return file.NewCursorStorage(config.File.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (expected 'badger' or 'file')", config.Type)
	}
}
