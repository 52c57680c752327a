package models

import "time"

// EpochWatermark is the watermark used before any successful delivery.
// It sorts before every portal created_at value.
const EpochWatermark = "1970-01-01 00:00:00"

// CursorState is the persisted watermark record
type CursorState struct {
	Name          string    `json:"-" badgerhold:"key"`
	LastCreatedAt string    `json:"last_created_at"`
	UpdatedAt     time.Time `json:"-"`
}
