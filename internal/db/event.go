package db

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an append-only audit row written next to every ledger write.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	Publisher string         `gorm:"size:42;index;not null"`
	DataID    string         `gorm:"size:66;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
