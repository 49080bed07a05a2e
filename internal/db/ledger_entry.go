package db

import "time"

// LedgerEntry holds the latest encoded record a publisher wrote under a data id.
type LedgerEntry struct {
	ID        uint      `gorm:"primaryKey"`
	Publisher string    `gorm:"size:42;not null;uniqueIndex:idx_ledger_entries_publisher_data"`
	DataID    string    `gorm:"size:66;not null;uniqueIndex:idx_ledger_entries_publisher_data"`
	SchemaID  string    `gorm:"size:66;not null;index"`
	Data      []byte    `gorm:"type:bytea;not null"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
