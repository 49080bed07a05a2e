package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"diamond-hands/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventPayload is the audit body stored next to each write.
type eventPayload struct {
	SchemaID string `json:"schema_id"`
	Bytes    int    `json:"bytes"`
}

// PostgresStore persists entries in the ledger_entries table.
type PostgresStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgresStore(conn *gorm.DB) *PostgresStore {
	return &PostgresStore{db: conn, now: time.Now}
}

func (s *PostgresStore) Put(ctx context.Context, entry Entry) error {
	if s.db == nil {
		return errors.New("db connection is nil")
	}
	now := s.now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := db.LedgerEntry{
			Publisher: entry.Publisher.String(),
			DataID:    entry.DataID,
			SchemaID:  entry.SchemaID,
			Data:      entry.Data,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "publisher"}, {Name: "data_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"schema_id":  entry.SchemaID,
				"data":       entry.Data,
				"updated_at": now,
				"version":    gorm.Expr("ledger_entries.version + 1"),
			}),
		}).Create(&record).Error
		if err != nil {
			return fmt.Errorf("upsert ledger entry: %w", err)
		}
		return persistEvent(tx, entry, "entry_put", now)
	})
}

func (s *PostgresStore) Insert(ctx context.Context, entry Entry) error {
	if s.db == nil {
		return errors.New("db connection is nil")
	}
	now := s.now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := db.LedgerEntry{
			Publisher: entry.Publisher.String(),
			DataID:    entry.DataID,
			SchemaID:  entry.SchemaID,
			Data:      entry.Data,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrExists
			}
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		return persistEvent(tx, entry, "entry_inserted", now)
	})
}

func (s *PostgresStore) Get(ctx context.Context, publisher Identity, dataID string) (Entry, bool, error) {
	if s.db == nil {
		return Entry{}, false, errors.New("db connection is nil")
	}
	var record db.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("publisher = ? AND data_id = ?", publisher.String(), dataID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("load ledger entry: %w", err)
	}
	return entryFromRecord(record), true, nil
}

// List returns entries oldest first.
func (s *PostgresStore) List(ctx context.Context, publisher Identity, schemaID string) ([]Entry, error) {
	if s.db == nil {
		return nil, errors.New("db connection is nil")
	}
	var records []db.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("publisher = ? AND schema_id = ?", publisher.String(), schemaID).
		Order("created_at asc, id asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	out := make([]Entry, 0, len(records))
	for _, record := range records {
		out = append(out, entryFromRecord(record))
	}
	return out, nil
}

func entryFromRecord(record db.LedgerEntry) Entry {
	return Entry{
		Publisher: Identity(record.Publisher),
		DataID:    record.DataID,
		SchemaID:  record.SchemaID,
		Data:      record.Data,
		Version:   record.Version,
		UpdatedAt: record.UpdatedAt,
	}
}

func persistEvent(tx *gorm.DB, entry Entry, eventType string, at time.Time) error {
	data, err := json.Marshal(eventPayload{
		SchemaID: entry.SchemaID,
		Bytes:    len(entry.Data),
	})
	if err != nil {
		return err
	}
	event := db.Event{
		Publisher: entry.Publisher.String(),
		DataID:    entry.DataID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: at,
	}
	return tx.Create(&event).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
