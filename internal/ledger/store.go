package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrExists is returned by Insert when the key was already written.
	ErrExists = errors.New("ledger entry already exists")
	// ErrNoWriter is returned when a client without an identity tries to write.
	ErrNoWriter = errors.New("ledger client has no writer identity")
)

// Entry is one encoded record under (Publisher, DataID).
type Entry struct {
	Publisher Identity
	DataID    string
	SchemaID  string
	Data      []byte
	Version   int
	UpdatedAt time.Time
}

// Store is the byte-level ledger. Put is last-write-wins; Insert is create-once.
type Store interface {
	Put(ctx context.Context, entry Entry) error
	Insert(ctx context.Context, entry Entry) error
	Get(ctx context.Context, publisher Identity, dataID string) (Entry, bool, error)
	List(ctx context.Context, publisher Identity, schemaID string) ([]Entry, error)
}
