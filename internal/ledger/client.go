package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DefaultHistoryLimit caps MatchHistory when no limit is given.
const DefaultHistoryLimit = 8

// ErrRoomMismatch is returned when a fetched record names a different room.
var ErrRoomMismatch = errors.New("ledger record belongs to another room")

// Client encodes typed records onto a Store on behalf of one writer.
type Client struct {
	store  Store
	writer Identity
	now    func() time.Time
	logger *zap.Logger
}

type ClientOption func(*Client)

// WithWriter binds the identity used for every write.
func WithWriter(id Identity) ClientOption {
	return func(c *Client) { c.writer = id }
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(store Store, opts ...ClientOption) *Client {
	c := &Client{store: store, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Writer returns the bound identity, which may be empty.
func (c *Client) Writer() Identity {
	return c.writer
}

// WithWriter returns a client sharing the store but writing as id.
func (c *Client) WithWriter(id Identity) *Client {
	clone := *c
	clone.writer = id
	return &clone
}

// Publish writes state as the latest record for roomCode. A zero timestamp is
// stamped with the client clock.
func (c *Client) Publish(ctx context.Context, roomCode string, state RoomState) (WriteHandle, error) {
	if c.writer.IsZero() {
		return "", ErrNoWriter
	}
	state.RoomCode = roomCode
	if state.Timestamp == 0 {
		state.Timestamp = millis(c.now())
	}
	payload, err := EncodeRoomState(state)
	if err != nil {
		return "", err
	}
	dataID := RoomDataID(roomCode)
	err = c.store.Put(ctx, Entry{
		Publisher: c.writer,
		DataID:    dataID,
		SchemaID:  SchemaID(RoomStateSchema),
		Data:      payload,
	})
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", roomCode, err)
	}
	return newWriteHandle(dataID, payload), nil
}

// Fetch reads the latest record host wrote for roomCode. The bool is false
// when nothing has been written yet.
func (c *Client) Fetch(ctx context.Context, roomCode string, host Identity) (RoomState, bool, error) {
	entry, ok, err := c.store.Get(ctx, host, RoomDataID(roomCode))
	if err != nil {
		return RoomState{}, false, fmt.Errorf("fetch %s: %w", roomCode, err)
	}
	if !ok {
		return RoomState{}, false, nil
	}
	state, err := DecodeRoomState(entry.Data)
	if err != nil {
		return RoomState{}, false, err
	}
	if state.RoomCode != roomCode {
		return RoomState{}, false, fmt.Errorf("%w: want %s, got %s", ErrRoomMismatch, roomCode, state.RoomCode)
	}
	return state, true, nil
}

// PublishMatchResult writes result once under its match id. Writing the same
// match id twice returns ErrExists along with the handle of the new payload.
func (c *Client) PublishMatchResult(ctx context.Context, result MatchResult) (WriteHandle, error) {
	if c.writer.IsZero() {
		return "", ErrNoWriter
	}
	if result.MatchID == "" {
		return "", errors.New("match id is required")
	}
	result.Publisher = c.writer
	if result.Timestamp == 0 {
		result.Timestamp = millis(c.now())
	}
	payload, err := EncodeMatchResult(result)
	if err != nil {
		return "", err
	}
	dataID := DataID(result.MatchID)
	handle := newWriteHandle(dataID, payload)
	err = c.store.Insert(ctx, Entry{
		Publisher: c.writer,
		DataID:    dataID,
		SchemaID:  SchemaID(MatchResultSchema),
		Data:      payload,
	})
	if errors.Is(err, ErrExists) {
		return handle, ErrExists
	}
	if err != nil {
		return "", fmt.Errorf("publish match %s: %w", result.MatchID, err)
	}
	return handle, nil
}

// MatchHistory returns publisher's match results, newest first.
func (c *Client) MatchHistory(ctx context.Context, publisher Identity, limit int) ([]MatchResult, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	entries, err := c.store.List(ctx, publisher, SchemaID(MatchResultSchema))
	if err != nil {
		return nil, fmt.Errorf("match history: %w", err)
	}
	results := make([]MatchResult, 0, len(entries))
	for _, entry := range entries {
		result, err := DecodeMatchResult(entry.Data)
		if err != nil {
			c.logger.Warn("skip undecodable match result",
				zap.String("publisher", publisher.String()),
				zap.String("data_id", entry.DataID),
				zap.Error(err),
			)
			continue
		}
		results = append(results, result)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp > results[j].Timestamp
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
