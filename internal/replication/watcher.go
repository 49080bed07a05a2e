package replication

import (
	"context"
	"errors"
	"sync"
	"time"

	"diamond-hands/internal/ledger"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often a watcher reads the ledger.
const DefaultPollInterval = 3 * time.Second

// ErrNoTarget is returned when a watcher is started without a room or host.
var ErrNoTarget = errors.New("watcher needs a room code and host identity")

// Fetcher reads the latest room record. ledger.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, roomCode string, host ledger.Identity) (ledger.RoomState, bool, error)
}

type WatcherOption func(*Watcher)

func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnUpdate registers a hook called when a newer record is applied.
func WithOnUpdate(fn func(ledger.RoomState)) WatcherOption {
	return func(w *Watcher) { w.onUpdate = fn }
}

// WatcherStats counts reads that produced no record.
type WatcherStats struct {
	Misses    int    `json:"misses"`
	Errors    int    `json:"errors"`
	LastError string `json:"last_error,omitempty"`
}

// Watcher polls the ledger for one room. Every read runs on its own goroutine
// and carries a sequence number so late or superseded results are dropped.
type Watcher struct {
	fetcher  Fetcher
	roomCode string
	host     ledger.Identity
	interval time.Duration
	logger   *zap.Logger
	onUpdate func(ledger.RoomState)

	mu         sync.Mutex
	running    bool
	generation uint64
	issued     uint64
	applied    uint64
	cancel     context.CancelFunc
	pollCtx    context.Context
	latest     ledger.RoomState
	hasLatest  bool
	stats      WatcherStats
}

func NewWatcher(fetcher Fetcher, roomCode string, host ledger.Identity, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		fetcher:  fetcher,
		roomCode: roomCode,
		host:     host,
		interval: DefaultPollInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start reads immediately and then on every tick until Stop or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if w.roomCode == "" || w.host.IsZero() {
		return ErrNoTarget
	}
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.generation++
	generation := w.generation
	pollCtx, cancel := context.WithCancel(ctx)
	w.pollCtx = pollCtx
	w.cancel = cancel
	w.mu.Unlock()

	go w.loop(pollCtx, generation)
	return nil
}

// Stop halts polling. Reads still outstanding are cancelled and ignored.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	w.generation++
	w.cancel()
	w.cancel = nil
	w.pollCtx = nil
}

// Refresh issues one read outside the regular cadence.
func (w *Watcher) Refresh() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	ctx, generation := w.pollCtx, w.generation
	w.mu.Unlock()
	w.poll(ctx, generation)
}

// Latest returns the newest record applied so far.
func (w *Watcher) Latest() (ledger.RoomState, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest, w.hasLatest
}

func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) RoomCode() string {
	return w.roomCode
}

func (w *Watcher) Host() ledger.Identity {
	return w.host
}

func (w *Watcher) loop(ctx context.Context, generation uint64) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.poll(ctx, generation)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx, generation)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, generation uint64) {
	w.mu.Lock()
	if !w.running || generation != w.generation {
		w.mu.Unlock()
		return
	}
	w.issued++
	seq := w.issued
	w.mu.Unlock()

	go func() {
		record, ok, err := w.fetcher.Fetch(ctx, w.roomCode, w.host)
		w.apply(generation, seq, record, ok, err)
	}()
}

func (w *Watcher) apply(generation, seq uint64, record ledger.RoomState, ok bool, err error) {
	w.mu.Lock()
	if !w.running || generation != w.generation || seq <= w.applied {
		w.mu.Unlock()
		return
	}
	if err != nil {
		w.stats.Errors++
		w.stats.LastError = err.Error()
		w.mu.Unlock()
		w.logger.Warn("room read failed",
			zap.String("room_code", w.roomCode),
			zap.String("host", w.host.String()),
			zap.Error(err),
		)
		return
	}
	if !ok {
		w.stats.Misses++
		w.mu.Unlock()
		return
	}
	w.applied = seq
	changed := !w.hasLatest || w.latest != record
	w.latest = record
	w.hasLatest = true
	hook := w.onUpdate
	w.mu.Unlock()

	if changed && hook != nil {
		hook(record)
	}
}
