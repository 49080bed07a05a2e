package replication

import (
	"context"
	"sync"
	"time"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"

	"go.uber.org/zap"
)

// DefaultDebounce is the quiescence window before a publish.
const DefaultDebounce = 1500 * time.Millisecond

// Publisher writes the latest room record. ledger.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, roomCode string, state ledger.RoomState) (ledger.WriteHandle, error)
}

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// Status reports the outcome of the most recent publish attempt.
type Status struct {
	Phase  Phase              `json:"phase"`
	Error  string             `json:"error,omitempty"`
	Handle ledger.WriteHandle `json:"handle,omitempty"`
	At     time.Time          `json:"at,omitempty"`
	Err    error              `json:"-"`
}

type Option func(*Replicator)

func WithDebounce(d time.Duration) Option {
	return func(r *Replicator) {
		if d > 0 {
			r.debounce = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Replicator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Replicator) {
		if now != nil {
			r.now = now
		}
	}
}

// WithOnPublish registers a hook called after every completed attempt.
func WithOnPublish(fn func(Status)) Option {
	return func(r *Replicator) { r.onPublish = fn }
}

// Replicator publishes one room's state with debouncing and fingerprint
// dedup. At most one publish is in flight at a time.
type Replicator struct {
	publisher Publisher
	roomCode  string
	debounce  time.Duration
	now       func() time.Time
	logger    *zap.Logger
	onPublish func(Status)

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	lastFingerprint string
	timer           *time.Timer
	inFlight        bool
	dirty           bool
	latest          game.State
	hasLatest       bool
	status          Status
	closed          bool
}

// NewReplicator returns a replicator for roomCode. A nil publisher or empty
// room code yields an inert replicator that ignores every state change.
func NewReplicator(publisher Publisher, roomCode string, opts ...Option) *Replicator {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Replicator{
		publisher: publisher,
		roomCode:  roomCode,
		debounce:  DefaultDebounce,
		now:       time.Now,
		logger:    zap.NewNop(),
		ctx:       ctx,
		cancel:    cancel,
		status:    Status{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Active reports whether the replicator has a publish target.
func (r *Replicator) Active() bool {
	return r.publisher != nil && r.roomCode != ""
}

// OnStateChange feeds a new authoritative state. It never blocks on the ledger.
func (r *Replicator) OnStateChange(s game.State) {
	if !r.Active() || s.Status == game.StatusWaiting {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	terminal := r.hasLatest &&
		(s.CurrentRound != r.latest.CurrentRound ||
			(s.Status == game.StatusGameOver && r.latest.Status != game.StatusGameOver))
	r.latest = s.Clone()
	r.hasLatest = true

	if Fingerprint(s) == r.lastFingerprint {
		// The in-flight write may replace the record that already matches s.
		if r.inFlight {
			r.dirty = true
		}
		return
	}
	r.armLocked()
	if terminal {
		r.flushLocked()
	}
}

// Status returns the outcome of the latest attempt.
func (r *Replicator) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// LastFingerprint is the fingerprint of the last successful publish.
func (r *Replicator) LastFingerprint() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFingerprint
}

// Close stops the pending timer. Completions that arrive later are ignored.
func (r *Replicator) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.cancel()
}

func (r *Replicator) armLocked() {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.fire)
}

func (r *Replicator) fire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer = nil
	r.flushLocked()
}

// flushLocked re-validates the latest state and starts a publish if needed.
func (r *Replicator) flushLocked() {
	if r.closed || !r.hasLatest {
		return
	}
	fingerprint := Fingerprint(r.latest)
	if fingerprint == r.lastFingerprint {
		return
	}
	if r.inFlight {
		r.dirty = true
		return
	}
	r.inFlight = true
	r.status = Status{Phase: PhasePending, At: r.now()}
	record := Project(r.latest, r.roomCode, r.now())
	go r.publish(fingerprint, record)
}

func (r *Replicator) publish(fingerprint string, record ledger.RoomState) {
	handle, err := r.publisher.Publish(r.ctx, r.roomCode, record)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.inFlight = false
	dirty := r.dirty
	r.dirty = false
	if err != nil {
		r.status = Status{Phase: PhaseError, Error: err.Error(), Err: err, At: r.now()}
		r.logger.Warn("publish failed",
			zap.String("room_code", r.roomCode),
			zap.Int("round", int(record.CurrentRound)),
			zap.Error(err),
		)
	} else {
		r.lastFingerprint = fingerprint
		r.status = Status{Phase: PhaseSuccess, Handle: handle, At: r.now()}
		r.logger.Debug("room state published",
			zap.String("room_code", r.roomCode),
			zap.String("handle", string(handle)),
		)
	}
	// A snapshot parked during this write has not been attempted yet. Failed
	// snapshots themselves wait for the next state change.
	if latest := Fingerprint(r.latest); dirty && r.timer == nil &&
		latest != fingerprint && latest != r.lastFingerprint {
		r.armLocked()
	}
	status := r.status
	hook := r.onPublish
	r.mu.Unlock()

	if hook != nil {
		hook(status)
	}
}
