package room

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/replication"

	"go.uber.org/zap"
)

type Role string

const (
	RoleNone    Role = "none"
	RoleHost    Role = "host"
	RoleWatcher Role = "watcher"
)

type Options struct {
	Ledger       *ledger.Client
	Rules        game.Rules
	Debounce     time.Duration
	PollInterval time.Duration
	Rand         *rand.Rand
	Clock        func() time.Time
	Logger       *zap.Logger

	// OnMatchArchived runs after a finished game's result is stored.
	OnMatchArchived func(ledger.MatchResult)
}

// session is either *HostSession or *WatcherSession.
type session interface {
	roomCode() string
	close()
}

// HostSession owns the authoritative game for a room.
type HostSession struct {
	code       string
	identity   ledger.Identity
	engine     *game.Engine
	state      game.State
	replicator *replication.Replicator
	archive    *matchArchive
	ctx        context.Context
	cancel     context.CancelFunc
}

func (h *HostSession) roomCode() string { return h.code }

func (h *HostSession) close() {
	h.replicator.Close()
	h.cancel()
}

// WatcherSession follows a room another participant hosts.
type WatcherSession struct {
	code    string
	host    ledger.Identity
	watcher *replication.Watcher
}

func (w *WatcherSession) roomCode() string { return w.code }

func (w *WatcherSession) close() {
	w.watcher.Stop()
}

// Coordinator holds one participant's role in at most one room.
type Coordinator struct {
	opts Options

	mu       sync.Mutex
	session  session
	onChange func()
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Debounce <= 0 {
		opts.Debounce = replication.DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = replication.DefaultPollInterval
	}
	return &Coordinator{opts: opts}
}

// OnChange registers fn to run after every local state change, watcher update,
// or publish completion.
func (c *Coordinator) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// CreateRoom makes the caller host of a new room. An empty identity hosts
// locally without publishing.
func (c *Coordinator) CreateRoom(identity string) (string, error) {
	var id ledger.Identity
	if strings.TrimSpace(identity) != "" {
		parsed, err := ledger.ParseIdentity(identity)
		if err != nil {
			return "", &ValidationError{Field: "identity", Message: "must be 0x followed by 40 hex characters", Err: err}
		}
		id = parsed
	}

	code := NewRoomCode()
	engine := game.NewEngine(c.opts.Rules, c.opts.Rand)
	ctx, cancel := context.WithCancel(context.Background())
	host := &HostSession{
		code:     code,
		identity: id,
		engine:   engine,
		ctx:      ctx,
		cancel:   cancel,
	}

	var publisher replication.Publisher
	var archiver *ledger.Client
	if !id.IsZero() && c.opts.Ledger != nil {
		archiver = c.opts.Ledger.WithWriter(id)
		publisher = archiver
	}
	host.replicator = replication.NewReplicator(publisher, code,
		replication.WithDebounce(c.opts.Debounce),
		replication.WithClock(c.opts.Clock),
		replication.WithLogger(c.opts.Logger.With(zap.String("room_code", code))),
		replication.WithOnPublish(func(replication.Status) { c.notify() }),
	)
	host.archive = newMatchArchive(archiver)

	c.mu.Lock()
	host.state = engine.NewGame()
	previous := c.session
	c.session = host
	host.replicator.OnStateChange(host.state)
	c.mu.Unlock()
	if previous != nil {
		previous.close()
	}

	c.opts.Logger.Info("room created",
		zap.String("room_code", code),
		zap.Bool("replicating", host.replicator.Active()),
	)
	c.notify()
	return code, nil
}

// JoinRoom makes the caller a watcher of code as published by hostIdentity.
func (c *Coordinator) JoinRoom(code, hostIdentity string) error {
	normalized := NormalizeRoomCode(code)
	if !ValidRoomCode(normalized) {
		return &ValidationError{Field: "room_code", Message: "must look like " + CodePrefix + "-1234"}
	}
	host, err := ledger.ParseIdentity(hostIdentity)
	if err != nil {
		return &ValidationError{Field: "host_identity", Message: "must be 0x followed by 40 hex characters", Err: err}
	}
	if c.opts.Ledger == nil {
		return ErrNoLedger
	}

	watcher := replication.NewWatcher(c.opts.Ledger, normalized, host,
		replication.WithInterval(c.opts.PollInterval),
		replication.WithWatcherLogger(c.opts.Logger.With(zap.String("room_code", normalized))),
		replication.WithOnUpdate(func(ledger.RoomState) { c.notify() }),
	)
	c.swap(&WatcherSession{code: normalized, host: host, watcher: watcher})
	if err := watcher.Start(context.Background()); err != nil {
		return err
	}

	c.opts.Logger.Info("room joined",
		zap.String("room_code", normalized),
		zap.String("host", host.String()),
	)
	c.notify()
	return nil
}

// LeaveRoom drops the current role. Calling it without a room is a no-op.
func (c *Coordinator) LeaveRoom() {
	c.mu.Lock()
	current := c.session
	c.session = nil
	c.mu.Unlock()
	if current == nil {
		return
	}
	current.close()
	c.opts.Logger.Info("room left", zap.String("room_code", current.roomCode()))
	c.notify()
}

func (c *Coordinator) Hold() error {
	return c.apply(func(e *game.Engine, s game.State) game.State { return e.Hold(s) })
}

func (c *Coordinator) Secure() error {
	return c.apply(func(e *game.Engine, s game.State) game.State { return e.Secure(s) })
}

// NewGame replaces the hosted game and starts a fresh match id.
func (c *Coordinator) NewGame() error {
	c.mu.Lock()
	host, ok := c.session.(*HostSession)
	if !ok {
		c.mu.Unlock()
		return ErrNotHost
	}
	host.state = host.engine.NewGame()
	host.archive.reset()
	host.replicator.OnStateChange(host.state)
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Coordinator) apply(step func(*game.Engine, game.State) game.State) error {
	c.mu.Lock()
	host, ok := c.session.(*HostSession)
	if !ok {
		c.mu.Unlock()
		return ErrNotHost
	}
	host.state = step(host.engine, host.state)
	host.replicator.OnStateChange(host.state)
	if host.state.Status == game.StatusGameOver {
		c.archiveLocked(host)
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// Role returns the current role and room code.
func (c *Coordinator) Role() (Role, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch s := c.session.(type) {
	case *HostSession:
		return RoleHost, s.code
	case *WatcherSession:
		return RoleWatcher, s.code
	default:
		return RoleNone, ""
	}
}

// Close leaves the room and drops the change hook.
func (c *Coordinator) Close() {
	c.OnChange(nil)
	c.LeaveRoom()
}

func (c *Coordinator) swap(next session) {
	c.mu.Lock()
	previous := c.session
	c.session = next
	c.mu.Unlock()
	if previous != nil {
		previous.close()
	}
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
