package room

import (
	"time"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/replication"
)

// View is a point-in-time snapshot of the coordinator for display.
type View struct {
	Role         Role                      `json:"role"`
	RoomCode     string                    `json:"room_code,omitempty"`
	HostIdentity ledger.Identity           `json:"host_identity,omitempty"`
	Replicating  bool                      `json:"replicating"`
	State        *game.State               `json:"state,omitempty"`
	Waiting      bool                      `json:"waiting"`
	Publish      replication.Status        `json:"publish"`
	Archive      *ArchiveStatus            `json:"archive,omitempty"`
	Watch        *replication.WatcherStats `json:"watch,omitempty"`
	LastSynced   *time.Time                `json:"last_synced,omitempty"`
}

// View dispatches on the session variant once and copies what it needs.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch s := c.session.(type) {
	case *HostSession:
		state := s.state.Clone()
		archive := s.archive.status
		return View{
			Role:         RoleHost,
			RoomCode:     s.code,
			HostIdentity: s.identity,
			Replicating:  s.replicator.Active(),
			State:        &state,
			Publish:      s.replicator.Status(),
			Archive:      &archive,
		}
	case *WatcherSession:
		view := View{
			Role:         RoleWatcher,
			RoomCode:     s.code,
			HostIdentity: s.host,
			Publish:      replication.Status{Phase: replication.PhaseIdle},
		}
		stats := s.watcher.Stats()
		view.Watch = &stats
		record, ok := s.watcher.Latest()
		if !ok {
			view.Waiting = true
			return view
		}
		state := replication.Reconstruct(record)
		synced := record.PublishedAt()
		view.State = &state
		view.LastSynced = &synced
		return view
	default:
		return View{Role: RoleNone, Publish: replication.Status{Phase: replication.PhaseIdle}}
	}
}
