package room

import (
	"errors"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/replication"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArchiveStatus tracks the match-result write for the current game.
type ArchiveStatus struct {
	MatchID string             `json:"match_id"`
	Phase   replication.Phase  `json:"phase"`
	Handle  ledger.WriteHandle `json:"handle,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type matchArchive struct {
	client  *ledger.Client
	matchID string
	started bool
	status  ArchiveStatus
}

func newMatchArchive(client *ledger.Client) *matchArchive {
	a := &matchArchive{client: client}
	a.reset()
	return a
}

func (a *matchArchive) reset() {
	a.matchID = uuid.NewString()
	a.started = false
	a.status = ArchiveStatus{MatchID: a.matchID, Phase: replication.PhaseIdle}
}

func matchResultFrom(matchID string, s game.State) ledger.MatchResult {
	winner, _ := s.Winner()
	return ledger.MatchResult{
		MatchID:        matchID,
		WinnerLabel:    winner.Label(),
		PlayerOneScore: uint16(min(s.Players[0].TotalScore, 0xffff)),
		PlayerTwoScore: uint16(min(s.Players[1].TotalScore, 0xffff)),
		RoundsPlayed:   uint8(min(s.CurrentRound, 0xff)),
	}
}

// archiveLocked writes the finished game once per match id.
func (c *Coordinator) archiveLocked(host *HostSession) {
	a := host.archive
	if a.client == nil || a.started {
		return
	}
	a.started = true
	a.status.Phase = replication.PhasePending
	matchID := a.matchID
	result := matchResultFrom(matchID, host.state)
	result.Publisher = host.identity
	result.Timestamp = uint64(c.opts.Clock().UnixMilli())

	go func() {
		handle, err := a.client.PublishMatchResult(host.ctx, result)
		if errors.Is(err, ledger.ErrExists) {
			err = nil
		}

		c.mu.Lock()
		if c.session != session(host) || a.matchID != matchID {
			c.mu.Unlock()
			return
		}
		if err != nil {
			a.status.Phase = replication.PhaseError
			a.status.Error = err.Error()
			c.opts.Logger.Warn("match archive failed",
				zap.String("room_code", host.code),
				zap.String("match_id", matchID),
				zap.Error(err),
			)
		} else {
			a.status.Phase = replication.PhaseSuccess
			a.status.Handle = handle
			c.opts.Logger.Info("match archived",
				zap.String("room_code", host.code),
				zap.String("match_id", matchID),
				zap.String("winner", result.WinnerLabel),
			)
		}
		archived := c.opts.OnMatchArchived
		c.mu.Unlock()
		if err == nil && archived != nil {
			archived(result)
		}
		c.notify()
	}()
}
