package replication

import (
	"fmt"
	"math"
	"time"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
)

// Fingerprint digests the replicated subset of a state. Snapshots with equal
// fingerprints are never both published.
func Fingerprint(s game.State) string {
	return fmt.Sprintf("%d|%s|%d|%d|%d|%d|%d",
		s.CurrentRound,
		s.Status,
		s.Players[0].RoundScore,
		s.Players[0].TotalScore,
		s.Players[1].RoundScore,
		s.Players[1].TotalScore,
		s.WinnerID,
	)
}

// Project reduces a state to the record watchers can read.
func Project(s game.State, roomCode string, at time.Time) ledger.RoomState {
	active := s.ActiveID()
	if active == game.NoPlayer {
		active = game.Player1
	}
	return ledger.RoomState{
		RoomCode:          roomCode,
		CurrentRound:      clampUint8(s.CurrentRound),
		TotalRounds:       clampUint8(s.TotalRounds),
		Player1RoundScore: clampUint16(s.Players[0].RoundScore),
		Player1TotalScore: clampUint16(s.Players[0].TotalScore),
		Player2RoundScore: clampUint16(s.Players[1].RoundScore),
		Player2TotalScore: clampUint16(s.Players[1].TotalScore),
		ActivePlayerID:    uint8(active),
		GameStatus:        string(s.Status),
		Timestamp:         uint64(at.UnixMilli()),
	}
}

// Reconstruct builds the coarse state a watcher can display. Fields the record
// does not carry are left at their safe defaults.
func Reconstruct(r ledger.RoomState) game.State {
	active := game.PlayerID(r.ActivePlayerID)
	if active != game.Player2 {
		active = game.Player1
	}
	round := int(r.CurrentRound)
	if round < 1 {
		round = 1
	}
	total := int(r.TotalRounds)
	if total < 1 {
		total = game.DefaultTotalRounds
	}
	return game.State{
		Players: [2]game.Player{
			{
				ID:         game.Player1,
				RoundScore: int(r.Player1RoundScore),
				TotalScore: int(r.Player1TotalScore),
				IsActive:   active == game.Player1,
			},
			{
				ID:         game.Player2,
				RoundScore: int(r.Player2RoundScore),
				TotalScore: int(r.Player2TotalScore),
				IsActive:   active == game.Player2,
			},
		},
		CurrentRound:  round,
		TotalRounds:   total,
		RevealedCards: []game.Card{},
		Deck:          game.DeckFromCards(nil),
		Status:        game.ParseStatus(r.GameStatus),
		WinnerID:      game.NoPlayer,
		LastAction:    game.ActionNone,
	}
}

func clampUint8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint8:
		return math.MaxUint8
	}
	return uint8(v)
}

func clampUint16(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}
