package server

import (
	"fmt"
	"net/http"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/replication"
	"diamond-hands/internal/room"
	"diamond-hands/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleHome(c *gin.Context) {
	s.ensureSessionID(c)
	render(c, http.StatusOK, web.Home())
}

// handleWatchView renders a room from a single ledger read.
func (s *Server) handleWatchView(c *gin.Context) {
	code := room.NormalizeRoomCode(c.Param("code"))
	rawHost := c.Query("host")
	state := web.DisplayState{RoomCode: code, HostIdentity: rawHost, Waiting: true}

	if !room.ValidRoomCode(code) {
		state.Notice = "Room codes look like " + room.CodePrefix + "-1234."
		render(c, http.StatusBadRequest, web.WatchPage(state))
		return
	}
	host, err := ledger.ParseIdentity(rawHost)
	if err != nil {
		state.Notice = "Add ?host=0x… with the host identity to watch this room."
		render(c, http.StatusBadRequest, web.WatchPage(state))
		return
	}
	state.HostIdentity = host.String()
	if s.ledger == nil {
		state.Notice = "No ledger is configured on this server."
		render(c, http.StatusServiceUnavailable, web.WatchPage(state))
		return
	}

	ctx := c.Request.Context()
	record, ok, err := s.ledger.Fetch(ctx, code, host)
	if err != nil {
		s.logger.Warn("watch read failed", zap.String("room_code", code), zap.Error(err))
		ok = false
	}
	if ok {
		state = displayFromRecord(record, host)
	}
	state.RefreshAfter = s.pollSeconds()

	matches, err := s.ledger.MatchHistory(ctx, host, s.historyLimit())
	if err != nil {
		s.logger.Warn("watch history failed", zap.String("publisher", host.String()), zap.Error(err))
	}
	for _, match := range matches {
		state.Matches = append(state.Matches, web.MatchRow{
			MatchID:  match.MatchID,
			Winner:   match.WinnerLabel,
			Score:    fmt.Sprintf("%d - %d", match.PlayerOneScore, match.PlayerTwoScore),
			Rounds:   int(match.RoundsPlayed),
			PlayedAt: web.FormatTime(ledger.RoomState{Timestamp: match.Timestamp}.PublishedAt()),
		})
	}
	render(c, http.StatusOK, web.WatchPage(state))
}

func displayFromRecord(record ledger.RoomState, host ledger.Identity) web.DisplayState {
	view := replication.Reconstruct(record)
	// The record carries no winner; ties go to player 1 as in the engine.
	leader := game.Player1
	if view.Players[1].TotalScore > view.Players[0].TotalScore {
		leader = game.Player2
	}
	players := make([]web.DisplayPlayer, 0, len(view.Players))
	for _, player := range view.Players {
		players = append(players, web.DisplayPlayer{
			Label:      player.Label(),
			RoundScore: player.RoundScore,
			TotalScore: player.TotalScore,
			IsActive:   player.IsActive && view.Status == game.StatusPlaying,
			IsWinner:   view.Status == game.StatusGameOver && player.ID == leader,
		})
	}
	return web.DisplayState{
		RoomCode:     record.RoomCode,
		HostIdentity: host.String(),
		Status:       string(view.Status),
		StatusLabel:  web.StatusLabel(string(view.Status)),
		RoundLabel:   fmt.Sprintf("Round %d of %d", view.CurrentRound, view.TotalRounds),
		Players:      players,
		LastSynced:   web.FormatTime(record.PublishedAt()),
	}
}

func render(c *gin.Context, status int, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		_ = c.Error(err)
	}
}
