package server

import (
	"net/http"
	"strconv"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/room"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createRoomRequest struct {
	Identity string `json:"identity" binding:"omitempty,eth_addr"`
}

type joinRoomRequest struct {
	RoomCode     string `json:"room_code" binding:"required"`
	HostIdentity string `json:"host_identity" binding:"required"`
}

type gameActionURI struct {
	Action string `uri:"action" binding:"required,oneof=hold secure new"`
}

type publisherURI struct {
	Publisher string `uri:"publisher" binding:"required,eth_addr"`
}

var createRoomMessages = bindMessages{
	"Identity": {"eth_addr": "identity must be 0x followed by 40 hex characters"},
}

var joinRoomMessages = bindMessages{
	"RoomCode":     {"required": "room code is required"},
	"HostIdentity": {"required": "host identity is required"},
}

var gameActionMessages = bindMessages{
	"Action": {"oneof": "unknown action"},
}

var publisherMessages = bindMessages{
	"Publisher": {"eth_addr": "publisher must be 0x followed by 40 hex characters"},
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bindOptionalJSON(c, &req, createRoomMessages, "invalid room request") {
		return
	}
	_, coord := s.coordinator(c)
	code, err := coord.CreateRoom(req.Identity)
	if err != nil {
		writeError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"room_code": code,
		"view":      coord.View(),
	})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if !bindJSON(c, &req, joinRoomMessages, "invalid join request") {
		return
	}
	_, coord := s.coordinator(c)
	if err := coord.JoinRoom(req.RoomCode, req.HostIdentity); err != nil {
		writeError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": coord.View()})
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	_, coord := s.coordinator(c)
	coord.LeaveRoom()
	c.JSON(http.StatusOK, gin.H{"view": coord.View()})
}

func (s *Server) handleGameAction(c *gin.Context) {
	var uri gameActionURI
	if !bindURI(c, &uri, gameActionMessages, http.StatusNotFound) {
		return
	}
	_, coord := s.coordinator(c)
	var err error
	switch uri.Action {
	case "hold":
		err = coord.Hold()
	case "secure":
		err = coord.Secure()
	case "new":
		err = coord.NewGame()
	}
	if err != nil {
		writeError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": coord.View()})
}

func (s *Server) handleRoom(c *gin.Context) {
	_, coord := s.coordinator(c)
	c.JSON(http.StatusOK, coord.View())
}

func (s *Server) handleRules(c *gin.Context) {
	composition := make(map[string]gin.H)
	for cardType, count := range game.Distribution() {
		composition[string(cardType)] = gin.H{
			"count": count,
			"value": cardType.Value(),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total_rounds":  s.rules.TotalRounds,
		"winning_score": s.rules.WinningScore,
		"deck_size":     game.DeckSize(),
		"deck":          composition,
	})
}

func (s *Server) handleMatches(c *gin.Context) {
	var uri publisherURI
	if !bindURI(c, &uri, publisherMessages, http.StatusBadRequest) {
		return
	}
	if s.ledger == nil {
		writeError(c, http.StatusServiceUnavailable, room.ErrNoLedger.Error())
		return
	}
	publisher, err := ledger.ParseIdentity(uri.Publisher)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	limit := s.historyLimit()
	if raw := c.Query("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(c, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = min(value, limit)
	}
	matches, err := s.ledger.MatchHistory(c.Request.Context(), publisher, limit)
	if err != nil {
		s.logger.Error("match history failed", zap.String("publisher", publisher.String()), zap.Error(err))
		writeError(c, http.StatusBadGateway, "match history unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
