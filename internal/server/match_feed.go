package server

import (
	"sync"

	"diamond-hands/internal/ledger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// matchFeedGroup is the hub group for match-completed subscribers. Session
// ids are hex, so it cannot collide with one.
const matchFeedGroup = "feed:matches"

type matchFeedMessage struct {
	Type    string               `json:"type"`
	Match   *ledger.MatchResult  `json:"match,omitempty"`
	Matches []ledger.MatchResult `json:"matches,omitempty"`
}

// matchFeed keeps the most recent completed matches, newest first, and
// pushes each new one to subscribers once.
type matchFeed struct {
	mu     sync.Mutex
	recent []ledger.MatchResult
	limit  int
	hub    *wsHub
}

func newMatchFeed(hub *wsHub, limit int) *matchFeed {
	return &matchFeed{hub: hub, limit: limit}
}

// Add records result and broadcasts it. A match id already in the feed is
// ignored.
func (f *matchFeed) Add(result ledger.MatchResult) bool {
	f.mu.Lock()
	for _, existing := range f.recent {
		if existing.MatchID == result.MatchID {
			f.mu.Unlock()
			return false
		}
	}
	f.recent = append([]ledger.MatchResult{result}, f.recent...)
	if len(f.recent) > f.limit {
		f.recent = f.recent[:f.limit]
	}
	f.mu.Unlock()

	f.hub.Broadcast(matchFeedGroup, matchFeedMessage{Type: "match_completed", Match: &result})
	return true
}

func (f *matchFeed) Recent() []ledger.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.MatchResult, len(f.recent))
	copy(out, f.recent)
	return out
}

func (s *Server) handleMatchFeedWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	s.logger.Debug("match feed subscriber connected", zap.String("remote", c.Request.RemoteAddr))
	s.ws.Add(matchFeedGroup, client)
	s.ws.Send(client, matchFeedMessage{Type: "matches", Matches: s.feed.Recent()})
	go s.readWS(matchFeedGroup, client)
}

