package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"diamond-hands/internal/room"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionCookie = "dh_session"

type sessionEntry struct {
	coord    *room.Coordinator
	lastSeen time.Time
}

// sessionStore gives every browser its own coordinator. Only ids minted here
// are accepted, and sessions idle past the limit are closed by Reap.
type sessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	build   func(sessionID string) *room.Coordinator
	now     func() time.Time
	idle    time.Duration
}

func newSessionStore(build func(string) *room.Coordinator, idle time.Duration) *sessionStore {
	return &sessionStore{
		entries: make(map[string]*sessionEntry),
		build:   build,
		now:     time.Now,
		idle:    idle,
	}
}

// Mint registers a fresh session id.
func (s *sessionStore) Mint() string {
	id := newSessionID()
	s.mu.Lock()
	s.entries[id] = &sessionEntry{lastSeen: s.now()}
	s.mu.Unlock()
	return id
}

// Touch marks a known session as seen. Unknown ids report false.
func (s *sessionStore) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if ok {
		entry.lastSeen = s.now()
	}
	return ok
}

func (s *sessionStore) Coordinator(id string) *room.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		entry = &sessionEntry{}
		s.entries[id] = entry
	}
	entry.lastSeen = s.now()
	if entry.coord == nil {
		entry.coord = s.build(id)
	}
	return entry.coord
}

func (s *sessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reap closes sessions not seen within the idle limit. Sessions for which
// busy reports true are kept and count as seen.
func (s *sessionStore) Reap(busy func(id string) bool) int {
	now := s.now()
	var expired []*room.Coordinator
	s.mu.Lock()
	for id, entry := range s.entries {
		if busy != nil && busy(id) {
			entry.lastSeen = now
			continue
		}
		if now.Sub(entry.lastSeen) < s.idle {
			continue
		}
		delete(s.entries, id)
		if entry.coord != nil {
			expired = append(expired, entry.coord)
		}
	}
	s.mu.Unlock()
	for _, coord := range expired {
		coord.Close()
	}
	return len(expired)
}

func (s *sessionStore) runReaper(ctx context.Context, busy func(string) bool, logger *zap.Logger) {
	interval := min(s.idle/2, time.Minute)
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if closed := s.Reap(busy); closed > 0 {
				logger.Debug("idle sessions closed", zap.Int("count", closed))
			}
		}
	}
}

func (s *sessionStore) CloseAll() {
	s.mu.Lock()
	coords := make([]*room.Coordinator, 0, len(s.entries))
	for id, entry := range s.entries {
		if entry.coord != nil {
			coords = append(coords, entry.coord)
		}
		delete(s.entries, id)
	}
	s.mu.Unlock()
	for _, coord := range coords {
		coord.Close()
	}
}

// ensureSessionID returns the caller's session, minting a new one when the
// cookie is missing or was not issued by this server.
func (s *Server) ensureSessionID(c *gin.Context) string {
	if cookie, err := c.Request.Cookie(sessionCookie); err == nil && s.sessions.Touch(cookie.Value) {
		return cookie.Value
	}
	id := s.sessions.Mint()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) coordinator(c *gin.Context) (string, *room.Coordinator) {
	id := s.ensureSessionID(c)
	return id, s.sessions.Coordinator(id)
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
