package server

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"diamond-hands/internal/ledger"
	"diamond-hands/internal/room"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*ledger.MemoryStore
	mu   sync.Mutex
	gets int
}

func (s *countingStore) Get(ctx context.Context, publisher ledger.Identity, dataID string) (ledger.Entry, bool, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.MemoryStore.Get(ctx, publisher, dataID)
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func TestIdleSessionStopsWatching(t *testing.T) {
	store := &countingStore{MemoryStore: ledger.NewMemoryStore()}
	client := ledger.NewClient(store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sessions := newSessionStore(func(string) *room.Coordinator {
		return room.NewCoordinator(room.Options{Ledger: client, PollInterval: 10 * time.Millisecond})
	}, time.Minute)
	sessions.now = func() time.Time { return now }
	defer sessions.CloseAll()

	id := sessions.Mint()
	coord := sessions.Coordinator(id)
	require.NoError(t, coord.JoinRoom("DIAMOND-1234", hostAddr))
	require.Eventually(t, func() bool { return store.count() >= 2 }, time.Second, 5*time.Millisecond)

	now = now.Add(30 * time.Second)
	assert.Zero(t, sessions.Reap(nil))
	role, _ := coord.Role()
	assert.Equal(t, room.RoleWatcher, role)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, sessions.Reap(nil))
	role, _ = coord.Role()
	assert.Equal(t, room.RoleNone, role)
	assert.False(t, sessions.Touch(id))
	assert.Zero(t, sessions.Len())

	time.Sleep(20 * time.Millisecond)
	settled := store.count()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, store.count(), "reaped session must stop polling")
}

func TestBusySessionIsNotReaped(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := newSessionStore(func(string) *room.Coordinator {
		return room.NewCoordinator(room.Options{})
	}, time.Minute)
	sessions.now = func() time.Time { return now }
	defer sessions.CloseAll()

	id := sessions.Mint()
	sessions.Coordinator(id)

	now = now.Add(time.Hour)
	assert.Zero(t, sessions.Reap(func(got string) bool { return got == id }))
	assert.True(t, sessions.Touch(id))
}

func TestUnknownSessionCookieIsReplaced(t *testing.T) {
	ts, _ := startServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/room", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "made-up"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie {
			issued = cookie.Value
		}
	}
	require.NotEmpty(t, issued, "a fresh session cookie must be issued")
	assert.NotEqual(t, "made-up", issued)

	browser := newBrowser(t)
	doRequest(t, browser, ts, http.MethodGet, "/", nil)
	resp = doRequest(t, browser, ts, http.MethodGet, "/api/room", nil)
	assert.Empty(t, resp.Cookies(), "a minted session is kept")
}
