package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"diamond-hands/internal/ledger"
	"diamond-hands/internal/room"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hostAddr  = "0x1111111111111111111111111111111111111111"
	otherAddr = "0x2222222222222222222222222222222222222222"
)

func TestHomePageSetsSession(t *testing.T) {
	ts, _ := startServer(t)
	resp := doRequest(t, newBrowser(t), ts, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "expected %s cookie", sessionCookie)
}

func TestRules(t *testing.T) {
	ts, _ := startServer(t)
	resp := doRequest(t, newBrowser(t), ts, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(5), body["total_rounds"])
	assert.Equal(t, float64(100), body["winning_score"])
	assert.Equal(t, float64(22), body["deck_size"])
	deck := body["deck"].(map[string]any)
	assert.Equal(t, float64(4), deck["bust"].(map[string]any)["count"])
	assert.Equal(t, float64(15), deck["tier3"].(map[string]any)["value"])
}

func TestEmptySessionView(t *testing.T) {
	ts, _ := startServer(t)
	view := roomView(t, newBrowser(t), ts)
	assert.Equal(t, "none", view["role"])
	assert.Nil(t, view["state"])
}

func TestCreateRoomAndPlay(t *testing.T) {
	ts, _ := startServer(t)
	browser := newBrowser(t)

	code := createRoom(t, browser, ts, hostAddr)
	assert.True(t, room.ValidRoomCode(code))

	resp := doRequest(t, browser, ts, http.MethodPost, "/api/game/hold", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	view := body["view"].(map[string]any)
	assert.Equal(t, "host", view["role"])
	assert.Equal(t, code, view["room_code"])
	state := view["state"].(map[string]any)
	assert.Equal(t, "hold", state["last_action"])

	resp = doRequest(t, browser, ts, http.MethodPost, "/api/game/new", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decodeBody(t, resp)["view"].(map[string]any)["state"].(map[string]any)
	assert.Equal(t, "", state["last_action"])
	assert.Equal(t, float64(1), state["current_round"])
}

func TestCreateRoomWithoutBody(t *testing.T) {
	ts, _ := startServer(t)
	resp := doRequest(t, newBrowser(t), ts, http.MethodPost, "/api/rooms", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	view := decodeBody(t, resp)["view"].(map[string]any)
	assert.Equal(t, false, view["replicating"])
}

func TestCreateRoomRejectsBadIdentity(t *testing.T) {
	ts, _ := startServer(t)
	resp := doRequest(t, newBrowser(t), ts, http.MethodPost, "/api/rooms", map[string]string{"identity": "0x123"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "identity must be 0x followed by 40 hex characters", decodeBody(t, resp)["error"])
}

func TestJoinRoomValidation(t *testing.T) {
	ts, _ := startServer(t)
	browser := newBrowser(t)

	resp := doRequest(t, browser, ts, http.MethodPost, "/api/rooms/join", map[string]string{"room_code": "DIAMOND-1234"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "host identity is required", decodeBody(t, resp)["error"])

	resp = doRequest(t, browser, ts, http.MethodPost, "/api/rooms/join", map[string]string{
		"room_code":     "RUBY-1",
		"host_identity": hostAddr,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, browser, ts, http.MethodPost, "/api/rooms/join", map[string]string{
		"room_code":     "DIAMOND-1234",
		"host_identity": "0xzz",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "none", roomView(t, browser, ts)["role"])
}

func TestGameActionsNeedHost(t *testing.T) {
	ts, _ := startServer(t)
	browser := newBrowser(t)

	resp := doRequest(t, browser, ts, http.MethodPost, "/api/game/hold", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, browser, ts, http.MethodPost, "/api/game/fold", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unknown action", decodeBody(t, resp)["error"])
}

func TestLeaveRoom(t *testing.T) {
	ts, _ := startServer(t)
	browser := newBrowser(t)
	createRoom(t, browser, ts, "")

	for i := 0; i < 2; i++ {
		resp := doRequest(t, browser, ts, http.MethodPost, "/api/rooms/leave", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, "none", roomView(t, browser, ts)["role"])
}

func TestHostAndWatcherShareLedger(t *testing.T) {
	ts, client := startServer(t)
	host := newBrowser(t)
	watcher := newBrowser(t)

	code := createRoom(t, host, ts, hostAddr)
	require.Eventually(t, func() bool {
		_, ok, err := client.Fetch(context.Background(), code, ledger.Identity(hostAddr))
		return err == nil && ok
	}, 2*time.Second, 10*time.Millisecond)

	resp := doRequest(t, watcher, ts, http.MethodPost, "/api/rooms/join", map[string]string{
		"room_code":     code,
		"host_identity": hostAddr,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		view := roomView(t, watcher, ts)
		return view["role"] == "watcher" && view["state"] != nil
	}, 3*time.Second, 20*time.Millisecond)

	resp = doRequest(t, watcher, ts, http.MethodPost, "/api/game/secure", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	hostView := roomView(t, host, ts)
	assert.Equal(t, "host", hostView["role"])
}

func TestWatchPage(t *testing.T) {
	ts, client := startServer(t)
	browser := newBrowser(t)

	resp := doRequest(t, browser, ts, http.MethodGet, "/watch/nope?host="+hostAddr, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, browser, ts, http.MethodGet, "/watch/DIAMOND-1234", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, browser, ts, http.MethodGet, "/watch/diamond-1234?host="+hostAddr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Waiting for the host")

	writer := client.WithWriter(ledger.Identity(hostAddr))
	_, err = writer.Publish(context.Background(), "DIAMOND-1234", ledger.RoomState{
		CurrentRound:      2,
		TotalRounds:       5,
		Player1TotalScore: 35,
		ActivePlayerID:    2,
		GameStatus:        "playing",
	})
	require.NoError(t, err)
	_, err = writer.PublishMatchResult(context.Background(), ledger.MatchResult{
		MatchID:        "match-42",
		WinnerLabel:    "Player 2",
		PlayerOneScore: 60,
		PlayerTwoScore: 85,
		RoundsPlayed:   5,
	})
	require.NoError(t, err)

	resp = doRequest(t, browser, ts, http.MethodGet, "/watch/DIAMOND-1234?host="+hostAddr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Round 2 of 5")
	assert.Contains(t, string(page), "Total 35")
	assert.Contains(t, string(page), "match-42")
	assert.Contains(t, string(page), "60 - 85")
}

func TestMatchesEndpoint(t *testing.T) {
	ts, client := startServer(t)
	browser := newBrowser(t)

	resp := doRequest(t, browser, ts, http.MethodGet, "/api/matches/0x12", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	writer := client.WithWriter(ledger.Identity(otherAddr))
	for _, id := range []string{"a", "b", "c"} {
		_, err := writer.PublishMatchResult(context.Background(), ledger.MatchResult{MatchID: id, WinnerLabel: "Player 1"})
		require.NoError(t, err)
	}

	resp = doRequest(t, browser, ts, http.MethodGet, "/api/matches/"+otherAddr+"?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	matches := decodeBody(t, resp)["matches"].([]any)
	assert.Len(t, matches, 2)

	resp = doRequest(t, browser, ts, http.MethodGet, "/api/matches/"+otherAddr+"?limit=zero", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerWithoutLedger(t *testing.T) {
	srv := New(nil, testConfig(), nil)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	browser := newBrowser(t)

	createRoom(t, browser, ts, hostAddr)
	assert.Equal(t, false, roomView(t, browser, ts)["replicating"])

	resp := doRequest(t, browser, ts, http.MethodPost, "/api/rooms/join", map[string]string{
		"room_code":     "DIAMOND-1234",
		"host_identity": hostAddr,
	})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = doRequest(t, browser, ts, http.MethodGet, "/api/matches/"+hostAddr, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
