package web

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, state DisplayState) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WatchPage(state).Render(context.Background(), &buf))
	return buf.String()
}

func TestWatchPageRendersScores(t *testing.T) {
	html := render(t, DisplayState{
		RoomCode:     "DIAMOND-4821",
		HostIdentity: "0x1111111111111111111111111111111111111111",
		Status:       "playing",
		StatusLabel:  StatusLabel("playing"),
		RoundLabel:   "Round 2 of 5",
		Players: []DisplayPlayer{
			{Label: "Player 1", RoundScore: 15, TotalScore: 40, IsActive: true},
			{Label: "Player 2", TotalScore: 55},
		},
		LastSynced:   "2026-03-01 12:00:00",
		RefreshAfter: 3,
		Matches: []MatchRow{
			{MatchID: "m-1", Winner: "Player 2", Score: "60 - 85", Rounds: 5, PlayedAt: "2026-02-28 20:00:00"},
		},
	})

	assert.Contains(t, html, `<meta http-equiv="refresh" content="3"/>`)
	assert.Contains(t, html, "<h1>DIAMOND-4821</h1>")
	assert.Contains(t, html, "Round 2 of 5 · In play")
	assert.Contains(t, html, `<article class="player active">`)
	assert.Contains(t, html, "Total 55")
	assert.Contains(t, html, "Recent matches")
	assert.Contains(t, html, "60 - 85")
	assert.NotContains(t, html, "Waiting for the host")
}

func TestWatchPageWaitingAndEscaping(t *testing.T) {
	html := render(t, DisplayState{
		RoomCode: "<script>",
		Waiting:  true,
		Notice:   `"quoted" & <b>`,
	})

	assert.Contains(t, html, "Waiting for the host")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<h1><script>")
	assert.Contains(t, html, "&amp;")
	assert.NotContains(t, html, "http-equiv")
	assert.NotContains(t, html, "Recent matches")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "-", FormatTime(time.Time{}))
	assert.Equal(t, "2026-03-01 12:00:00", FormatTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Game over", StatusLabel("gameOver"))
	assert.Equal(t, "Waiting for the host", StatusLabel("bogus"))
}

func TestHomeMentionsRoomFlows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Home().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "/api/rooms/join")
	assert.Contains(t, buf.String(), "/ws/room")
}
