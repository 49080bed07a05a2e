package main

import (
	"strings"
	"time"

	"diamond-hands/internal/game"
	"diamond-hands/internal/ledger"
	"diamond-hands/internal/replication"

	"github.com/pterm/pterm"
)

func renderRecord(record ledger.RoomState, now time.Time) string {
	state := replication.Reconstruct(record)

	var panels []pterm.Panel
	for _, player := range state.Players {
		panels = append(panels, pterm.Panel{Data: playerBox(player, player.IsActive && state.Status == game.StatusPlaying)})
	}
	rows := [][]pterm.Panel{panels, {{Data: statusBox(record, state, now)}}}

	out, err := pterm.DefaultPanel.WithPanels(rows).Srender()
	if err != nil {
		return pterm.Sprintfln("render failed: %v", err)
	}
	return out
}

func playerBox(player game.Player, active bool) string {
	title := pterm.LightCyan("|" + strings.ToUpper(player.Label()) + "|")
	if active {
		title = pterm.LightYellow("|" + strings.ToUpper(player.Label()) + " TO PLAY|")
	}
	body := pterm.Sprintfln("Round: %d", player.RoundScore) +
		pterm.Sprintf("Total: %d", player.TotalScore)
	return pterm.DefaultBox.WithHorizontalPadding(4).WithTitle(title).WithTitleTopCenter().Sprint(body)
}

func statusBox(record ledger.RoomState, state game.State, now time.Time) string {
	var body string
	switch state.Status {
	case game.StatusGameOver:
		body = pterm.Sprintfln("%s", pterm.LightGreen("Game over")) + finalLine(state)
	case game.StatusPlaying:
		body = pterm.Sprintfln("Round %d of %d", state.CurrentRound, state.TotalRounds)
	default:
		body = pterm.Sprintfln("Waiting for the game to start")
	}
	age := now.Sub(record.PublishedAt()).Truncate(time.Second)
	if age < 0 {
		age = 0
	}
	body += pterm.Sprintf("Last synced %s ago", age)
	return pterm.DefaultBox.WithHorizontalPadding(4).WithTitle(pterm.LightMagenta("|" + record.RoomCode + "|")).WithTitleTopCenter().Sprint(body)
}

func finalLine(state game.State) string {
	p1, p2 := state.Players[0].TotalScore, state.Players[1].TotalScore
	leader := state.Players[0]
	if p2 > p1 {
		leader = state.Players[1]
	}
	return pterm.Sprintfln("%s leads %d-%d", leader.Label(), max(p1, p2), min(p1, p2))
}
