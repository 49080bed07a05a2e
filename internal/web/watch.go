package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// WatchPage renders one ledger read of a room. The page reloads itself so a
// plain browser tab keeps following the host.
func WatchPage(state DisplayState) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		if state.RefreshAfter > 0 {
			b.WriteString(`
    <meta http-equiv="refresh" content="` + itoa(state.RefreshAfter) + `"/>`)
		}
		b.WriteString(`
    <title>` + esc(state.RoomCode) + ` · Diamond Hands</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Watching</span>
        <h1>` + esc(state.RoomCode) + `</h1>
        <p class="host">Host ` + esc(state.HostIdentity) + `</p>
      </header>
`)
		if state.Notice != "" {
			b.WriteString(`      <p class="notice">` + esc(state.Notice) + "</p>\n")
		}
		if state.Waiting {
			b.WriteString(`      <section class="panel waiting">
        <h2>Waiting for the host</h2>
        <p>No game state has been published for this room yet.</p>
      </section>
`)
		} else {
			b.WriteString(`      <section class="panel table" data-status="` + esc(state.Status) + `">
        <h2>` + esc(state.RoundLabel) + ` · ` + esc(state.StatusLabel) + `</h2>
        <div class="players">
`)
			for _, player := range state.Players {
				classes := "player"
				if player.IsActive {
					classes += " active"
				}
				if player.IsWinner {
					classes += " winner"
				}
				b.WriteString(`          <article class="` + classes + `">
            <h3>` + esc(player.Label) + `</h3>
            <p class="round">Round ` + itoa(player.RoundScore) + `</p>
            <p class="total">Total ` + itoa(player.TotalScore) + `</p>
          </article>
`)
			}
			b.WriteString(`        </div>
        <p class="synced">Last synced ` + esc(state.LastSynced) + `</p>
      </section>
`)
		}
		writeMatches(&b, state.Matches)
		b.WriteString(`    </main>
  </body>
</html>
`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeMatches(b *strings.Builder, matches []MatchRow) {
	if len(matches) == 0 {
		return
	}
	b.WriteString(`      <section class="panel history">
        <h2>Recent matches</h2>
        <table>
          <thead><tr><th>Match</th><th>Winner</th><th>Score</th><th>Rounds</th><th>Played</th></tr></thead>
          <tbody>
`)
	for _, match := range matches {
		b.WriteString(`            <tr><td>` + esc(match.MatchID) + `</td><td>` + esc(match.Winner) +
			`</td><td>` + esc(match.Score) + `</td><td>` + itoa(match.Rounds) +
			`</td><td>` + esc(match.PlayedAt) + "</td></tr>\n")
	}
	b.WriteString(`          </tbody>
        </table>
      </section>
`)
}
