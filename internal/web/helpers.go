package web

import (
	"strconv"
	"time"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

// FormatTime renders timestamps the same way on every page.
func FormatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02 15:04:05")
}

func esc(value string) string {
	return templ.EscapeString(value)
}

// StatusLabel maps a wire status to display text.
func StatusLabel(status string) string {
	switch status {
	case "playing":
		return "In play"
	case "gameOver":
		return "Game over"
	default:
		return "Waiting for the host"
	}
}
