package server

import (
	"errors"
	"net/http"

	"diamond-hands/internal/ledger"
	"diamond-hands/internal/room"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// statusFor maps coordinator and ledger errors to HTTP statuses.
func statusFor(err error) int {
	var validation *room.ValidationError
	switch {
	case errors.As(err, &validation), errors.Is(err, ledger.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, room.ErrNotHost):
		return http.StatusConflict
	case errors.Is(err, room.ErrNoLedger):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
