package room

import (
	"errors"
	"fmt"
)

var (
	ErrNotHost  = errors.New("only the host can change the game")
	ErrNoLedger = errors.New("no ledger configured")
)

// ValidationError reports bad caller input. No ledger call is made when one
// is returned.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
