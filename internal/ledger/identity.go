package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidIdentity is returned for identities that fail the format check.
var ErrInvalidIdentity = errors.New("invalid identity")

var validate = validator.New()

// Identity is a writer credential: "0x" followed by 40 hex characters. Parsed
// identities are lowercase so they can be used directly as storage keys.
type Identity string

// IdentityError carries the rejected value.
type IdentityError struct {
	Value string
	Err   error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("invalid identity %q", e.Value)
}

func (e *IdentityError) Unwrap() error {
	return ErrInvalidIdentity
}

// ParseIdentity validates raw and returns its normalized form.
func ParseIdentity(raw string) (Identity, error) {
	trimmed := strings.TrimSpace(raw)
	if err := validate.Var(trimmed, "required,eth_addr"); err != nil {
		return "", &IdentityError{Value: raw, Err: err}
	}
	return Identity(strings.ToLower(trimmed)), nil
}

func (id Identity) String() string {
	return string(id)
}

func (id Identity) IsZero() bool {
	return id == ""
}

// Bytes decodes the 20-byte address behind the identity.
func (id Identity) Bytes() ([]byte, error) {
	raw := strings.TrimPrefix(string(id), "0x")
	out, err := hex.DecodeString(raw)
	if err != nil || len(out) != identityBytes {
		return nil, &IdentityError{Value: string(id), Err: err}
	}
	return out, nil
}

const identityBytes = 20

func identityFromBytes(raw []byte) Identity {
	return Identity("0x" + hex.EncodeToString(raw))
}
