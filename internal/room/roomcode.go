package room

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// CodePrefix starts every room code.
const CodePrefix = "DIAMOND"

var codePattern = regexp.MustCompile(`^` + CodePrefix + `-\d{4}$`)

// NewRoomCode mints a code of the form DIAMOND-1000 .. DIAMOND-9999. Any four
// digits are accepted on input.
func NewRoomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return CodePrefix + "-1000"
	}
	return fmt.Sprintf("%s-%d", CodePrefix, 1000+n.Int64())
}

// NormalizeRoomCode trims and uppercases user input.
func NormalizeRoomCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidRoomCode reports whether code, after normalization, is well formed.
func ValidRoomCode(code string) bool {
	return codePattern.MatchString(NormalizeRoomCode(code))
}
