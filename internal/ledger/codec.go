package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"diamond-hands/internal/game"
)

// ErrDecode wraps every decoding failure.
var ErrDecode = errors.New("decode record")

// DecodeError names the field that failed to decode.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// EncodeRoomState serializes a room record in RoomStateSchema order.
func EncodeRoomState(r RoomState) ([]byte, error) {
	var enc encoder
	enc.putString("roomCode", r.RoomCode)
	enc.putUint8(r.CurrentRound)
	enc.putUint8(r.TotalRounds)
	enc.putUint16(r.Player1RoundScore)
	enc.putUint16(r.Player1TotalScore)
	enc.putUint16(r.Player2RoundScore)
	enc.putUint16(r.Player2TotalScore)
	enc.putUint8(r.ActivePlayerID)
	enc.putString("gameStatus", r.GameStatus)
	enc.putUint64(r.Timestamp)
	return enc.bytes()
}

// DecodeRoomState is the single typed decode step for room records.
func DecodeRoomState(data []byte) (RoomState, error) {
	dec := decoder{buf: data}
	r := RoomState{
		RoomCode:          dec.string("roomCode"),
		CurrentRound:      dec.uint8("currentRound"),
		TotalRounds:       dec.uint8("totalRounds"),
		Player1RoundScore: dec.uint16("player1RoundScore"),
		Player1TotalScore: dec.uint16("player1TotalScore"),
		Player2RoundScore: dec.uint16("player2RoundScore"),
		Player2TotalScore: dec.uint16("player2TotalScore"),
		ActivePlayerID:    dec.uint8("activePlayerId"),
		GameStatus:        dec.string("gameStatus"),
		Timestamp:         dec.uint64("timestamp"),
	}
	if err := dec.finish(); err != nil {
		return RoomState{}, err
	}
	if r.RoomCode == "" {
		return RoomState{}, &DecodeError{Field: "roomCode", Reason: "empty"}
	}
	if r.ActivePlayerID != 1 && r.ActivePlayerID != 2 {
		return RoomState{}, &DecodeError{Field: "activePlayerId", Reason: fmt.Sprintf("must be 1 or 2, got %d", r.ActivePlayerID)}
	}
	switch game.Status(r.GameStatus) {
	case game.StatusWaiting, game.StatusPlaying, game.StatusGameOver:
	default:
		return RoomState{}, &DecodeError{Field: "gameStatus", Reason: fmt.Sprintf("unknown status %q", r.GameStatus)}
	}
	return r, nil
}

// EncodeMatchResult serializes a match result in MatchResultSchema order.
func EncodeMatchResult(m MatchResult) ([]byte, error) {
	publisher, err := m.Publisher.Bytes()
	if err != nil {
		return nil, err
	}
	var enc encoder
	enc.putString("matchId", m.MatchID)
	enc.putString("winner", m.WinnerLabel)
	enc.putUint16(m.PlayerOneScore)
	enc.putUint16(m.PlayerTwoScore)
	enc.putUint8(m.RoundsPlayed)
	enc.putUint64(m.Timestamp)
	enc.putFixed(publisher)
	return enc.bytes()
}

func DecodeMatchResult(data []byte) (MatchResult, error) {
	dec := decoder{buf: data}
	m := MatchResult{
		MatchID:        dec.string("matchId"),
		WinnerLabel:    dec.string("winner"),
		PlayerOneScore: dec.uint16("playerOneScore"),
		PlayerTwoScore: dec.uint16("playerTwoScore"),
		RoundsPlayed:   dec.uint8("roundsPlayed"),
		Timestamp:      dec.uint64("timestamp"),
		Publisher:      identityFromBytes(dec.fixed("publisher", identityBytes)),
	}
	if err := dec.finish(); err != nil {
		return MatchResult{}, err
	}
	if m.MatchID == "" {
		return MatchResult{}, &DecodeError{Field: "matchId", Reason: "empty"}
	}
	return m, nil
}

type encoder struct {
	buf []byte
	err error
}

func (e *encoder) putString(field, value string) {
	if len(value) > math.MaxUint16 {
		if e.err == nil {
			e.err = fmt.Errorf("encode %s: %d bytes exceeds limit", field, len(value))
		}
		return
	}
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(value)))
	e.buf = append(e.buf, value...)
}

func (e *encoder) putUint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) putUint16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

func (e *encoder) putUint64(v uint64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, v)
}

func (e *encoder) putFixed(v []byte) {
	e.buf = append(e.buf, v...)
}

func (e *encoder) bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// decoder keeps the first error and turns later reads into no-ops.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) take(field string, n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.err = &DecodeError{Field: field, Reason: "truncated"}
		return nil
	}
	out := d.buf[d.off : d.off+n]
	d.off += n
	return out
}

func (d *decoder) uint8(field string) uint8 {
	b := d.take(field, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) uint16(field string) uint16 {
	b := d.take(field, 2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (d *decoder) uint64(field string) uint64 {
	b := d.take(field, 8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (d *decoder) string(field string) string {
	n := d.uint16(field)
	b := d.take(field, int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (d *decoder) fixed(field string, n int) []byte {
	b := d.take(field, n)
	if b == nil {
		return make([]byte, n)
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return &DecodeError{Field: "record", Reason: fmt.Sprintf("%d trailing bytes", len(d.buf)-d.off)}
	}
	return nil
}
