package ledger

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// Schema strings describe the field order of the encoded records.
const (
	RoomStateSchema   = "string roomCode,uint8 currentRound,uint8 totalRounds,uint16 player1RoundScore,uint16 player1TotalScore,uint16 player2RoundScore,uint16 player2TotalScore,uint8 activePlayerId,string gameStatus,uint64 timestamp"
	MatchResultSchema = "string matchId,string winner,uint16 playerOneScore,uint16 playerTwoScore,uint8 roundsPlayed,uint64 timestamp,address publisher"
)

// RoomState is the lossy room projection a host publishes for watchers.
type RoomState struct {
	RoomCode          string `json:"room_code"`
	CurrentRound      uint8  `json:"current_round"`
	TotalRounds       uint8  `json:"total_rounds"`
	Player1RoundScore uint16 `json:"player1_round_score"`
	Player1TotalScore uint16 `json:"player1_total_score"`
	Player2RoundScore uint16 `json:"player2_round_score"`
	Player2TotalScore uint16 `json:"player2_total_score"`
	ActivePlayerID    uint8  `json:"active_player_id"`
	GameStatus        string `json:"game_status"`
	Timestamp         uint64 `json:"timestamp"`
}

// PublishedAt converts the record timestamp to a time.
func (r RoomState) PublishedAt() time.Time {
	return time.UnixMilli(int64(r.Timestamp)).UTC()
}

// MatchResult is the immutable summary written once per finished game.
type MatchResult struct {
	MatchID        string   `json:"match_id"`
	WinnerLabel    string   `json:"winner"`
	PlayerOneScore uint16   `json:"player_one_score"`
	PlayerTwoScore uint16   `json:"player_two_score"`
	RoundsPlayed   uint8    `json:"rounds_played"`
	Timestamp      uint64   `json:"timestamp"`
	Publisher      Identity `json:"publisher"`
}

// WriteHandle identifies a completed write.
type WriteHandle string

// DataID derives the ledger key for a logical id using keccak256.
func DataID(key string) string {
	return "0x" + hex.EncodeToString(keccak(key))
}

// RoomDataID is the key under which a room's state is stored.
func RoomDataID(roomCode string) string {
	return DataID("room-" + roomCode)
}

// SchemaID derives a stable id for a schema string.
func SchemaID(schema string) string {
	return DataID(schema)
}

func newWriteHandle(dataID string, payload []byte) WriteHandle {
	buf := make([]byte, 0, len(dataID)+len(payload))
	buf = append(buf, dataID...)
	buf = append(buf, payload...)
	return WriteHandle("0x" + hex.EncodeToString(keccak(string(buf))))
}

func keccak(data string) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(data))
	return h.Sum(nil)
}

func millis(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixMilli())
}
