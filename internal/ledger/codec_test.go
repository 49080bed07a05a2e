package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoom() RoomState {
	return RoomState{
		RoomCode:          "DIAMOND-4821",
		CurrentRound:      3,
		TotalRounds:       5,
		Player1RoundScore: 15,
		Player1TotalScore: 40,
		Player2RoundScore: 0,
		Player2TotalScore: 55,
		ActivePlayerID:    2,
		GameStatus:        "playing",
		Timestamp:         1_700_000_000_123,
	}
}

func TestRoomStateWireLayout(t *testing.T) {
	data, err := EncodeRoomState(sampleRoom())
	require.NoError(t, err)

	// 2+12 code, 1+1 rounds, 4x2 scores, 1 active, 2+7 status, 8 timestamp
	assert.Len(t, data, 14+2+8+1+9+8)
	assert.Equal(t, []byte{0x00, 0x0c}, data[:2])
	assert.Equal(t, "DIAMOND-4821", string(data[2:14]))
	assert.Equal(t, byte(3), data[14])
	assert.Equal(t, byte(2), data[24])

	decoded, err := DecodeRoomState(data)
	require.NoError(t, err)
	assert.Equal(t, sampleRoom(), decoded)
}

func TestDecodeRoomStateErrorsNameTheField(t *testing.T) {
	valid, err := EncodeRoomState(sampleRoom())
	require.NoError(t, err)

	badActive := sampleRoom()
	badActive.ActivePlayerID = 3
	badActiveData, err := EncodeRoomState(badActive)
	require.NoError(t, err)

	badStatus := sampleRoom()
	badStatus.GameStatus = "paused"
	badStatusData, err := EncodeRoomState(badStatus)
	require.NoError(t, err)

	emptyCode := sampleRoom()
	emptyCode.RoomCode = ""
	emptyCodeData, err := EncodeRoomState(emptyCode)
	require.NoError(t, err)

	cases := map[string]struct {
		data  []byte
		field string
	}{
		"empty":     {data: nil, field: "roomCode"},
		"truncated": {data: valid[:len(valid)-3], field: "timestamp"},
		"trailing":  {data: append(append([]byte{}, valid...), 0xff), field: "record"},
		"active":    {data: badActiveData, field: "activePlayerId"},
		"status":    {data: badStatusData, field: "gameStatus"},
		"code":      {data: emptyCodeData, field: "roomCode"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRoomState(tc.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tc.field, decodeErr.Field)
		})
	}
}

func TestMatchResultRoundTrip(t *testing.T) {
	result := MatchResult{
		MatchID:        "5f0c7f4e-1d2b-4c1e-9a51-1f3b0e0f9a10",
		WinnerLabel:    "Player 2",
		PlayerOneScore: 60,
		PlayerTwoScore: 85,
		RoundsPlayed:   5,
		Timestamp:      1_700_000_000_000,
		Publisher:      Identity(hostAddr),
	}
	data, err := EncodeMatchResult(result)
	require.NoError(t, err)

	decoded, err := DecodeMatchResult(data)
	require.NoError(t, err)
	assert.Equal(t, result, decoded)

	_, err = DecodeMatchResult(data[:len(data)-1])
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "publisher", decodeErr.Field)
}

func TestEncodeMatchResultNeedsPublisher(t *testing.T) {
	_, err := EncodeMatchResult(MatchResult{MatchID: "m"})
	assert.True(t, errors.Is(err, ErrInvalidIdentity))
}

func TestDataIDIsKeccak(t *testing.T) {
	// keccak256("") is a well known constant.
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", DataID(""))
	assert.Equal(t, DataID("room-DIAMOND-1234"), RoomDataID("DIAMOND-1234"))
	assert.NotEqual(t, RoomDataID("DIAMOND-1234"), RoomDataID("DIAMOND-1235"))
}
