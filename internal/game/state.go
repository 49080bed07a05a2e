package game

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "gameOver"
)

// ParseStatus maps a wire status string to a Status. Unknown values fall back
// to waiting.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusPlaying:
		return StatusPlaying
	case StatusGameOver:
		return StatusGameOver
	default:
		return StatusWaiting
	}
}

type Action string

const (
	ActionNone   Action = ""
	ActionHold   Action = "hold"
	ActionSecure Action = "secure"
)

// PlayerID is 1 or 2. The zero value means "no player".
type PlayerID int

const (
	NoPlayer PlayerID = 0
	Player1  PlayerID = 1
	Player2  PlayerID = 2
)

type Player struct {
	ID         PlayerID `json:"id"`
	RoundScore int      `json:"round_score"`
	TotalScore int      `json:"total_score"`
	IsActive   bool     `json:"is_active"`
	HasSecured bool     `json:"has_secured"`
}

// Label is the display name used in match results.
func (p Player) Label() string {
	if p.ID == Player2 {
		return "Player 2"
	}
	return "Player 1"
}

type State struct {
	Players       [2]Player `json:"players"`
	CurrentRound  int       `json:"current_round"`
	TotalRounds   int       `json:"total_rounds"`
	RevealedCards []Card    `json:"revealed_cards"`
	Deck          Deck      `json:"-"`
	Status        Status    `json:"game_status"`
	WinnerID      PlayerID  `json:"winner_id"`
	LastAction    Action    `json:"last_action"`
}

func newPlayer(id PlayerID) Player {
	return Player{ID: id, IsActive: id == Player1}
}

// Active returns the index and value of the active player.
func (s State) Active() (int, Player, bool) {
	for i, player := range s.Players {
		if player.IsActive {
			return i, player, true
		}
	}
	return -1, Player{}, false
}

// ActiveID returns the active player's id, or NoPlayer.
func (s State) ActiveID() PlayerID {
	if _, player, ok := s.Active(); ok {
		return player.ID
	}
	return NoPlayer
}

// Winner returns the winning player once the game is over.
func (s State) Winner() (Player, bool) {
	if s.WinnerID == NoPlayer {
		return Player{}, false
	}
	for _, player := range s.Players {
		if player.ID == s.WinnerID {
			return player, true
		}
	}
	return Player{}, false
}

func (s State) BothSecured() bool {
	return s.Players[0].HasSecured && s.Players[1].HasSecured
}

// Clone returns a copy that shares no mutable slices with s.
func (s State) Clone() State {
	out := s
	if s.RevealedCards != nil {
		out.RevealedCards = make([]Card, len(s.RevealedCards))
		copy(out.RevealedCards, s.RevealedCards)
	}
	out.Deck = DeckFromCards(s.Deck.cards)
	return out
}

func switchActivePlayer(s State) State {
	s.Players[0].IsActive = !s.Players[0].IsActive
	s.Players[1].IsActive = !s.Players[1].IsActive
	return s
}
