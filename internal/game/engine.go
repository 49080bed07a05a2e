package game

import "math/rand/v2"

const (
	DefaultTotalRounds  = 5
	DefaultWinningScore = 100
)

type Rules struct {
	TotalRounds  int
	WinningScore int
}

func DefaultRules() Rules {
	return Rules{
		TotalRounds:  DefaultTotalRounds,
		WinningScore: DefaultWinningScore,
	}
}

// Engine applies the game rules to immutable State values. An Engine is not
// safe for concurrent use because it owns the deck shuffler.
type Engine struct {
	rules Rules
	rng   *rand.Rand
}

// NewEngine returns an engine for rules. A nil rng is replaced by one seeded
// from crypto/rand.
func NewEngine(rules Rules, rng *rand.Rand) *Engine {
	if rules.TotalRounds <= 0 {
		rules.TotalRounds = DefaultTotalRounds
	}
	if rules.WinningScore <= 0 {
		rules.WinningScore = DefaultWinningScore
	}
	if rng == nil {
		rng = NewRand()
	}
	return &Engine{rules: rules, rng: rng}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Waiting returns the pre-game state.
func (e *Engine) Waiting() State {
	return State{
		Players:       [2]Player{newPlayer(Player1), newPlayer(Player2)},
		CurrentRound:  1,
		TotalRounds:   e.rules.TotalRounds,
		RevealedCards: []Card{},
		Deck:          NewDeck(e.rng),
		Status:        StatusWaiting,
	}
}

// Start moves a waiting game into play with a fresh deck.
func (e *Engine) Start(s State) State {
	if s.Status != StatusWaiting {
		return s
	}
	next := s.Clone()
	next.Deck = NewDeck(e.rng)
	next.Status = StatusPlaying
	return next
}

// NewGame returns the initial state already in play.
func (e *Engine) NewGame() State {
	return e.Start(e.Waiting())
}

// Hold draws one card for the active player.
func (e *Engine) Hold(s State) State {
	if s.Status != StatusPlaying {
		return s
	}
	idx, active, ok := s.Active()
	if !ok || active.HasSecured {
		return s
	}
	card, remaining, ok := s.Deck.Draw()
	if !ok {
		return s
	}

	next := s.Clone()
	next.Deck = remaining
	next.LastAction = ActionHold

	if card.IsBust() {
		next.Players[idx].RoundScore = 0
		next.Players[idx].HasSecured = true
		next.RevealedCards = []Card{}
		next = switchActivePlayer(next)
		if next.BothSecured() {
			return e.handleRoundEnd(next)
		}
		return next
	}

	next.Players[idx].RoundScore += card.Value
	next.RevealedCards = append(next.RevealedCards, card)
	return next
}

// Secure banks the active player's round score and passes the turn.
func (e *Engine) Secure(s State) State {
	if s.Status != StatusPlaying {
		return s
	}
	idx, active, ok := s.Active()
	if !ok || active.HasSecured {
		return s
	}

	next := s.Clone()
	next.Players[idx].TotalScore += next.Players[idx].RoundScore
	next.Players[idx].HasSecured = true
	next.RevealedCards = []Card{}
	next.LastAction = ActionSecure
	next = switchActivePlayer(next)
	if next.BothSecured() {
		return e.handleRoundEnd(next)
	}
	return next
}

// handleRoundEnd runs once both players have secured or busted.
func (e *Engine) handleRoundEnd(s State) State {
	winner := NoPlayer
	for _, player := range s.Players {
		if player.TotalScore >= e.rules.WinningScore {
			winner = player.ID
			break
		}
	}

	if winner != NoPlayer || s.CurrentRound >= s.TotalRounds {
		if winner == NoPlayer {
			// Equal totals go to player 1.
			winner = Player1
			if s.Players[1].TotalScore > s.Players[0].TotalScore {
				winner = Player2
			}
		}
		s.Status = StatusGameOver
		s.WinnerID = winner
		return s
	}

	s.CurrentRound++
	s.Deck = NewDeck(e.rng)
	s.RevealedCards = []Card{}
	for i := range s.Players {
		s.Players[i].RoundScore = 0
		s.Players[i].HasSecured = false
		s.Players[i].IsActive = s.Players[i].ID == Player1
	}
	s.Status = StatusPlaying
	return s
}
