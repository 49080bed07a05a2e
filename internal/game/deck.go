package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// CardType identifies the tier of a card. Bust cards end the drawer's turn.
type CardType string

const (
	Tier1 CardType = "tier1"
	Tier2 CardType = "tier2"
	Tier3 CardType = "tier3"
	Bust  CardType = "bust"
)

// cardTypes is the canonical ordering used to build a deck.
var cardTypes = []CardType{Tier1, Tier2, Tier3, Bust}

var cardValues = map[CardType]int{
	Tier1: 5,
	Tier2: 10,
	Tier3: 15,
	Bust:  0,
}

var deckDistribution = map[CardType]int{
	Tier1: 8,
	Tier2: 6,
	Tier3: 4,
	Bust:  4,
}

// Value returns the points a card of this type is worth.
func (t CardType) Value() int {
	return cardValues[t]
}

type Card struct {
	ID       string   `json:"id"`
	Type     CardType `json:"type"`
	Value    int      `json:"value"`
	Revealed bool     `json:"revealed"`
}

// IsBust reports whether drawing the card ends the turn.
func (c Card) IsBust() bool {
	return c.Type == Bust
}

// Deck is an ordered, consumable sequence of cards. Draw never mutates the
// receiver; callers keep the returned remainder.
type Deck struct {
	cards []Card
}

// NewDeck builds the fixed distribution and shuffles it with rng.
func NewDeck(rng *rand.Rand) Deck {
	cards := make([]Card, 0, DeckSize())
	for _, cardType := range cardTypes {
		for i := 0; i < deckDistribution[cardType]; i++ {
			cards = append(cards, Card{
				ID:    fmt.Sprintf("%s-%d", cardType, i),
				Type:  cardType,
				Value: cardType.Value(),
			})
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return Deck{cards: cards}
}

// DeckFromCards builds a deck in the given order. Used for replay and tests.
func DeckFromCards(cards []Card) Deck {
	out := make([]Card, len(cards))
	copy(out, cards)
	return Deck{cards: out}
}

// Draw pops the head card and returns it revealed together with the rest of
// the deck. ok is false when the deck is exhausted.
func (d Deck) Draw() (card Card, remaining Deck, ok bool) {
	if len(d.cards) == 0 {
		return Card{}, Deck{}, false
	}
	card = d.cards[0]
	card.Revealed = true
	return card, Deck{cards: d.cards[1:]}, true
}

func (d Deck) Len() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards in draw order.
func (d Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Composition counts the remaining cards per type.
func (d Deck) Composition() map[CardType]int {
	counts := make(map[CardType]int, len(cardTypes))
	for _, card := range d.cards {
		counts[card.Type]++
	}
	return counts
}

// Distribution returns the per-type card counts of a fresh deck.
func Distribution() map[CardType]int {
	out := make(map[CardType]int, len(deckDistribution))
	for cardType, count := range deckDistribution {
		out[cardType] = count
	}
	return out
}

func DeckSize() int {
	total := 0
	for _, count := range deckDistribution {
		total += count
	}
	return total
}

// NewRand returns a PCG source seeded from crypto/rand.
func NewRand() *rand.Rand {
	return seededRand(crand.Read)
}

// seededRand panics when no seed can be read; a fixed seed would deal every
// game the same deck.
func seededRand(read func([]byte) (int, error)) *rand.Rand {
	var seed [16]byte
	if _, err := read(seed[:]); err != nil {
		panic(fmt.Sprintf("game: seed deck rng: %v", err))
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}
