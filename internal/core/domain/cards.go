package domain

// Card is a single playing card. Value is the blackjack base value
// (face cards 10, ace 11 before demotion).
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

var (
	suits = []string{"hearts", "diamonds", "clubs", "spades"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// NewDeck returns an ordered 52-card deck. Callers shuffle it with a seeded
// Fisher-Yates pass before dealing.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// baseValue returns the card's blackjack value with aces counted high.
func (c Card) baseValue() int {
	switch c.Rank {
	case "A":
		return 11
	case "K", "Q", "J", "10":
		return 10
	case "9":
		return 9
	case "8":
		return 8
	case "7":
		return 7
	case "6":
		return 6
	case "5":
		return 5
	case "4":
		return 4
	case "3":
		return 3
	default: // "2"
		return 2
	}
}

// HandValue scores a blackjack hand. Aces count 11, then demote to 1 one at
// a time while the total busts.
func HandValue(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		total += c.baseValue()
		if c.Rank == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsNatural reports whether a two-card hand is a natural blackjack.
func IsNatural(hand []Card) bool {
	return len(hand) == 2 && HandValue(hand) == 21
}
