// internal/deck/deck.go
package deck

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/memorama/internal/models"
)

// Faces is the catalogue of face identifiers handed out to pairs. When a
// board needs more pairs than there are faces, the catalogue is cycled with
// a numeric suffix so every pair keeps a distinct face.
var Faces = []string{
	"apple", "anchor", "balloon", "bell", "cactus", "candle", "cherry", "cloud",
	"comet", "crown", "diamond", "drum", "feather", "fish", "flower", "guitar",
	"heart", "key", "kite", "leaf", "lemon", "moon", "owl", "pear",
}

// Generate returns cardCount cards in a uniformly random order with board
// positions 0..cardCount-1. cardCount must be even and positive; bounds are
// the caller's concern.
func Generate(cardCount int, rng *rand.Rand) []models.Card {
	pairs := cardCount / 2
	cards := make([]models.Card, 0, pairs*2)
	for pairID := 0; pairID < pairs; pairID++ {
		face := faceFor(pairID)
		cards = append(cards,
			models.Card{PairID: pairID, FaceID: face},
			models.Card{PairID: pairID, FaceID: face},
		)
	}

	// Fisher-Yates
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	for i := range cards {
		cards[i].Position = i
	}
	return cards
}

func faceFor(pairID int) string {
	name := Faces[pairID%len(Faces)]
	if round := pairID / len(Faces); round > 0 {
		return fmt.Sprintf("%s-%d", name, round+1)
	}
	return name
}
