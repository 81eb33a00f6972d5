package models

// Card is a single board card. Exactly two cards share a PairID.
type Card struct {
	Position int    `json:"position"`
	PairID   int    `json:"pairId"`
	FaceID   string `json:"faceId"`
	Matched  bool   `json:"matched"`
}

// BoardSlot is the client-facing view of a card; faces stay hidden.
type BoardSlot struct {
	Position int  `json:"position"`
	Matched  bool `json:"matched"`
}
