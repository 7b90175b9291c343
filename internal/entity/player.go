package entity

// ConnID is the opaque identity a transport assigns to a connection. It is only ever compared.
type ConnID string

// PlayerSlot is one of the two fixed positions in a match.
type PlayerSlot struct {
	ID      ConnID `json:"id,omitempty"`
	Mark    Mark   `json:"mark"`
	MatchID string `json:"game_id,omitempty"`
}

// IsClaimed reports whether a connection occupies the slot.
func (that PlayerSlot) IsClaimed() bool {
	return that.ID != ""
}
