package models

// Ticket is a uniquely identified, singly-owned token giving the right
// to occupy one seat at one event. Token IDs are sequential and never
// reused; a redeemed ticket is removed from the ledger entirely.
type Ticket struct {
	TokenID    uint64 `json:"token_id"`
	EventID    uint64 `json:"event_id"`
	SeatNumber uint64 `json:"seat_number"`
	Used       bool   `json:"used"`
}
