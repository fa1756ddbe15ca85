package models

import (
	"github.com/shopspring/decimal"
)

// Listing offers one ticket for resale at a fixed price. A listing is
// active while ListedForResale is true and HasBeenResold is false;
// withdrawal and settlement are both terminal.
type Listing struct {
	ListingID       uint64          `json:"listing_id"`
	TokenID         uint64          `json:"token_id"`
	EventID         uint64          `json:"event_id"`
	Owner           Address         `json:"owner"`
	Price           decimal.Decimal `json:"price"`
	ListedForResale bool            `json:"listed_for_resale"`
	HasBeenResold   bool            `json:"has_been_resold"`
}

// Active reports whether the listing can still be withdrawn or bought.
func (l *Listing) Active() bool {
	return l.ListedForResale && !l.HasBeenResold
}

// ResaleListing is a listing denormalized with the event metadata a
// storefront needs, so one read answers the whole card.
type ResaleListing struct {
	Listing
	SeatNumber            uint64 `json:"seat_number"`
	EventName             string `json:"event_name"`
	EventLocation         string `json:"event_location"`
	EventDate             string `json:"event_date"`
	EventTime             string `json:"event_time"`
	MaxTicketsPerCustomer uint64 `json:"max_tickets_per_customer"`
}
