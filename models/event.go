package models

import (
	"github.com/shopspring/decimal"
)

type Event struct {
	ID                    uint64          `json:"id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	TotalSeats            uint64          `json:"total_seats"`
	SeatsSold             []uint64        `json:"seats_sold"` // seat numbers in sale order, never shrinks
	Location              string          `json:"location"`
	Date                  string          `json:"date"`
	Time                  string          `json:"time"`
	TicketPrice           decimal.Decimal `json:"ticket_price"`
	MaxTicketsPerCustomer uint64          `json:"max_tickets_per_customer"`
	ImageURL              string          `json:"image_url"`
	VenueOwner            Address         `json:"venue_owner"`
}

// TicketsLeft is the remaining primary-sale inventory. Redemption does
// not free seats, so this only ever decreases.
func (e *Event) TicketsLeft() uint64 {
	return e.TotalSeats - uint64(len(e.SeatsSold))
}

// EventDefinition is the organizer-supplied part of an Event.
type EventDefinition struct {
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	TotalSeats            uint64          `json:"total_seats"`
	Location              string          `json:"location"`
	Date                  string          `json:"date"`
	Time                  string          `json:"time"`
	TicketPrice           decimal.Decimal `json:"ticket_price"`
	MaxTicketsPerCustomer uint64          `json:"max_tickets_per_customer"`
	ImageURL              string          `json:"image_url"`
}
