package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/models"
	"ticket-ledger/services"
)

type EventHandler struct {
	app           *pocketbase.PocketBase
	ticketService *services.TicketService
}

func NewEventHandler(app *pocketbase.PocketBase, ticketService *services.TicketService) *EventHandler {
	return &EventHandler{
		app:           app,
		ticketService: ticketService,
	}
}

// CreateEvent - Register a new event (organizer only)
func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	var req struct {
		Caller                string `json:"caller"`
		Name                  string `json:"name"`
		Description           string `json:"description"`
		TotalSeats            uint64 `json:"total_seats"`
		Location              string `json:"location"`
		Date                  string `json:"date"`
		Time                  string `json:"time"`
		TicketPrice           string `json:"ticket_price"`
		MaxTicketsPerCustomer uint64 `json:"max_tickets_per_customer"`
		ImageURL              string `json:"image_url"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}
	price, err := parseAmount(req.TicketPrice)
	if err != nil {
		return apis.NewBadRequestError("Invalid ticket price", err)
	}

	eventID, err := h.ticketService.AddEvent(caller, models.EventDefinition{
		Name:                  req.Name,
		Description:           req.Description,
		TotalSeats:            req.TotalSeats,
		Location:              req.Location,
		Date:                  req.Date,
		Time:                  req.Time,
		TicketPrice:           price,
		MaxTicketsPerCustomer: req.MaxTicketsPerCustomer,
		ImageURL:              req.ImageURL,
	})
	if err != nil {
		return apiError(err)
	}

	saveAuditRecord(h.app, "ledger_events", map[string]any{
		"event_id":     eventID,
		"name":         req.Name,
		"location":     req.Location,
		"total_seats":  req.TotalSeats,
		"ticket_price": req.TicketPrice,
		"organizer":    req.Caller,
	})

	return e.JSON(http.StatusOK, map[string]any{"event_id": eventID})
}

// GetEvents - List all events
func (h *EventHandler) GetEvents(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"events": h.ticketService.AllEvents()})
}

// GetEvent - Event details with seats sold
func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	eventID, err := parseID(e.Request.PathValue("eventId"))
	if err != nil {
		return apis.NewBadRequestError("Invalid event ID", err)
	}

	event, err := h.ticketService.EventByID(eventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, event)
}

// GetSeatsSold - Sold seat numbers for an event, in sale order
func (h *EventHandler) GetSeatsSold(e *core.RequestEvent) error {
	eventID, err := parseID(e.Request.PathValue("eventId"))
	if err != nil {
		return apis.NewBadRequestError("Invalid event ID", err)
	}

	seats, err := h.ticketService.SeatsSoldForEvent(eventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"event_id": eventID, "seats_sold": seats})
}

// GetSeatOwner - Current holder of a seat
func (h *EventHandler) GetSeatOwner(e *core.RequestEvent) error {
	eventID, err := parseID(e.Request.PathValue("eventId"))
	if err != nil {
		return apis.NewBadRequestError("Invalid event ID", err)
	}
	seat, err := parseID(e.Request.PathValue("seat"))
	if err != nil {
		return apis.NewBadRequestError("Invalid seat number", err)
	}

	owner, err := h.ticketService.OwnerOfSeat(eventID, seat)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"event_id": eventID, "seat": seat, "owner": owner})
}
