package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/services"
)

type TicketHandler struct {
	app           *pocketbase.PocketBase
	env           *services.Ledger
	ticketService *services.TicketService
}

func NewTicketHandler(app *pocketbase.PocketBase, env *services.Ledger, ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{
		app:           app,
		env:           env,
		ticketService: ticketService,
	}
}

// RegisterAccount - Register an ed25519 public key and get an address
func (h *TicketHandler) RegisterAccount(e *core.RequestEvent) error {
	var req struct {
		PublicKey string `json:"public_key"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	pub, err := parseHex(req.PublicKey)
	if err != nil {
		return apis.NewBadRequestError("Invalid public key encoding", err)
	}

	account, err := h.env.RegisterAccount(pub)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"address": account})
}

// ApproveAgents - Record standing consent for the transfer agents
func (h *TicketHandler) ApproveAgents(e *core.RequestEvent) error {
	var req struct {
		Caller string `json:"caller"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}

	h.ticketService.ApproveTransferAgents(caller)
	return e.JSON(http.StatusOK, map[string]any{"approved": true})
}

// GetApproval - Whether an account has approved the transfer agents
func (h *TicketHandler) GetApproval(e *core.RequestEvent) error {
	account, err := parseAddress(e.Request.URL.Query().Get("account"))
	if err != nil {
		return apis.NewBadRequestError("Account required", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"account":  account,
		"approved": h.ticketService.AreAgentsApproved(account),
	})
}

// Purchase - Buy seats on the primary market
func (h *TicketHandler) Purchase(e *core.RequestEvent) error {
	var req struct {
		Caller  string   `json:"caller"`
		EventID uint64   `json:"event_id"`
		Seats   []uint64 `json:"seats"`
		Payment string   `json:"payment"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		return apis.NewBadRequestError("Invalid payment amount", err)
	}

	tickets, err := h.ticketService.PurchaseTickets(caller, req.EventID, req.Seats, payment)
	if err != nil {
		return apiError(err)
	}

	for _, ticket := range tickets {
		saveAuditRecord(h.app, "ledger_tickets", map[string]any{
			"token_id": ticket.TokenID,
			"event_id": ticket.EventID,
			"seat":     ticket.SeatNumber,
			"owner":    req.Caller,
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}

// MyTickets - Live tickets held by an account
func (h *TicketHandler) MyTickets(e *core.RequestEvent) error {
	account, err := parseAddress(e.Request.URL.Query().Get("account"))
	if err != nil {
		return apis.NewBadRequestError("Account required", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"account": account,
		"tickets": h.ticketService.TicketsOwnedBy(account),
	})
}

// MySeats - Seat numbers an account holds for one event
func (h *TicketHandler) MySeats(e *core.RequestEvent) error {
	eventID, err := parseID(e.Request.URL.Query().Get("event_id"))
	if err != nil {
		return apis.NewBadRequestError("Event ID required", err)
	}
	account, err := parseAddress(e.Request.URL.Query().Get("account"))
	if err != nil {
		return apis.NewBadRequestError("Account required", err)
	}

	seats, err := h.ticketService.CustomerTicketsForEvent(eventID, account)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"event_id": eventID, "account": account, "seats": seats})
}

// UsedStatus - Whether a ticket has been redeemed (works after burn)
func (h *TicketHandler) UsedStatus(e *core.RequestEvent) error {
	tokenID, err := parseID(e.Request.PathValue("tokenId"))
	if err != nil {
		return apis.NewBadRequestError("Invalid token ID", err)
	}

	used, err := h.ticketService.TicketUsedStatus(tokenID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"token_id": tokenID, "used": used})
}

// Balance - Proceeds credited to an account
func (h *TicketHandler) Balance(e *core.RequestEvent) error {
	account, err := parseAddress(e.Request.URL.Query().Get("account"))
	if err != nil {
		return apis.NewBadRequestError("Account required", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"account": account,
		"balance": h.env.BalanceOf(account),
	})
}
