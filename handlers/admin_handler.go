package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/services"
)

type AdminHandler struct {
	app           *pocketbase.PocketBase
	ticketService *services.TicketService
	resaleService *services.ResaleService
}

func NewAdminHandler(app *pocketbase.PocketBase, ticketService *services.TicketService, resaleService *services.ResaleService) *AdminHandler {
	return &AdminHandler{
		app:           app,
		ticketService: ticketService,
		resaleService: resaleService,
	}
}

// Promote - Grant the organizer role
func (h *AdminHandler) Promote(e *core.RequestEvent) error {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return apis.NewBadRequestError("Invalid account address", err)
	}

	if err := h.ticketService.Promote(caller, account); err != nil {
		return apiError(err)
	}

	saveAuditRecord(h.app, "ledger_roles", map[string]any{
		"account": req.Account,
		"role":    "organizer",
	})

	return e.JSON(http.StatusOK, map[string]any{"account": account, "role": "organizer"})
}

// SetVenueOwner - Name the organizer allowed to redeem for an event
func (h *AdminHandler) SetVenueOwner(e *core.RequestEvent) error {
	var req struct {
		Caller  string `json:"caller"`
		EventID uint64 `json:"event_id"`
		Owner   string `json:"owner"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		return apis.NewBadRequestError("Invalid owner address", err)
	}

	if err := h.ticketService.SetVenueOwner(caller, req.EventID, owner); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"event_id": req.EventID, "venue_owner": owner})
}

// Withdraw - Move primary-sale funds to the admin account
func (h *AdminHandler) Withdraw(e *core.RequestEvent) error {
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

	amount, err := h.ticketService.WithdrawFunds(caller)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"withdrawn": amount})
}

// SetListingLimit - Change the per-account resale listing cap
func (h *AdminHandler) SetListingLimit(e *core.RequestEvent) error {
	var req struct {
		Caller string `json:"caller"`
		Limit  int    `json:"limit"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}

	if err := h.resaleService.SetListingLimit(caller, req.Limit); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"listing_limit": req.Limit})
}

// GetListingLimit - Current listing cap
func (h *AdminHandler) GetListingLimit(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"listing_limit": h.resaleService.GetListingLimit()})
}

// ContractBalance - Funds currently held from primary sales
func (h *AdminHandler) ContractBalance(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"contract_balance": h.ticketService.ContractBalance()})
}
