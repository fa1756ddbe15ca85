package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/services"
)

type ResaleHandler struct {
	app           *pocketbase.PocketBase
	resaleService *services.ResaleService
}

func NewResaleHandler(app *pocketbase.PocketBase, resaleService *services.ResaleService) *ResaleHandler {
	return &ResaleHandler{
		app:           app,
		resaleService: resaleService,
	}
}

// List - Put a ticket up for resale
func (h *ResaleHandler) List(e *core.RequestEvent) error {
	var req struct {
		Caller  string `json:"caller"`
		TokenID uint64 `json:"token_id"`
		Price   string `json:"price"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		return apis.NewBadRequestError("Invalid price", err)
	}

	listingID, err := h.resaleService.ListTicketForSale(caller, req.TokenID, price)
	if err != nil {
		return apiError(err)
	}

	saveAuditRecord(h.app, "ledger_listings", map[string]any{
		"listing_id": listingID,
		"token_id":   req.TokenID,
		"owner":      req.Caller,
		"price":      req.Price,
		"status":     "active",
	})

	return e.JSON(http.StatusOK, map[string]any{"listing_id": listingID})
}

// Withdraw - Cancel an active listing
func (h *ResaleHandler) Withdraw(e *core.RequestEvent) error {
	var req struct {
		Caller    string `json:"caller"`
		ListingID uint64 `json:"listing_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}

	if err := h.resaleService.WithdrawFromResale(caller, req.ListingID); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"listing_id": req.ListingID, "withdrawn": true})
}

// Purchase - Buy an active listing at its exact price
func (h *ResaleHandler) Purchase(e *core.RequestEvent) error {
	var req struct {
		Caller    string `json:"caller"`
		ListingID uint64 `json:"listing_id"`
		Payment   string `json:"payment"`
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

	if err := h.resaleService.PurchaseFromResale(caller, req.ListingID, payment); err != nil {
		return apiError(err)
	}

	saveAuditRecord(h.app, "ledger_listings", map[string]any{
		"listing_id": req.ListingID,
		"owner":      req.Caller,
		"status":     "resold",
	})

	return e.JSON(http.StatusOK, map[string]any{"listing_id": req.ListingID, "purchased": true})
}

// Active - Every active listing with denormalized event details
func (h *ResaleHandler) Active(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"listings": h.resaleService.TicketsForResale()})
}

// Mine - The caller's active listings
func (h *ResaleHandler) Mine(e *core.RequestEvent) error {
	account, err := parseAddress(e.Request.URL.Query().Get("account"))
	if err != nil {
		return apis.NewBadRequestError("Account required", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"account":  account,
		"listings": h.resaleService.ListingsBySender(account),
	})
}
