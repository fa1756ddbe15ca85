package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/services"
	"ticket-ledger/utils"
)

type RegisterHandler struct {
	app             *pocketbase.PocketBase
	registerService *services.RegisterService
}

func NewRegisterHandler(app *pocketbase.PocketBase, registerService *services.RegisterService) *RegisterHandler {
	return &RegisterHandler{
		app:             app,
		registerService: registerService,
	}
}

// Challenge - Mint a random check-in challenge for the holder to sign.
// The venue shows it, the holder signs its sha3-256 digest.
func (h *RegisterHandler) Challenge(e *core.RequestEvent) error {
	code, err := utils.GenerateCode(16)
	if err != nil {
		return apis.NewBadRequestError("Failed to generate challenge", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"challenge": code,
		"digest":    utils.HashMessage([]byte(code)),
	})
}

// Redeem - Check a ticket holder in and burn the ticket
func (h *RegisterHandler) Redeem(e *core.RequestEvent) error {
	var req struct {
		Caller    string `json:"caller"`
		EventID   uint64 `json:"event_id"`
		TokenID   uint64 `json:"token_id"`
		Digest    string `json:"digest"`
		Signature string `json:"signature"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		return apis.NewBadRequestError("Invalid caller address", err)
	}
	digest, err := parseHex(req.Digest)
	if err != nil {
		return apis.NewBadRequestError("Invalid digest encoding", err)
	}
	sig, err := parseHex(req.Signature)
	if err != nil {
		return apis.NewBadRequestError("Invalid signature encoding", err)
	}

	if err := h.registerService.RegisterTicket(caller, req.EventID, req.TokenID, digest, sig); err != nil {
		return apiError(err)
	}

	saveAuditRecord(h.app, "ledger_tickets", map[string]any{
		"token_id": req.TokenID,
		"event_id": req.EventID,
		"owner":    "",
		"used":     true,
	})

	return e.JSON(http.StatusOK, map[string]any{"token_id": req.TokenID, "redeemed": true})
}
