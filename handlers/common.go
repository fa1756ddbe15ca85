package handlers

import (
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ticket-ledger/models"
	"ticket-ledger/services"
)

// apiError maps a ledger error kind to the matching HTTP error.
func apiError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return apis.NewNotFoundError(err.Error(), err)
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrNotVenueOwner):
		return apis.NewForbiddenError(err.Error(), err)
	default:
		return apis.NewBadRequestError(err.Error(), err)
	}
}

func parseAddress(raw string) (models.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.ZeroAddress, errors.New("address must not be empty")
	}
	return models.Address(raw), nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func parseID(raw string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
}

func parseHex(raw string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
}

// saveAuditRecord mirrors a ledger transition into a PocketBase
// collection for the admin UI. Best effort: audit failures never fail
// the request.
func saveAuditRecord(app *pocketbase.PocketBase, collectionName string, fields map[string]any) {
	collection, err := app.FindCollectionByNameOrId(collectionName)
	if err != nil {
		log.Printf("Error finding audit collection %s: %v", collectionName, err)
		return
	}
	record := core.NewRecord(collection)
	for name, value := range fields {
		record.Set(name, value)
	}
	if err := app.Save(record); err != nil {
		log.Printf("Error saving audit record to %s: %v", collectionName, err)
	}
}
