package services

import (
	"errors"
)

// Ledger error kinds. Every failing operation wraps exactly one of
// these so callers can match with errors.Is and map to a response.
var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrAlreadyOwned          = errors.New("already owned")
	ErrAlreadyUsed           = errors.New("already used")
	ErrNotActive             = errors.New("listing not active")
	ErrCapacityExceeded      = errors.New("capacity exceeded")
	ErrCustomerLimitExceeded = errors.New("customer limit exceeded")
	ErrListingLimitExceeded  = errors.New("listing limit exceeded")
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrWrongPayment          = errors.New("wrong payment")
	ErrPriceTooHigh          = errors.New("price too high")
	ErrSignatureMismatch     = errors.New("signature mismatch")
	ErrSelfPurchase          = errors.New("self purchase")
	ErrNotVenueOwner         = errors.New("not venue owner")
)
