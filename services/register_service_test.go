package services

import (
	"crypto/ed25519"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/models"
	"ticket-ledger/utils"
)

// setupCheckIn builds an event owned by a venue organizer and a
// customer holding one approved ticket for it.
func setupCheckIn(t *testing.T, l *testLedger) (venueOwner models.Address, customer models.Address, customerKey ed25519.PrivateKey, eventID, tokenID uint64) {
	venueOwner, _ = registerTestAccount(t, l.env)
	require.NoError(t, l.tickets.Promote(l.admin, venueOwner))

	var err error
	eventID, err = l.tickets.AddEvent(venueOwner, testEventDefinition(50, 10, 4))
	require.NoError(t, err)
	require.NoError(t, l.tickets.SetVenueOwner(l.admin, eventID, venueOwner))

	customer, customerKey = registerTestAccount(t, l.env)
	l.tickets.ApproveTransferAgents(customer)
	tickets, err := l.tickets.PurchaseTickets(customer, eventID, []uint64{0}, decimal.NewFromInt(50))
	require.NoError(t, err)
	tokenID = tickets[0].TokenID
	return venueOwner, customer, customerKey, eventID, tokenID
}

func signChallenge(key ed25519.PrivateKey, challenge string) (digest, sig []byte) {
	digest = utils.HashMessage([]byte(challenge))
	sig = ed25519.Sign(key, digest)
	return digest, sig
}

func TestRegisterService_RegisterTicket_Success(t *testing.T) {
	l := setupTestLedger(t)
	venueOwner, customer, customerKey, eventID, tokenID := setupCheckIn(t, l)

	digest, sig := signChallenge(customerKey, "GATE-7")
	require.NoError(t, l.register.RegisterTicket(venueOwner, eventID, tokenID, digest, sig))

	// The tombstone answers after the burn
	used, err := l.tickets.TicketUsedStatus(tokenID)
	require.NoError(t, err)
	assert.True(t, used)

	// The token no longer resolves
	_, err = l.tickets.OwnerOfTicket(tokenID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, l.tickets.TicketsOwnedBy(customer))

	// The seat is retired, not freed
	owner, err := l.tickets.OwnerOfSeat(eventID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.BurnAddress, owner)

	seats, err := l.tickets.CustomerTicketsForEvent(eventID, customer)
	require.NoError(t, err)
	assert.Empty(t, seats)

	// Sale history is append-only
	sold, err := l.tickets.SeatsSoldForEvent(eventID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, sold)
}

func TestRegisterService_RegisterTicket_CheckOrder(t *testing.T) {
	l := setupTestLedger(t)
	venueOwner, _, customerKey, eventID, tokenID := setupCheckIn(t, l)

	otherOrganizer, _ := registerTestAccount(t, l.env)
	require.NoError(t, l.tickets.Promote(l.admin, otherOrganizer))
	plainCustomer, plainKey := registerTestAccount(t, l.env)

	digest, sig := signChallenge(customerKey, "GATE-7")

	// Not an organizer at all
	err := l.register.RegisterTicket(plainCustomer, eventID, tokenID, digest, sig)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Organizer, but not this event's venue owner
	err = l.register.RegisterTicket(otherOrganizer, eventID, tokenID, digest, sig)
	assert.ErrorIs(t, err, ErrNotVenueOwner)

	// Unknown event
	err = l.register.RegisterTicket(venueOwner, 99, tokenID, digest, sig)
	assert.ErrorIs(t, err, ErrNotFound)

	// Unknown ticket
	err = l.register.RegisterTicket(venueOwner, eventID, 99, digest, sig)
	assert.ErrorIs(t, err, ErrNotFound)

	// Signature from an account that is not the holder
	wrongDigest, wrongSig := signChallenge(plainKey, "GATE-7")
	err = l.register.RegisterTicket(venueOwner, eventID, tokenID, wrongDigest, wrongSig)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	// Nothing above burned the ticket
	_, err = l.tickets.OwnerOfTicket(tokenID)
	assert.NoError(t, err)
}

func TestRegisterService_Redeem_AlreadyUsed(t *testing.T) {
	l := setupTestLedger(t)
	venueOwner, _, customerKey, eventID, tokenID := setupCheckIn(t, l)

	digest, sig := signChallenge(customerKey, "GATE-7")
	require.NoError(t, l.register.RegisterTicket(venueOwner, eventID, tokenID, digest, sig))

	// Redeeming again always fails AlreadyUsed, never NotFound
	err := l.register.RegisterTicket(venueOwner, eventID, tokenID, digest, sig)
	assert.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestRegisterService_BurnedTicket_IsGone(t *testing.T) {
	l := setupTestLedger(t)
	venueOwner, customer, customerKey, eventID, tokenID := setupCheckIn(t, l)

	digest, sig := signChallenge(customerKey, "GATE-7")
	require.NoError(t, l.register.RegisterTicket(venueOwner, eventID, tokenID, digest, sig))

	// A burned ticket cannot be listed
	_, err := l.resale.ListTicketForSale(customer, tokenID, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, ErrNotFound)

	// The retired seat cannot be sold again
	other, _ := registerTestAccount(t, l.env)
	_, err = l.tickets.PurchaseTickets(other, eventID, []uint64{0}, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrAlreadyOwned)
}

func TestRegisterService_RedeemListedTicket_VerifiesCustodyOwner(t *testing.T) {
	l := setupTestLedger(t)
	venueOwner, customer, customerKey, eventID, tokenID := setupCheckIn(t, l)

	_, err := l.resale.ListTicketForSale(customer, tokenID, decimal.NewFromInt(40))
	require.NoError(t, err)

	// While listed the marketplace holds the ticket; the original
	// holder's signature no longer matches the current owner.
	digest, sig := signChallenge(customerKey, "GATE-7")
	err = l.register.RegisterTicket(venueOwner, eventID, tokenID, digest, sig)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}
