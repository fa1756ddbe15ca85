package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/models"
)

// buyTestTicket creates an approved customer holding one ticket and
// returns its token ID.
func buyTestTicket(t *testing.T, l *testLedger, buyer models.Address, eventID, seat uint64, price int64) uint64 {
	l.tickets.ApproveTransferAgents(buyer)
	tickets, err := l.tickets.PurchaseTickets(buyer, eventID, []uint64{seat}, decimal.NewFromInt(price))
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	return tickets[0].TokenID
}

func TestResaleService_ListAndWithdraw_RoundTrip(t *testing.T) {
	l := setupTestLedger(t)
	seller, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 4))
	require.NoError(t, err)
	tokenID := buyTestTicket(t, l, seller, eventID, 0, 50)

	listingID, err := l.resale.ListTicketForSale(seller, tokenID, decimal.NewFromInt(40))
	require.NoError(t, err)

	// Custody moved to the marketplace
	owner, err := l.tickets.OwnerOfTicket(tokenID)
	require.NoError(t, err)
	assert.Equal(t, l.resale.Address(), owner)
	assert.Len(t, l.resale.TicketsForResale(), 1)

	require.NoError(t, l.resale.WithdrawFromResale(seller, listingID))

	// Same token back with the seller, nothing used
	owner, err = l.tickets.OwnerOfTicket(tokenID)
	require.NoError(t, err)
	assert.Equal(t, seller, owner)

	used, err := l.tickets.TicketUsedStatus(tokenID)
	require.NoError(t, err)
	assert.False(t, used)
	assert.Empty(t, l.resale.TicketsForResale())

	// A withdrawn listing cannot be withdrawn again
	err = l.resale.WithdrawFromResale(seller, listingID)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestResaleService_List_Errors(t *testing.T) {
	l := setupTestLedger(t)
	seller, _ := registerTestAccount(t, l.env)
	other, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 4))
	require.NoError(t, err)
	tokenID := buyTestTicket(t, l, seller, eventID, 0, 50)

	_, err = l.resale.ListTicketForSale(seller, 99, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.resale.ListTicketForSale(other, tokenID, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.resale.ListTicketForSale(seller, tokenID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Asking above the original ticket price is rejected
	_, err = l.resale.ListTicketForSale(seller, tokenID, decimal.NewFromInt(51))
	assert.ErrorIs(t, err, ErrPriceTooHigh)
}

func TestResaleService_List_RequiresApproval(t *testing.T) {
	l := setupTestLedger(t)
	seller, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 4))
	require.NoError(t, err)
	tickets, err := l.tickets.PurchaseTickets(seller, eventID, []uint64{0}, decimal.NewFromInt(50))
	require.NoError(t, err)

	_, err = l.resale.ListTicketForSale(seller, tickets[0].TokenID, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResaleService_ListingLimit(t *testing.T) {
	l := setupTestLedger(t)
	seller, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 4))
	require.NoError(t, err)

	l.tickets.ApproveTransferAgents(seller)
	tickets, err := l.tickets.PurchaseTickets(seller, eventID, []uint64{0, 1, 2, 3}, decimal.NewFromInt(200))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = l.resale.ListTicketForSale(seller, tickets[i].TokenID, decimal.NewFromInt(40))
		require.NoError(t, err)
	}

	// Fourth listing exceeds the default limit of 3
	_, err = l.resale.ListTicketForSale(seller, tickets[3].TokenID, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, ErrListingLimitExceeded)

	// Admin raises the limit, the same listing now succeeds
	err = l.resale.SetListingLimit(seller, 4)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, l.resale.SetListingLimit(l.admin, 4))
	assert.Equal(t, 4, l.resale.GetListingLimit())

	_, err = l.resale.ListTicketForSale(seller, tickets[3].TokenID, decimal.NewFromInt(40))
	assert.NoError(t, err)
}

func TestResaleService_SetListingLimit_Validation(t *testing.T) {
	l := setupTestLedger(t)

	err := l.resale.SetListingLimit(l.admin, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResaleService_Purchase_Success(t *testing.T) {
	l := setupTestLedger(t)
	seller, _ := registerTestAccount(t, l.env)
	buyer, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 4))
	require.NoError(t, err)
	tokenID := buyTestTicket(t, l, seller, eventID, 0, 50)

	listingID, err := l.resale.ListTicketForSale(seller, tokenID, decimal.NewFromInt(50))
	require.NoError(t, err)

	// One short of the asked price
	err = l.resale.PurchaseFromResale(buyer, listingID, decimal.NewFromInt(49))
	assert.ErrorIs(t, err, ErrWrongPayment)

	// Overpaying is just as wrong, exact equality is required
	err = l.resale.PurchaseFromResale(buyer, listingID, decimal.NewFromInt(51))
	assert.ErrorIs(t, err, ErrWrongPayment)

	require.NoError(t, l.resale.PurchaseFromResale(buyer, listingID, decimal.NewFromInt(50)))

	owner, err := l.tickets.OwnerOfTicket(tokenID)
	require.NoError(t, err)
	assert.Equal(t, buyer, owner)
	assert.True(t, l.env.BalanceOf(seller).Equal(decimal.NewFromInt(50)))

	seats, err := l.tickets.CustomerTicketsForEvent(eventID, buyer)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, seats)

	// The listing is terminal now
	assert.Empty(t, l.resale.TicketsForResale())
	err = l.resale.PurchaseFromResale(buyer, listingID, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestResaleService_Purchase_Errors(t *testing.T) {
	l := setupTestLedger(t)
	seller, _ := registerTestAccount(t, l.env)
	buyer, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 1))
	require.NoError(t, err)
	tokenID := buyTestTicket(t, l, seller, eventID, 0, 50)

	listingID, err := l.resale.ListTicketForSale(seller, tokenID, decimal.NewFromInt(50))
	require.NoError(t, err)

	err = l.resale.PurchaseFromResale(buyer, 99, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrNotFound)

	err = l.resale.PurchaseFromResale(seller, listingID, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrSelfPurchase)

	// The buyer already holds the per-event maximum
	buyTestTicket(t, l, buyer, eventID, 1, 50)
	err = l.resale.PurchaseFromResale(buyer, listingID, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrCustomerLimitExceeded)
}

func TestResaleService_Views_Denormalized(t *testing.T) {
	l := setupTestLedger(t)
	seller, _ := registerTestAccount(t, l.env)
	other, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 4))
	require.NoError(t, err)
	tokenID := buyTestTicket(t, l, seller, eventID, 3, 50)
	otherToken := buyTestTicket(t, l, other, eventID, 4, 50)

	_, err = l.resale.ListTicketForSale(seller, tokenID, decimal.NewFromInt(40))
	require.NoError(t, err)
	_, err = l.resale.ListTicketForSale(other, otherToken, decimal.NewFromInt(30))
	require.NoError(t, err)

	active := l.resale.TicketsForResale()
	require.Len(t, active, 2)
	assert.Equal(t, "Test Concert", active[0].EventName)
	assert.Equal(t, "Test Arena", active[0].EventLocation)
	assert.Equal(t, uint64(3), active[0].SeatNumber)
	assert.Equal(t, uint64(4), active[0].MaxTicketsPerCustomer)

	mine := l.resale.ListingsBySender(seller)
	require.Len(t, mine, 1)
	assert.Equal(t, tokenID, mine[0].TokenID)
	assert.Equal(t, seller, mine[0].Owner)
}
