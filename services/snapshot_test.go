package services

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore_SaveAndRestore(t *testing.T) {
	l := setupTestLedger(t)
	customer, _ := registerTestAccount(t, l.env)

	eventID, err := l.tickets.AddEvent(l.admin, testEventDefinition(50, 10, 4))
	require.NoError(t, err)
	l.tickets.ApproveTransferAgents(customer)
	tickets, err := l.tickets.PurchaseTickets(customer, eventID, []uint64{0, 1}, decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = l.resale.ListTicketForSale(customer, tickets[0].TokenID, decimal.NewFromInt(40))
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	store := NewSnapshotStore(db, "test:snapshot")

	data, err := store.encode(l.tickets, l.resale)
	require.NoError(t, err)

	mock.ExpectSet("test:snapshot", data, 0).SetVal("OK")
	require.NoError(t, store.Save(context.Background(), l.tickets, l.resale))
	assert.NoError(t, mock.ExpectationsWereMet())

	// Restore into a fresh node built around the same admin
	restored := &testLedger{env: NewLedger(), admin: l.admin}
	restored.tickets = NewTicketService(restored.env, l.admin, "EventTickets", "ETIX", nil)
	restored.resale = NewResaleService(restored.env, l.admin, 3, nil)
	require.NoError(t, restored.resale.SetTicketService(l.admin, restored.tickets))

	db2, mock2 := redismock.NewClientMock()
	store2 := NewSnapshotStore(db2, "test:snapshot")
	mock2.ExpectGet("test:snapshot").SetVal(string(data))
	require.NoError(t, store2.Restore(context.Background(), restored.tickets, restored.resale))
	assert.NoError(t, mock2.ExpectationsWereMet())

	event, err := restored.tickets.EventByID(eventID)
	require.NoError(t, err)
	assert.Equal(t, "Test Concert", event.Name)
	assert.Equal(t, []uint64{0, 1}, event.SeatsSold)

	// Ticket 0 is in marketplace custody, ticket 1 with the customer
	owner, err := restored.tickets.OwnerOfTicket(tickets[0].TokenID)
	require.NoError(t, err)
	assert.Equal(t, l.resale.Address(), owner)
	owner, err = restored.tickets.OwnerOfTicket(tickets[1].TokenID)
	require.NoError(t, err)
	assert.Equal(t, customer, owner)

	assert.True(t, restored.tickets.ContractBalance().Equal(decimal.NewFromInt(100)))
	assert.True(t, restored.tickets.AreAgentsApproved(customer))
	assert.Len(t, restored.resale.TicketsForResale(), 1)

	pub, ok := restored.env.PublicKeyOf(customer)
	assert.True(t, ok)
	assert.Len(t, []byte(pub), 32)
}

func TestSnapshotStore_Restore_MissingKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSnapshotStore(db, "test:snapshot")

	env := NewLedger()
	admin, _ := registerTestAccount(t, env)
	tickets := NewTicketService(env, admin, "EventTickets", "ETIX", nil)
	resale := NewResaleService(env, admin, 3, nil)

	mock.ExpectGet("test:snapshot").RedisNil()
	require.NoError(t, store.Restore(context.Background(), tickets, resale))
	assert.NoError(t, mock.ExpectationsWereMet())

	// The node starts empty
	assert.Empty(t, tickets.AllEvents())
	assert.Equal(t, 3, resale.GetListingLimit())
}
