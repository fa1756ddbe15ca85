package services

import (
	"fmt"
	"log"

	pubnub "github.com/pubnub/go"

	"ticket-ledger/models"
)

// LedgerChannel carries every ledger transition; per-account channels
// get the subset that concerns them.
const LedgerChannel = "ledger-events"

// Notifier publishes ledger transitions to PubNub. A nil Notifier (or
// one built with a nil client, as in tests) drops everything.
type Notifier struct {
	pn *pubnub.PubNub
}

func NewNotifier(pn *pubnub.PubNub) *Notifier {
	return &Notifier{pn: pn}
}

func (n *Notifier) publish(channel string, message map[string]any) {
	if n == nil || n.pn == nil {
		return
	}
	go func() {
		if _, _, err := n.pn.Publish().Channel(channel).Message(message).Execute(); err != nil {
			log.Printf("Error publishing to %s: %v", channel, err)
		}
	}()
}

func (n *Notifier) TicketsSold(buyer models.Address, eventID uint64, seats []uint64) {
	message := map[string]any{
		"type":     "tickets_sold",
		"event_id": eventID,
		"seats":    seats,
		"buyer":    string(buyer),
	}
	n.publish(LedgerChannel, message)
	n.publish(accountChannel(buyer), message)
}

func (n *Notifier) ListingCreated(owner models.Address, listingID, tokenID uint64) {
	n.publish(LedgerChannel, map[string]any{
		"type":       "listing_created",
		"listing_id": listingID,
		"token_id":   tokenID,
		"owner":      string(owner),
	})
}

func (n *Notifier) ListingWithdrawn(owner models.Address, listingID uint64) {
	n.publish(LedgerChannel, map[string]any{
		"type":       "listing_withdrawn",
		"listing_id": listingID,
		"owner":      string(owner),
	})
}

func (n *Notifier) ResaleSettled(seller, buyer models.Address, listingID, tokenID uint64) {
	message := map[string]any{
		"type":       "resale_settled",
		"listing_id": listingID,
		"token_id":   tokenID,
		"seller":     string(seller),
		"buyer":      string(buyer),
	}
	n.publish(LedgerChannel, message)
	n.publish(accountChannel(seller), message)
	n.publish(accountChannel(buyer), message)
}

func (n *Notifier) TicketRedeemed(owner models.Address, eventID, tokenID uint64) {
	message := map[string]any{
		"type":     "ticket_redeemed",
		"event_id": eventID,
		"token_id": tokenID,
		"owner":    string(owner),
	}
	n.publish(LedgerChannel, message)
	n.publish(accountChannel(owner), message)
}

func accountChannel(account models.Address) string {
	return fmt.Sprintf("account-%s", account)
}
