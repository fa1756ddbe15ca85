package services

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ticket-ledger/models"
)

// SnapshotStore persists the whole ledger state to Redis as one JSON
// value so a restarted node resumes where it left off.
type SnapshotStore struct {
	client *redis.Client
	key    string
}

func NewSnapshotStore(client *redis.Client, key string) *SnapshotStore {
	if key == "" {
		key = "ticket-ledger:snapshot"
	}
	return &SnapshotStore{client: client, key: key}
}

type snapshotState struct {
	Accounts map[models.Address]string          `json:"accounts"`
	Balances map[models.Address]decimal.Decimal `json:"balances"`

	Roles     map[models.Address]models.Role `json:"roles"`
	Approvals map[models.Address]bool        `json:"approvals"`

	Events []*models.Event `json:"events"`

	Tickets       map[uint64]*models.Ticket              `json:"tickets"`
	TicketOwner   map[uint64]models.Address              `json:"ticket_owner"`
	SeatOwner     map[uint64]map[uint64]models.Address   `json:"seat_owner"`
	CustomerSeats map[uint64]map[models.Address][]uint64 `json:"customer_seats"`
	UsedStatus    map[uint64]bool                        `json:"used_status"`
	NextTokenID   uint64                                 `json:"next_token_id"`

	ContractBalance decimal.Decimal `json:"contract_balance"`
	ResaleAddr      models.Address  `json:"resale_addr"`
	RegisterAddr    models.Address  `json:"register_addr"`

	Listings     []*models.Listing `json:"listings"`
	ListingLimit int               `json:"listing_limit"`
}

func (s *SnapshotStore) encode(ts *TicketService, rs *ResaleService) ([]byte, error) {
	env := ts.env
	env.mu.Lock()
	defer env.mu.Unlock()

	state := snapshotState{
		Accounts:        make(map[models.Address]string, len(env.accounts)),
		Balances:        env.balances,
		Roles:           ts.roles,
		Approvals:       ts.approvals,
		Events:          ts.events,
		Tickets:         ts.tickets,
		TicketOwner:     ts.ticketOwner,
		SeatOwner:       ts.seatOwner,
		CustomerSeats:   ts.customerSeats,
		UsedStatus:      ts.usedStatus,
		NextTokenID:     ts.nextTokenID,
		ContractBalance: ts.contractBalance,
		ResaleAddr:      ts.resaleAddr,
		RegisterAddr:    ts.registerAddr,
		Listings:        rs.listings,
		ListingLimit:    rs.listingLimit,
	}
	for account, pub := range env.accounts {
		state.Accounts[account] = hex.EncodeToString(pub)
	}
	return json.Marshal(state)
}

// Save writes the current ledger state under the snapshot key.
func (s *SnapshotStore) Save(ctx context.Context, ts *TicketService, rs *ResaleService) error {
	data, err := s.encode(ts, rs)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Restore loads the snapshot into the services. A missing key is not an
// error: the node simply starts empty.
func (s *SnapshotStore) Restore(ctx context.Context, ts *TicketService, rs *ResaleService) error {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var state snapshotState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	env := ts.env
	env.mu.Lock()
	defer env.mu.Unlock()

	env.accounts = make(map[models.Address]ed25519.PublicKey, len(state.Accounts))
	for account, encoded := range state.Accounts {
		pub, err := hex.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decoding key for %s: %w", account, err)
		}
		env.accounts[account] = ed25519.PublicKey(pub)
	}
	env.balances = orMake(state.Balances)

	ts.roles = orMake(state.Roles)
	ts.roles[ts.admin] = models.RoleAdmin
	ts.approvals = orMake(state.Approvals)
	ts.events = state.Events
	ts.tickets = orMake(state.Tickets)
	ts.ticketOwner = orMake(state.TicketOwner)
	ts.seatOwner = orMake(state.SeatOwner)
	ts.customerSeats = orMake(state.CustomerSeats)
	ts.usedStatus = orMake(state.UsedStatus)
	ts.nextTokenID = state.NextTokenID
	ts.contractBalance = state.ContractBalance
	ts.resaleAddr = state.ResaleAddr
	ts.registerAddr = state.RegisterAddr

	ts.ownerTokens = make(map[models.Address][]uint64)
	for tokenID := uint64(0); tokenID < ts.nextTokenID; tokenID++ {
		if owner, ok := ts.ticketOwner[tokenID]; ok {
			ts.ownerTokens[owner] = append(ts.ownerTokens[owner], tokenID)
		}
	}

	rs.listings = state.Listings
	if state.ListingLimit > 0 {
		rs.listingLimit = state.ListingLimit
	}
	return nil
}

// Run snapshots on a fixed interval until the context is cancelled,
// then takes one final snapshot.
func (s *SnapshotStore) Run(ctx context.Context, interval time.Duration, ts *TicketService, rs *ResaleService) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Save(shutdownCtx, ts, rs); err != nil {
				log.Printf("Error saving final snapshot: %v", err)
			}
			return
		case <-ticker.C:
			if err := s.Save(ctx, ts, rs); err != nil {
				log.Printf("Error saving snapshot: %v", err)
			}
		}
	}
}

func orMake[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return make(M)
	}
	return m
}
