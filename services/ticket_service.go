package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ticket-ledger/models"
	"ticket-ledger/monitoring"
)

// TicketService is the ticket registry: it owns the event table, the
// ticket tokens, seat occupancy, per-customer counts, the role table
// and the contract-held funds. Ownership moves only through purchase,
// the two configured transfer agents (resale marketplace, redemption
// authority), and redemption burn.
type TicketService struct {
	env      *Ledger
	notifier *Notifier

	name   string
	symbol string
	admin  models.Address

	roles     map[models.Address]models.Role
	approvals map[models.Address]bool

	events []*models.Event

	tickets       map[uint64]*models.Ticket
	ticketOwner   map[uint64]models.Address
	ownerTokens   map[models.Address][]uint64
	seatOwner     map[uint64]map[uint64]models.Address
	customerSeats map[uint64]map[models.Address][]uint64
	usedStatus    map[uint64]bool // tombstones, survive the burn
	nextTokenID   uint64

	contractBalance decimal.Decimal

	// one-time transfer agent wiring
	resaleAddr   models.Address
	registerAddr models.Address
}

func NewTicketService(env *Ledger, admin models.Address, name, symbol string, notifier *Notifier) *TicketService {
	s := &TicketService{
		env:             env,
		notifier:        notifier,
		name:            name,
		symbol:          symbol,
		admin:           admin,
		roles:           make(map[models.Address]models.Role),
		approvals:       make(map[models.Address]bool),
		tickets:         make(map[uint64]*models.Ticket),
		ticketOwner:     make(map[uint64]models.Address),
		ownerTokens:     make(map[models.Address][]uint64),
		seatOwner:       make(map[uint64]map[uint64]models.Address),
		customerSeats:   make(map[uint64]map[models.Address][]uint64),
		usedStatus:      make(map[uint64]bool),
		contractBalance: decimal.Zero,
	}
	s.roles[admin] = models.RoleAdmin
	return s
}

func (s *TicketService) Name() string          { return s.name }
func (s *TicketService) Symbol() string        { return s.symbol }
func (s *TicketService) Admin() models.Address { return s.admin }

// SetResaleAddress wires the marketplace as a transfer agent. Admin
// only, settable once.
func (s *TicketService) SetResaleAddress(caller, addr models.Address) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if caller != s.admin {
		return fmt.Errorf("%w: only the admin can wire the resale address", ErrUnauthorized)
	}
	if s.resaleAddr != models.ZeroAddress {
		return fmt.Errorf("%w: resale address already configured", ErrUnauthorized)
	}
	if addr == models.ZeroAddress {
		return fmt.Errorf("%w: resale address cannot be empty", ErrInvalidInput)
	}
	s.resaleAddr = addr
	return nil
}

// SetRegisterAddress wires the redemption authority as a transfer
// agent. Admin only, settable once.
func (s *TicketService) SetRegisterAddress(caller, addr models.Address) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if caller != s.admin {
		return fmt.Errorf("%w: only the admin can wire the register address", ErrUnauthorized)
	}
	if s.registerAddr != models.ZeroAddress {
		return fmt.Errorf("%w: register address already configured", ErrUnauthorized)
	}
	if addr == models.ZeroAddress {
		return fmt.Errorf("%w: register address cannot be empty", ErrInvalidInput)
	}
	s.registerAddr = addr
	return nil
}

// Promote grants the Organizer role. Admin only; there is no demotion.
func (s *TicketService) Promote(caller, account models.Address) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if caller != s.admin {
		return fmt.Errorf("%w: only the admin can promote accounts", ErrUnauthorized)
	}
	if account == models.ZeroAddress {
		return fmt.Errorf("%w: account cannot be empty", ErrInvalidInput)
	}
	s.roles[account] = models.RoleOrganizer
	return nil
}

func (s *TicketService) RoleOf(account models.Address) models.Role {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()
	return s.roleOfLocked(account)
}

func (s *TicketService) roleOfLocked(account models.Address) models.Role {
	if role, ok := s.roles[account]; ok {
		return role
	}
	return models.RoleCustomer
}

// The admin deploys events in the original system too, so Admin counts
// as an organizer for organizer-gated calls.
func (s *TicketService) isOrganizerLocked(account models.Address) bool {
	role := s.roleOfLocked(account)
	return role == models.RoleOrganizer || role == models.RoleAdmin
}

// ApproveTransferAgents records the caller's standing consent for the
// marketplace and redemption authority to move tickets it owns.
func (s *TicketService) ApproveTransferAgents(caller models.Address) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()
	s.approvals[caller] = true
}

func (s *TicketService) AreAgentsApproved(caller models.Address) bool {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()
	return s.approvals[caller]
}

// AddEvent registers a new event and returns its sequential ID.
// Organizer only. The venue owner starts unset.
func (s *TicketService) AddEvent(caller models.Address, def models.EventDefinition) (uint64, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if !s.isOrganizerLocked(caller) {
		return 0, fmt.Errorf("%w: only organizers can add events", ErrUnauthorized)
	}
	if def.TotalSeats == 0 {
		return 0, fmt.Errorf("%w: event must have at least one seat", ErrInvalidInput)
	}
	if def.MaxTicketsPerCustomer == 0 {
		return 0, fmt.Errorf("%w: per-customer limit must be at least one", ErrInvalidInput)
	}
	if def.TicketPrice.Sign() <= 0 {
		return 0, fmt.Errorf("%w: ticket price must be greater than zero", ErrInvalidInput)
	}

	event := &models.Event{
		ID:                    uint64(len(s.events)),
		Name:                  def.Name,
		Description:           def.Description,
		TotalSeats:            def.TotalSeats,
		Location:              def.Location,
		Date:                  def.Date,
		Time:                  def.Time,
		TicketPrice:           def.TicketPrice,
		MaxTicketsPerCustomer: def.MaxTicketsPerCustomer,
		ImageURL:              def.ImageURL,
		VenueOwner:            models.ZeroAddress,
	}
	s.events = append(s.events, event)
	s.seatOwner[event.ID] = make(map[uint64]models.Address)
	s.customerSeats[event.ID] = make(map[models.Address][]uint64)
	return event.ID, nil
}

// SetVenueOwner names the organizer allowed to redeem tickets for an
// event. Admin only.
func (s *TicketService) SetVenueOwner(caller models.Address, eventID uint64, owner models.Address) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if caller != s.admin {
		return fmt.Errorf("%w: only the admin can set the venue owner", ErrUnauthorized)
	}
	event, err := s.eventByIDLocked(eventID)
	if err != nil {
		return err
	}
	event.VenueOwner = owner
	return nil
}

// PurchaseTickets sells the requested seats to the caller in one
// all-or-nothing step: every seat is validated before anything is
// minted. The full payment is retained by the contract balance
// (overpayment included, as with attached native value).
func (s *TicketService) PurchaseTickets(caller models.Address, eventID uint64, seats []uint64, payment decimal.Decimal) ([]models.Ticket, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	event, err := s.eventByIDLocked(eventID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: no seats requested", ErrInvalidInput)
	}

	// Validate phase: nothing below may mutate state.
	requested := make(map[uint64]bool, len(seats))
	for _, seat := range seats {
		if seat >= event.TotalSeats {
			return nil, fmt.Errorf("%w: seat %d is not part of the event", ErrInvalidInput, seat)
		}
		if requested[seat] {
			return nil, fmt.Errorf("%w: seat %d requested twice", ErrInvalidInput, seat)
		}
		if _, taken := s.seatOwner[eventID][seat]; taken {
			return nil, fmt.Errorf("%w: seat %d is already owned", ErrAlreadyOwned, seat)
		}
		requested[seat] = true
	}
	if uint64(len(seats)) > event.TicketsLeft() {
		return nil, fmt.Errorf("%w: only %d seats left", ErrCapacityExceeded, event.TicketsLeft())
	}
	held := uint64(len(s.customerSeats[eventID][caller]))
	if held+uint64(len(seats)) > event.MaxTicketsPerCustomer {
		return nil, fmt.Errorf("%w: event limit is %d tickets per customer", ErrCustomerLimitExceeded, event.MaxTicketsPerCustomer)
	}
	total := event.TicketPrice.Mul(decimal.NewFromInt(int64(len(seats))))
	if payment.Cmp(total) < 0 {
		return nil, fmt.Errorf("%w: %s is lower than the price %s", ErrInsufficientPayment, payment, total)
	}

	// Commit phase.
	minted := make([]models.Ticket, 0, len(seats))
	for _, seat := range seats {
		ticket := &models.Ticket{
			TokenID:    s.nextTokenID,
			EventID:    eventID,
			SeatNumber: seat,
		}
		s.nextTokenID++
		s.tickets[ticket.TokenID] = ticket
		s.ticketOwner[ticket.TokenID] = caller
		s.ownerTokens[caller] = append(s.ownerTokens[caller], ticket.TokenID)
		s.seatOwner[eventID][seat] = caller
		s.customerSeats[eventID][caller] = append(s.customerSeats[eventID][caller], seat)
		event.SeatsSold = append(event.SeatsSold, seat)
		minted = append(minted, *ticket)
	}
	s.contractBalance = s.contractBalance.Add(payment)

	monitoring.TrackTicketsSold(eventID, len(seats))
	monitoring.SetFundsHeld(s.contractBalance.InexactFloat64())
	s.notifier.TicketsSold(caller, eventID, seats)
	return minted, nil
}

// TransferTicket moves a ticket between accounts. Only the configured
// marketplace and redemption authority may call it.
func (s *TicketService) TransferTicket(caller, from, to models.Address, tokenID uint64) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if !s.isTransferAgentLocked(caller) {
		return fmt.Errorf("%w: only the resale and register services can transfer tickets", ErrUnauthorized)
	}
	return s.transferLocked(from, to, tokenID, true)
}

func (s *TicketService) isTransferAgentLocked(caller models.Address) bool {
	if caller == models.ZeroAddress {
		return false
	}
	return caller == s.resaleAddr || caller == s.registerAddr
}

// transferLocked is the single ownership-move primitive. enforceLimit
// re-validates the receiver's per-event cap; it is skipped only when
// the receiver is marketplace custody.
func (s *TicketService) transferLocked(from, to models.Address, tokenID uint64, enforceLimit bool) error {
	ticket, ok := s.tickets[tokenID]
	if !ok {
		return fmt.Errorf("%w: ticket %d does not exist", ErrNotFound, tokenID)
	}
	if s.ticketOwner[tokenID] != from {
		return fmt.Errorf("%w: %s does not own ticket %d", ErrUnauthorized, from, tokenID)
	}
	if to == models.ZeroAddress {
		return fmt.Errorf("%w: receiver cannot be empty", ErrInvalidInput)
	}
	if !s.isTransferAgentLocked(from) && !s.approvals[from] {
		return fmt.Errorf("%w: %s has not approved the transfer agents", ErrUnauthorized, from)
	}
	if enforceLimit && !s.isTransferAgentLocked(to) {
		event, err := s.eventByIDLocked(ticket.EventID)
		if err != nil {
			return err
		}
		if uint64(len(s.customerSeats[ticket.EventID][to]))+1 > event.MaxTicketsPerCustomer {
			return fmt.Errorf("%w: event limit is %d tickets per customer", ErrCustomerLimitExceeded, event.MaxTicketsPerCustomer)
		}
	}

	s.ticketOwner[tokenID] = to
	s.ownerTokens[from] = removeUint64(s.ownerTokens[from], tokenID)
	s.ownerTokens[to] = append(s.ownerTokens[to], tokenID)
	s.seatOwner[ticket.EventID][ticket.SeatNumber] = to
	s.customerSeats[ticket.EventID][from] = removeUint64(s.customerSeats[ticket.EventID][from], ticket.SeatNumber)
	s.customerSeats[ticket.EventID][to] = append(s.customerSeats[ticket.EventID][to], ticket.SeatNumber)
	return nil
}

// redeemLocked marks a ticket used and burns it: the token stops
// resolving, the seat flips to the burn address, and the owner's
// indices drop it. Only the tombstone in usedStatus survives.
func (s *TicketService) redeemLocked(caller models.Address, tokenID uint64) error {
	if caller != s.registerAddr || caller == models.ZeroAddress {
		return fmt.Errorf("%w: only the register service can redeem tickets", ErrUnauthorized)
	}
	if s.usedStatus[tokenID] {
		return fmt.Errorf("%w: ticket %d has already been used", ErrAlreadyUsed, tokenID)
	}
	ticket, ok := s.tickets[tokenID]
	if !ok {
		return fmt.Errorf("%w: ticket %d does not exist", ErrNotFound, tokenID)
	}
	owner := s.ticketOwner[tokenID]
	if !s.approvals[owner] {
		return fmt.Errorf("%w: %s has not approved the transfer agents", ErrUnauthorized, owner)
	}

	ticket.Used = true
	s.usedStatus[tokenID] = true
	delete(s.tickets, tokenID)
	delete(s.ticketOwner, tokenID)
	s.ownerTokens[owner] = removeUint64(s.ownerTokens[owner], tokenID)
	s.seatOwner[ticket.EventID][ticket.SeatNumber] = models.BurnAddress
	s.customerSeats[ticket.EventID][owner] = removeUint64(s.customerSeats[ticket.EventID][owner], ticket.SeatNumber)

	monitoring.TrackRedemption(ticket.EventID)
	s.notifier.TicketRedeemed(owner, ticket.EventID, tokenID)
	return nil
}

// WithdrawFunds moves the whole contract-held balance to the admin
// account and returns the amount. Admin only.
func (s *TicketService) WithdrawFunds(caller models.Address) (decimal.Decimal, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if caller != s.admin {
		return decimal.Zero, fmt.Errorf("%w: only the admin can withdraw contract funds", ErrUnauthorized)
	}
	amount := s.contractBalance
	s.contractBalance = decimal.Zero
	s.env.creditLocked(s.admin, amount)
	monitoring.SetFundsHeld(0)
	return amount, nil
}

// ContractBalance reports the funds currently held from primary sales.
func (s *TicketService) ContractBalance() decimal.Decimal {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()
	return s.contractBalance
}

func (s *TicketService) EventByID(eventID uint64) (models.Event, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	event, err := s.eventByIDLocked(eventID)
	if err != nil {
		return models.Event{}, err
	}
	return *event, nil
}

func (s *TicketService) AllEvents() []models.Event {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	events := make([]models.Event, len(s.events))
	for i, event := range s.events {
		events[i] = *event
	}
	return events
}

// SeatsSoldForEvent returns the sold seat numbers in sale order.
// Redeemed seats stay listed; occupancy never frees.
func (s *TicketService) SeatsSoldForEvent(eventID uint64) ([]uint64, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	event, err := s.eventByIDLocked(eventID)
	if err != nil {
		return nil, err
	}
	return append([]uint64(nil), event.SeatsSold...), nil
}

// CustomerTicketsForEvent returns the seat numbers an account currently
// holds for an event (redeemed and listed seats excluded).
func (s *TicketService) CustomerTicketsForEvent(eventID uint64, account models.Address) ([]uint64, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if _, err := s.eventByIDLocked(eventID); err != nil {
		return nil, err
	}
	return append([]uint64(nil), s.customerSeats[eventID][account]...), nil
}

// OwnerOfSeat answers who holds a seat: an account, marketplace custody,
// the burn address after redemption, or ZeroAddress while unsold.
func (s *TicketService) OwnerOfSeat(eventID, seat uint64) (models.Address, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	event, err := s.eventByIDLocked(eventID)
	if err != nil {
		return models.ZeroAddress, err
	}
	if seat >= event.TotalSeats {
		return models.ZeroAddress, fmt.Errorf("%w: seat %d is not part of the event", ErrInvalidInput, seat)
	}
	return s.seatOwner[eventID][seat], nil
}

// OwnerOfTicket resolves a live token to its current holder.
func (s *TicketService) OwnerOfTicket(tokenID uint64) (models.Address, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()
	return s.ownerOfTicketLocked(tokenID)
}

func (s *TicketService) ownerOfTicketLocked(tokenID uint64) (models.Address, error) {
	owner, ok := s.ticketOwner[tokenID]
	if !ok {
		return models.ZeroAddress, fmt.Errorf("%w: ticket %d does not exist", ErrNotFound, tokenID)
	}
	return owner, nil
}

// TicketsOwnedBy lists the live tickets an account holds, in mint order.
func (s *TicketService) TicketsOwnedBy(account models.Address) []models.Ticket {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	tokens := s.ownerTokens[account]
	tickets := make([]models.Ticket, 0, len(tokens))
	for _, tokenID := range tokens {
		if ticket, ok := s.tickets[tokenID]; ok {
			tickets = append(tickets, *ticket)
		}
	}
	return tickets
}

// TicketUsedStatus answers for burned tokens too: the tombstone
// outlives the ticket.
func (s *TicketService) TicketUsedStatus(tokenID uint64) (bool, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if s.usedStatus[tokenID] {
		return true, nil
	}
	if _, ok := s.tickets[tokenID]; !ok {
		return false, fmt.Errorf("%w: ticket %d does not exist", ErrNotFound, tokenID)
	}
	return false, nil
}

func (s *TicketService) eventByIDLocked(eventID uint64) (*models.Event, error) {
	if eventID >= uint64(len(s.events)) {
		return nil, fmt.Errorf("%w: event %d does not exist", ErrNotFound, eventID)
	}
	return s.events[eventID], nil
}

func removeUint64(values []uint64, target uint64) []uint64 {
	for i, v := range values {
		if v == target {
			return append(values[:i], values[i+1:]...)
		}
	}
	return values
}
