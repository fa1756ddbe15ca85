package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ticket-ledger/models"
	"ticket-ledger/monitoring"
	"ticket-ledger/utils"
)

// ResaleService runs the secondary marketplace. Listed tickets sit in
// marketplace custody until the seller withdraws them or a buyer
// settles the listing. Only active listings count against an account's
// listing limit.
type ResaleService struct {
	env      *Ledger
	notifier *Notifier

	admin models.Address
	addr  models.Address

	tickets *TicketService

	listings     []*models.Listing
	listingLimit int
}

func NewResaleService(env *Ledger, admin models.Address, defaultListingLimit int, notifier *Notifier) *ResaleService {
	limit := defaultListingLimit
	if limit <= 0 {
		limit = 3
	}
	return &ResaleService{
		env:          env,
		notifier:     notifier,
		admin:        admin,
		addr:         models.Address(utils.ServiceAddress("resale")),
		listingLimit: limit,
	}
}

// Address is the marketplace identity: its transfer-agent caller
// address and the custody owner of every active listing.
func (s *ResaleService) Address() models.Address { return s.addr }

// SetTicketService wires the registry the marketplace settles against.
// Admin only, settable once.
func (s *ResaleService) SetTicketService(caller models.Address, tickets *TicketService) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if caller != s.admin {
		return fmt.Errorf("%w: only the admin can wire the ticket service", ErrUnauthorized)
	}
	if s.tickets != nil {
		return fmt.Errorf("%w: ticket service already configured", ErrUnauthorized)
	}
	if tickets == nil {
		return fmt.Errorf("%w: ticket service cannot be nil", ErrInvalidInput)
	}
	s.tickets = tickets
	return nil
}

// ListTicketForSale escrows the caller's ticket with the marketplace at
// the asked price. The price may not exceed the event's original ticket
// price.
func (s *ResaleService) ListTicketForSale(caller models.Address, tokenID uint64, price decimal.Decimal) (uint64, error) {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if s.tickets == nil {
		return 0, fmt.Errorf("%w: ticket service not configured", ErrUnauthorized)
	}
	ticket, ok := s.tickets.tickets[tokenID]
	if !ok {
		return 0, fmt.Errorf("%w: ticket %d does not exist", ErrNotFound, tokenID)
	}
	if s.tickets.ticketOwner[tokenID] != caller {
		return 0, fmt.Errorf("%w: %s does not own ticket %d", ErrUnauthorized, caller, tokenID)
	}
	if price.Sign() <= 0 {
		return 0, fmt.Errorf("%w: price must be greater than zero", ErrInvalidInput)
	}
	event, err := s.tickets.eventByIDLocked(ticket.EventID)
	if err != nil {
		return 0, err
	}
	if price.Cmp(event.TicketPrice) > 0 {
		return 0, fmt.Errorf("%w: %s exceeds the original price %s", ErrPriceTooHigh, price, event.TicketPrice)
	}
	if s.countActiveBySenderLocked(caller) >= s.listingLimit {
		return 0, fmt.Errorf("%w: at most %d listings per account", ErrListingLimitExceeded, s.listingLimit)
	}

	// Into custody. The caller must have approved the transfer agents.
	if err := s.tickets.transferLocked(caller, s.addr, tokenID, false); err != nil {
		return 0, err
	}

	listing := &models.Listing{
		ListingID:       uint64(len(s.listings)),
		TokenID:         tokenID,
		EventID:         ticket.EventID,
		Owner:           caller,
		Price:           price,
		ListedForResale: true,
	}
	s.listings = append(s.listings, listing)

	monitoring.SetActiveListings(s.countActiveLocked())
	s.notifier.ListingCreated(caller, listing.ListingID, tokenID)
	return listing.ListingID, nil
}

// WithdrawFromResale cancels an active listing and returns the ticket
// from custody to the seller.
func (s *ResaleService) WithdrawFromResale(caller models.Address, listingID uint64) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	listing, err := s.listingByIDLocked(listingID)
	if err != nil {
		return err
	}
	if !listing.Active() {
		return fmt.Errorf("%w: listing %d is not active", ErrNotActive, listingID)
	}
	if listing.Owner != caller {
		return fmt.Errorf("%w: %s does not own listing %d", ErrUnauthorized, caller, listingID)
	}

	if err := s.tickets.transferLocked(s.addr, caller, listing.TokenID, false); err != nil {
		return err
	}
	listing.ListedForResale = false

	monitoring.SetActiveListings(s.countActiveLocked())
	s.notifier.ListingWithdrawn(caller, listingID)
	return nil
}

// PurchaseFromResale settles an active listing: the buyer pays exactly
// the asked price, the ticket leaves custody for the buyer, and the
// seller is credited. The listing is closed before the seller credit.
func (s *ResaleService) PurchaseFromResale(caller models.Address, listingID uint64, payment decimal.Decimal) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	listing, err := s.listingByIDLocked(listingID)
	if err != nil {
		return err
	}
	if !listing.Active() {
		return fmt.Errorf("%w: listing %d is not active", ErrNotActive, listingID)
	}
	if listing.Owner == caller {
		return fmt.Errorf("%w: cannot buy back an own listing", ErrSelfPurchase)
	}
	event, err := s.tickets.eventByIDLocked(listing.EventID)
	if err != nil {
		return err
	}
	if uint64(len(s.tickets.customerSeats[listing.EventID][caller]))+1 > event.MaxTicketsPerCustomer {
		return fmt.Errorf("%w: event limit is %d tickets per customer", ErrCustomerLimitExceeded, event.MaxTicketsPerCustomer)
	}
	if !payment.Equal(listing.Price) {
		return fmt.Errorf("%w: listing costs exactly %s", ErrWrongPayment, listing.Price)
	}

	if err := s.tickets.transferLocked(s.addr, caller, listing.TokenID, true); err != nil {
		return err
	}
	listing.HasBeenResold = true
	listing.ListedForResale = false
	s.env.creditLocked(listing.Owner, payment)

	monitoring.TrackResale(listing.EventID)
	monitoring.SetActiveListings(s.countActiveLocked())
	s.notifier.ResaleSettled(listing.Owner, caller, listingID, listing.TokenID)
	return nil
}

// SetListingLimit changes the per-account listing cap. Admin only.
func (s *ResaleService) SetListingLimit(caller models.Address, limit int) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if caller != s.admin {
		return fmt.Errorf("%w: only the admin can change the listing limit", ErrUnauthorized)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: listing limit must be at least one", ErrInvalidInput)
	}
	s.listingLimit = limit
	return nil
}

func (s *ResaleService) GetListingLimit() int {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()
	return s.listingLimit
}

// TicketsForResale returns every active listing with its event details
// denormalized for display.
func (s *ResaleService) TicketsForResale() []models.ResaleListing {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	out := make([]models.ResaleListing, 0)
	for _, listing := range s.listings {
		if listing.Active() {
			out = append(out, s.resaleViewLocked(listing))
		}
	}
	return out
}

// ListingsBySender returns an account's active listings.
func (s *ResaleService) ListingsBySender(account models.Address) []models.ResaleListing {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	out := make([]models.ResaleListing, 0)
	for _, listing := range s.listings {
		if listing.Active() && listing.Owner == account {
			out = append(out, s.resaleViewLocked(listing))
		}
	}
	return out
}

func (s *ResaleService) resaleViewLocked(listing *models.Listing) models.ResaleListing {
	view := models.ResaleListing{Listing: *listing}
	if ticket, ok := s.tickets.tickets[listing.TokenID]; ok {
		view.SeatNumber = ticket.SeatNumber
	}
	if event, err := s.tickets.eventByIDLocked(listing.EventID); err == nil {
		view.EventName = event.Name
		view.EventLocation = event.Location
		view.EventDate = event.Date
		view.EventTime = event.Time
		view.MaxTicketsPerCustomer = event.MaxTicketsPerCustomer
	}
	return view
}

func (s *ResaleService) listingByIDLocked(listingID uint64) (*models.Listing, error) {
	if s.tickets == nil {
		return nil, fmt.Errorf("%w: ticket service not configured", ErrUnauthorized)
	}
	if listingID >= uint64(len(s.listings)) {
		return nil, fmt.Errorf("%w: listing %d does not exist", ErrNotFound, listingID)
	}
	return s.listings[listingID], nil
}

func (s *ResaleService) countActiveBySenderLocked(account models.Address) int {
	n := 0
	for _, listing := range s.listings {
		if listing.Active() && listing.Owner == account {
			n++
		}
	}
	return n
}

func (s *ResaleService) countActiveLocked() int {
	n := 0
	for _, listing := range s.listings {
		if listing.Active() {
			n++
		}
	}
	return n
}
