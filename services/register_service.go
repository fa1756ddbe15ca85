package services

import (
	"crypto/ed25519"
	"fmt"

	"ticket-ledger/models"
	"ticket-ledger/utils"
)

// RegisterService is the check-in authority. The venue owner of an
// event presents a digest signed by the ticket holder; a valid
// signature redeems the ticket, which marks it used and burns it.
type RegisterService struct {
	env *Ledger

	admin models.Address
	addr  models.Address

	tickets *TicketService
}

func NewRegisterService(env *Ledger, admin models.Address) *RegisterService {
	return &RegisterService{
		env:   env,
		admin: admin,
		addr:  models.Address(utils.ServiceAddress("register")),
	}
}

// Address is the identity the registry recognizes as the redemption
// transfer agent.
func (s *RegisterService) Address() models.Address { return s.addr }

// SetTicketService wires the registry redemptions act on. Admin only,
// settable once.
func (s *RegisterService) SetTicketService(caller models.Address, tickets *TicketService) error {
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

// RegisterTicket checks a holder in. The caller must be an organizer
// and the venue owner of the event; digest is the sha3-256 message hash
// the holder signed, sig the holder's ed25519 signature over it.
func (s *RegisterService) RegisterTicket(caller models.Address, eventID, tokenID uint64, digest, sig []byte) error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()

	if s.tickets == nil {
		return fmt.Errorf("%w: ticket service not configured", ErrUnauthorized)
	}
	if !s.tickets.isOrganizerLocked(caller) {
		return fmt.Errorf("%w: only organizers can register tickets", ErrUnauthorized)
	}
	event, err := s.tickets.eventByIDLocked(eventID)
	if err != nil {
		return err
	}
	if event.VenueOwner != caller {
		return fmt.Errorf("%w: %s is not the venue owner of event %d", ErrNotVenueOwner, caller, eventID)
	}

	ticket, ok := s.tickets.tickets[tokenID]
	if !ok {
		if s.tickets.usedStatus[tokenID] {
			return fmt.Errorf("%w: ticket %d has already been used", ErrAlreadyUsed, tokenID)
		}
		return fmt.Errorf("%w: ticket %d does not exist", ErrNotFound, tokenID)
	}
	if ticket.EventID != eventID {
		return fmt.Errorf("%w: ticket %d does not belong to event %d", ErrNotFound, tokenID, eventID)
	}

	owner := s.tickets.ticketOwner[tokenID]
	pub, ok := s.env.publicKeyOfLocked(owner)
	if !ok {
		return fmt.Errorf("%w: no key registered for %s", ErrSignatureMismatch, owner)
	}
	if len(sig) != ed25519.SignatureSize || !ed25519.Verify(pub, digest, sig) {
		return fmt.Errorf("%w: signature does not match ticket holder %s", ErrSignatureMismatch, owner)
	}
	if ticket.Used {
		return fmt.Errorf("%w: ticket %d has already been used", ErrAlreadyUsed, tokenID)
	}

	return s.tickets.redeemLocked(s.addr, tokenID)
}
