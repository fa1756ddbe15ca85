package models

// Address identifies an account on the ledger. Addresses are derived
// from registered ed25519 public keys, except for the fixed service and
// sentinel addresses below.
type Address string

const (
	// ZeroAddress marks an unset account slot (unsold seat, no venue owner).
	ZeroAddress Address = ""

	// BurnAddress is the terminal owner of a redeemed seat. A seat held
	// by BurnAddress can never be sold again.
	BurnAddress Address = "0x000000000000000000000000000000000000dead"
)

// Role is the access level of an account. Exactly one Admin exists,
// fixed at ledger creation. Organizers are promoted by the Admin and
// cannot be demoted. Everyone else is a Customer.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleOrganizer Role = "Organizer"
	RoleCustomer  Role = "Customer"
)
