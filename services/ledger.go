package services

import (
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"ticket-ledger/models"
	"ticket-ledger/utils"
)

// Ledger is the execution environment shared by the ticket, resale and
// register services: it serializes every state-mutating operation
// behind one mutex, holds the native-value balances, and keeps the
// registry of verifiable account identities (ed25519 public keys).
//
// Services lock l.mu at the top of each public mutating call and use
// the unexported *Locked helpers for cross-service steps, so a resale
// settlement or a redemption is one atomic transition.
type Ledger struct {
	mu sync.Mutex

	accounts map[models.Address]ed25519.PublicKey
	balances map[models.Address]decimal.Decimal
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[models.Address]ed25519.PublicKey),
		balances: make(map[models.Address]decimal.Decimal),
	}
}

// RegisterAccount records a public key and returns the derived address.
// Registering the same key again is a no-op returning the same address.
func (l *Ledger) RegisterAccount(pub ed25519.PublicKey) (models.Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return models.ZeroAddress, fmt.Errorf("%w: public key must be %d bytes", ErrInvalidInput, ed25519.PublicKeySize)
	}
	addr, err := utils.DeriveAddress(pub)
	if err != nil {
		return models.ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	account := models.Address(addr)
	l.accounts[account] = append(ed25519.PublicKey(nil), pub...)
	return account, nil
}

// PublicKeyOf returns the registered key for an address.
func (l *Ledger) PublicKeyOf(account models.Address) (ed25519.PublicKey, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.publicKeyOfLocked(account)
}

// BalanceOf reports the proceeds credited to an account (resale income,
// admin withdrawals).
func (l *Ledger) BalanceOf(account models.Address) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOfLocked(account)
}

func (l *Ledger) publicKeyOfLocked(account models.Address) (ed25519.PublicKey, bool) {
	pub, ok := l.accounts[account]
	return pub, ok
}

func (l *Ledger) balanceOfLocked(account models.Address) decimal.Decimal {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return decimal.Zero
}

func (l *Ledger) creditLocked(account models.Address, amount decimal.Decimal) {
	l.balances[account] = l.balanceOfLocked(account).Add(amount)
}
