// Package shares is the in-memory reference implementation of the
// liquidity-share ledger: one share unit per unit of liquidity added. It is
// pure accounting and takes no part in pricing.
package shares

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInsufficientShares reports a burn larger than the owner's balance.
var ErrInsufficientShares = errors.New("insufficient shares")

// Ledger tracks liquidity-share balances per owner.
type Ledger struct {
	balances map[common.Address]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[common.Address]*uint256.Int)}
}

// Mint credits shares to an owner.
func (l *Ledger) Mint(owner common.Address, amount *uint256.Int) error {
	balance, ok := l.balances[owner]
	if !ok {
		balance = new(uint256.Int)
	}
	l.balances[owner] = new(uint256.Int).Add(balance, amount)
	return nil
}

// Burn debits shares from an owner.
func (l *Ledger) Burn(owner common.Address, amount *uint256.Int) error {
	balance, ok := l.balances[owner]
	if !ok || balance.Lt(amount) {
		return fmt.Errorf("burn %s shares of %s: %w", amount, owner.Hex(), ErrInsufficientShares)
	}
	l.balances[owner] = new(uint256.Int).Sub(balance, amount)
	return nil
}

// Each calls fn once per owner holding a nonzero balance. Iteration order is
// unspecified.
func (l *Ledger) Each(fn func(owner common.Address, balance *uint256.Int)) {
	for owner, balance := range l.balances {
		if balance.IsZero() {
			continue
		}
		fn(owner, balance.Clone())
	}
}

// BalanceOf returns the owner's share balance.
func (l *Ledger) BalanceOf(owner common.Address) *uint256.Int {
	if balance, ok := l.balances[owner]; ok {
		return balance.Clone()
	}
	return new(uint256.Int)
}
