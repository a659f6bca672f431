// Package custody is the in-memory reference implementation of the token
// custody collaborator: it holds per-account token balances and the spending
// allowances granted to the pool.
package custody

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientFunds reports a debit larger than the account balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientAllowance reports a debit larger than the granted allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

type balanceKey struct {
	Account common.Address
	Token   common.Address
}

// Vault keeps token balances and pool allowances.
type Vault struct {
	balances   map[balanceKey]*uint256.Int
	allowances map[balanceKey]*uint256.Int
}

func NewVault() *Vault {
	return &Vault{
		balances:   make(map[balanceKey]*uint256.Int),
		allowances: make(map[balanceKey]*uint256.Int),
	}
}

// SetBalance overwrites an account's token balance.
func (v *Vault) SetBalance(account, token common.Address, amount *uint256.Int) {
	v.balances[balanceKey{account, token}] = amount.Clone()
}

// Approve grants the pool an allowance to debit the account's token balance.
func (v *Vault) Approve(account, token common.Address, amount *uint256.Int) {
	v.allowances[balanceKey{account, token}] = amount.Clone()
}

// BalanceOf returns the account's token balance.
func (v *Vault) BalanceOf(account, token common.Address) *uint256.Int {
	if bal, ok := v.balances[balanceKey{account, token}]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

// Debit removes amount of token from the account, consuming allowance.
func (v *Vault) Debit(account, token common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	key := balanceKey{account, token}

	allowance, ok := v.allowances[key]
	if !ok || allowance.Lt(amount) {
		return fmt.Errorf("debit %s of %s from %s: %w", amount, token.Hex(), account.Hex(), ErrInsufficientAllowance)
	}
	balance, ok := v.balances[key]
	if !ok || balance.Lt(amount) {
		return fmt.Errorf("debit %s of %s from %s: %w", amount, token.Hex(), account.Hex(), ErrInsufficientFunds)
	}

	v.allowances[key] = new(uint256.Int).Sub(allowance, amount)
	v.balances[key] = new(uint256.Int).Sub(balance, amount)
	return nil
}

// EachBalance calls fn once per account/token pair holding a nonzero balance.
// Iteration order is unspecified.
func (v *Vault) EachBalance(fn func(account, token common.Address, amount *uint256.Int)) {
	for key, bal := range v.balances {
		if bal.IsZero() {
			continue
		}
		fn(key.Account, key.Token, bal.Clone())
	}
}

// Credit adds amount of token to the account. It never fails for well-formed
// inputs; the error return satisfies the collaborator contract.
func (v *Vault) Credit(account, token common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	key := balanceKey{account, token}
	balance, ok := v.balances[key]
	if !ok {
		balance = new(uint256.Int)
	}
	v.balances[key] = new(uint256.Int).Add(balance, amount)
	return nil
}
