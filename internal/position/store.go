// Package position tracks the liquidity committed by each owner to each
// price range.
package position

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clpool/internal/fullmath"
)

// ErrInsufficientLiquidity reports a removal larger than the position holds.
var ErrInsufficientLiquidity = errors.New("insufficient position liquidity")

var maxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// Key identifies a position by owner and range boundaries.
type Key struct {
	Owner     common.Address
	TickLower int32
	TickUpper int32
}

// Info holds one position. The fee-growth checkpoints and tokensOwed fields
// are carried in the data model but are not advanced by the swap loop in this
// version.
type Info struct {
	Liquidity                *uint256.Int
	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int
	TokensOwed0              *uint256.Int
	TokensOwed1              *uint256.Int
}

func newInfo() *Info {
	return &Info{
		Liquidity:                new(uint256.Int),
		FeeGrowthInside0LastX128: new(uint256.Int),
		FeeGrowthInside1LastX128: new(uint256.Int),
		TokensOwed0:              new(uint256.Int),
		TokensOwed1:              new(uint256.Int),
	}
}

// Store is a sparse position map. Absent keys read as zero-liquidity.
type Store struct {
	positions map[Key]*Info
}

func NewStore() *Store {
	return &Store{positions: make(map[Key]*Info)}
}

// Get returns a copy of the position; absent keys read as zero.
func (s *Store) Get(key Key) Info {
	entry, ok := s.positions[key]
	if !ok {
		zero := newInfo()
		return *zero
	}
	return Info{
		Liquidity:                entry.Liquidity.Clone(),
		FeeGrowthInside0LastX128: entry.FeeGrowthInside0LastX128.Clone(),
		FeeGrowthInside1LastX128: entry.FeeGrowthInside1LastX128.Clone(),
		TokensOwed0:              entry.TokensOwed0.Clone(),
		TokensOwed1:              entry.TokensOwed1.Clone(),
	}
}

// Add accumulates liquidity into the position, creating it on first use.
func (s *Store) Add(key Key, amount *uint256.Int) error {
	entry, ok := s.positions[key]
	if !ok {
		entry = newInfo()
		s.positions[key] = entry
	}
	next, overflow := new(uint256.Int).AddOverflow(entry.Liquidity, amount)
	if overflow || next.Gt(maxUint128) {
		return fmt.Errorf("position liquidity: %w", fullmath.ErrOverflow)
	}
	entry.Liquidity = next
	return nil
}

// Remove decrements the position's liquidity.
func (s *Store) Remove(key Key, amount *uint256.Int) error {
	entry, ok := s.positions[key]
	if !ok || entry.Liquidity.Lt(amount) {
		return fmt.Errorf("position %s [%d,%d): %w", key.Owner.Hex(), key.TickLower, key.TickUpper, ErrInsufficientLiquidity)
	}
	entry.Liquidity = new(uint256.Int).Sub(entry.Liquidity, amount)
	return nil
}

// Each visits every stored position, for snapshotting.
func (s *Store) Each(fn func(key Key, info Info)) {
	for key := range s.positions {
		fn(key, s.Get(key))
	}
}

// Restore installs a position verbatim, for snapshot loading.
func (s *Store) Restore(key Key, info Info) {
	entry := newInfo()
	if info.Liquidity != nil {
		entry.Liquidity = info.Liquidity.Clone()
	}
	if info.TokensOwed0 != nil {
		entry.TokensOwed0 = info.TokensOwed0.Clone()
	}
	if info.TokensOwed1 != nil {
		entry.TokensOwed1 = info.TokensOwed1.Clone()
	}
	if info.FeeGrowthInside0LastX128 != nil {
		entry.FeeGrowthInside0LastX128 = info.FeeGrowthInside0LastX128.Clone()
	}
	if info.FeeGrowthInside1LastX128 != nil {
		entry.FeeGrowthInside1LastX128 = info.FeeGrowthInside1LastX128.Clone()
	}
	s.positions[key] = entry
}
