// Package ticks keeps the sparse per-tick liquidity ledger. Each initialized
// tick records the aggregate liquidity referencing it as a range boundary
// (gross) and the signed amount applied to active liquidity when price crosses
// it moving upward (net, stored as a two's-complement uint256).
package ticks

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"clpool/internal/fullmath"
	"clpool/internal/tickmath"
)

// ErrInsufficientLiquidity reports a gross-liquidity underflow.
var ErrInsufficientLiquidity = errors.New("insufficient liquidity")

var maxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// Info is the ledger entry for one tick.
type Info struct {
	LiquidityGross *uint256.Int
	LiquidityNet   *uint256.Int
	Initialized    bool
}

func newInfo() *Info {
	return &Info{
		LiquidityGross: new(uint256.Int),
		LiquidityNet:   new(uint256.Int),
	}
}

// NetBig returns the net liquidity as a signed big integer.
func (i Info) NetBig() *big.Int {
	return signedBig(i.LiquidityNet)
}

// Ledger is a sparse tick to Info mapping. Absent entries read as zero.
type Ledger struct {
	entries map[int32]*Info

	// resetOnEmpty clears the initialized flag (and prunes the entry) when
	// gross liquidity returns to zero. Either choice is valid; search results
	// only ever depend on entries with nonzero gross when this is enabled,
	// and on the first-touch flag when it is not.
	resetOnEmpty bool
}

// NewLedger builds an empty ledger. resetOnEmpty controls whether a tick
// forgets its initialized flag once all liquidity referencing it is removed.
func NewLedger(resetOnEmpty bool) *Ledger {
	return &Ledger{
		entries:      make(map[int32]*Info),
		resetOnEmpty: resetOnEmpty,
	}
}

// Get returns a copy of the entry at tick; absent ticks read as zero.
func (l *Ledger) Get(tick int32) Info {
	entry, ok := l.entries[tick]
	if !ok {
		return Info{LiquidityGross: new(uint256.Int), LiquidityNet: new(uint256.Int)}
	}
	return Info{
		LiquidityGross: entry.LiquidityGross.Clone(),
		LiquidityNet:   entry.LiquidityNet.Clone(),
		Initialized:    entry.Initialized,
	}
}

// RecordLiquidityChange applies a liquidity delta at a range boundary.
// add selects the sign of the gross change; upper flips the sign of the net
// change (liquidity added at an upper boundary leaves the active range when
// price crosses it moving up).
func (l *Ledger) RecordLiquidityChange(tick int32, amount *uint256.Int, add, upper bool) error {
	if tick < tickmath.MinTick || tick > tickmath.MaxTick {
		return fmt.Errorf("tick %d: %w", tick, tickmath.ErrPriceOutOfRange)
	}
	if amount.IsZero() {
		return nil
	}

	entry, ok := l.entries[tick]
	if !ok {
		entry = newInfo()
		l.entries[tick] = entry
	}

	if add {
		gross, overflow := new(uint256.Int).AddOverflow(entry.LiquidityGross, amount)
		if overflow || gross.Gt(maxUint128) {
			return fmt.Errorf("tick %d gross liquidity: %w", tick, fullmath.ErrOverflow)
		}
		entry.LiquidityGross = gross
	} else {
		if entry.LiquidityGross.Lt(amount) {
			return fmt.Errorf("tick %d gross underflow: %w", tick, ErrInsufficientLiquidity)
		}
		entry.LiquidityGross = new(uint256.Int).Sub(entry.LiquidityGross, amount)
	}

	// Net arithmetic wraps in two's complement; the gross bound keeps the
	// signed magnitude within 128 bits.
	if add != upper {
		entry.LiquidityNet = new(uint256.Int).Add(entry.LiquidityNet, amount)
	} else {
		entry.LiquidityNet = new(uint256.Int).Sub(entry.LiquidityNet, amount)
	}

	if !entry.LiquidityGross.IsZero() {
		entry.Initialized = true
	} else if l.resetOnEmpty {
		delete(l.entries, tick)
	}
	return nil
}

// NextInitialized returns the nearest initialized tick from the starting tick
// in the given direction, scanning at most window ticks. lte searches at or
// below the start (price moving down); otherwise strictly above. When nothing
// is found the clamped window boundary is returned with found=false.
func (l *Ledger) NextInitialized(from int32, lte bool, window int32) (int32, bool) {
	if lte {
		bound := from - window
		if bound < tickmath.MinTick {
			bound = tickmath.MinTick
		}
		for t := from; t >= bound; t-- {
			if l.initialized(t) {
				return t, true
			}
		}
		return bound, false
	}

	bound := from + window
	if bound > tickmath.MaxTick {
		bound = tickmath.MaxTick
	}
	for t := from + 1; t <= bound; t++ {
		if l.initialized(t) {
			return t, true
		}
	}
	return bound, false
}

// Cross returns the signed net-liquidity delta at a tick for a crossing.
func (l *Ledger) Cross(tick int32) *uint256.Int {
	entry, ok := l.entries[tick]
	if !ok {
		return new(uint256.Int)
	}
	return entry.LiquidityNet.Clone()
}

// Each visits every stored entry, for snapshotting.
func (l *Ledger) Each(fn func(tick int32, info Info)) {
	for tick, entry := range l.entries {
		fn(tick, Info{
			LiquidityGross: entry.LiquidityGross.Clone(),
			LiquidityNet:   entry.LiquidityNet.Clone(),
			Initialized:    entry.Initialized,
		})
	}
}

// Restore installs an entry verbatim, for snapshot loading.
func (l *Ledger) Restore(tick int32, gross, net *uint256.Int, initialized bool) {
	l.entries[tick] = &Info{
		LiquidityGross: gross.Clone(),
		LiquidityNet:   net.Clone(),
		Initialized:    initialized,
	}
}

func (l *Ledger) initialized(tick int32) bool {
	entry, ok := l.entries[tick]
	return ok && entry.Initialized
}

var twoPow255 = new(uint256.Int).Lsh(uint256.NewInt(1), 255)

func signedBig(v *uint256.Int) *big.Int {
	if v.Lt(twoPow255) {
		return v.ToBig()
	}
	neg := new(uint256.Int).Neg(v)
	return new(big.Int).Neg(neg.ToBig())
}

// SignedFromBig converts a signed big integer into the two's-complement
// uint256 representation used for net liquidity.
func SignedFromBig(v *big.Int) (*uint256.Int, error) {
	mag, overflow := uint256.FromBig(new(big.Int).Abs(v))
	if overflow {
		return nil, fmt.Errorf("net liquidity %s: %w", v, fullmath.ErrOverflow)
	}
	if v.Sign() < 0 {
		mag.Neg(mag)
	}
	return mag, nil
}
