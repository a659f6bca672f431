package report

import (
	"fmt"
	"math/big"

	"clpool/internal/model"
)

// Accumulator holds aggregate values for one time window.
type Accumulator struct {
	WindowStart  uint64
	WindowEnd    uint64
	SwapCount    uint64
	MintCount    uint64
	BurnCount    uint64
	Volume0      *big.Int
	Volume1      *big.Int
	Fee0         *big.Int
	Fee1         *big.Int
	TicksCrossed uint64
}

func NewAccumulator(windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume0:     big.NewInt(0),
		Volume1:     big.NewInt(0),
		Fee0:        big.NewInt(0),
		Fee1:        big.NewInt(0),
	}
}

// Add folds one audit record into the window.
func (a *Accumulator) Add(record model.AuditRecord, feePips uint32) error {
	switch record.Kind {
	case model.AuditSwap:
		return a.applySwap(record, feePips)
	case model.AuditMint:
		a.MintCount++
		return nil
	case model.AuditBurn:
		a.BurnCount++
		return nil
	default:
		return fmt.Errorf("unknown audit kind %q", record.Kind)
	}
}

func (a *Accumulator) applySwap(record model.AuditRecord, feePips uint32) error {
	amount0, err := parseBigInt(record.Amount0)
	if err != nil {
		return err
	}
	amount1, err := parseBigInt(record.Amount1)
	if err != nil {
		return err
	}

	absAdd(a.Volume0, amount0)
	absAdd(a.Volume1, amount1)
	a.TicksCrossed += uint64(len(record.TicksCrossed))
	a.SwapCount++

	if feePips == 0 {
		return nil
	}
	// Positive amounts are what the actor paid in; that side carried the fee.
	if amount0.Sign() > 0 {
		a.Fee0.Add(a.Fee0, feeFromAmount(amount0, feePips))
	} else if amount1.Sign() > 0 {
		a.Fee1.Add(a.Fee1, feeFromAmount(amount1, feePips))
	}
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func absAdd(target *big.Int, value *big.Int) {
	if value == nil || target == nil {
		return
	}
	abs := new(big.Int).Abs(value)
	target.Add(target, abs)
}

func feeFromAmount(amountIn *big.Int, feePips uint32) *big.Int {
	if amountIn == nil {
		return big.NewInt(0)
	}
	fee := new(big.Int).Abs(amountIn)
	fee.Mul(fee, big.NewInt(int64(feePips)))
	fee.Div(fee, big.NewInt(1_000_000))
	return fee
}
