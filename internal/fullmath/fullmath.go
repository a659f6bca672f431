package fullmath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrOverflow reports a fixed-point intermediate or result that exceeds the
// representable range.
var ErrOverflow = errors.New("arithmetic overflow")

var one = uint256.NewInt(1)

// MulDiv computes floor(a*b/denominator) with a 512-bit intermediate product.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, fmt.Errorf("muldiv by zero: %w", ErrOverflow)
	}

	product := new(big.Int).Mul(a.ToBig(), b.ToBig())
	product.Div(product, denominator.ToBig())

	result, overflow := uint256.FromBig(product)
	if overflow {
		return nil, fmt.Errorf("muldiv result exceeds 256 bits: %w", ErrOverflow)
	}
	return result, nil
}

// MulDivRoundingUp computes ceil(a*b/denominator) with a 512-bit intermediate.
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, fmt.Errorf("muldiv by zero: %w", ErrOverflow)
	}

	product := new(big.Int).Mul(a.ToBig(), b.ToBig())
	quotient, remainder := new(big.Int).QuoRem(product, denominator.ToBig(), new(big.Int))
	if remainder.Sign() > 0 {
		quotient.Add(quotient, big.NewInt(1))
	}

	result, overflow := uint256.FromBig(quotient)
	if overflow {
		return nil, fmt.Errorf("muldiv result exceeds 256 bits: %w", ErrOverflow)
	}
	return result, nil
}

// DivRoundingUp computes ceil(a/denominator).
func DivRoundingUp(a, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, fmt.Errorf("division by zero: %w", ErrOverflow)
	}

	quotient := new(uint256.Int).Div(a, denominator)
	remainder := new(uint256.Int).Mod(a, denominator)
	if !remainder.IsZero() {
		quotient.Add(quotient, one)
	}
	return quotient, nil
}
