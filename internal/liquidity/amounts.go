// Package liquidity converts between an abstract liquidity amount and the two
// token quantities it represents over a price range.
package liquidity

import (
	"github.com/holiman/uint256"

	"clpool/internal/sqrtmath"
	"clpool/internal/tickmath"
)

// AmountsForRange returns the token0/token1 quantities backing the given
// liquidity over [tickLower, tickUpper] at the given sqrt price. Below the
// range the value is all token0, above it all token1, inside it a mix split
// at the current price. roundUp selects rounding in the pool's favor (mint)
// versus the caller's (burn).
func AmountsForRange(sqrtPriceX96 *uint256.Int, tickLower, tickUpper int32, amount *uint256.Int, roundUp bool) (*uint256.Int, *uint256.Int, error) {
	sqrtLower, err := tickmath.SqrtPriceAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := tickmath.SqrtPriceAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	amount0 := new(uint256.Int)
	amount1 := new(uint256.Int)

	switch {
	case !sqrtPriceX96.Gt(sqrtLower):
		amount0, err = sqrtmath.Amount0Delta(sqrtLower, sqrtUpper, amount, roundUp)
		if err != nil {
			return nil, nil, err
		}
	case sqrtPriceX96.Lt(sqrtUpper):
		amount0, err = sqrtmath.Amount0Delta(sqrtPriceX96, sqrtUpper, amount, roundUp)
		if err != nil {
			return nil, nil, err
		}
		amount1, err = sqrtmath.Amount1Delta(sqrtLower, sqrtPriceX96, amount, roundUp)
		if err != nil {
			return nil, nil, err
		}
	default:
		amount1, err = sqrtmath.Amount1Delta(sqrtLower, sqrtUpper, amount, roundUp)
		if err != nil {
			return nil, nil, err
		}
	}

	return amount0, amount1, nil
}
