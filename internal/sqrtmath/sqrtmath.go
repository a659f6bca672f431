// Package sqrtmath prices token amounts against Q64.96 sqrt-price movements.
package sqrtmath

import (
	"fmt"

	"github.com/holiman/uint256"

	"clpool/internal/fullmath"
)

var (
	q96        = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	maxUint160 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 160), uint256.NewInt(1))
)

// Amount0Delta returns the token0 amount between two sqrt prices for the given
// liquidity: liquidity * (sqrtB - sqrtA) / (sqrtA * sqrtB).
func Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.IsZero() {
		return nil, fmt.Errorf("zero sqrt price: %w", fullmath.ErrOverflow)
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		inner, err := fullmath.MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96)
		if err != nil {
			return nil, err
		}
		return fullmath.DivRoundingUp(inner, sqrtRatioAX96)
	}

	inner, err := fullmath.MulDiv(numerator1, numerator2, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(inner, sqrtRatioAX96), nil
}

// Amount1Delta returns the token1 amount between two sqrt prices for the given
// liquidity: liquidity * (sqrtB - sqrtA) / 2^96.
func Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	diff := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return fullmath.MulDivRoundingUp(liquidity, diff, q96)
	}
	return fullmath.MulDiv(liquidity, diff, q96)
}

// NextSqrtPriceFromInput returns the sqrt price after spending amountIn of the
// input token at the given liquidity. The price moves down for token0 in,
// up for token1 in.
func NextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if zeroForOne {
		return nextFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return nextFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the sqrt price after withdrawing amountOut of
// the output token at the given liquidity.
func NextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if zeroForOne {
		return nextFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return nextFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

func nextFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return sqrtPX96.Clone(), nil
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	product := new(uint256.Int).Mul(amount, sqrtPX96)

	if add {
		if new(uint256.Int).Div(product, amount).Eq(sqrtPX96) {
			denominator, overflow := new(uint256.Int).AddOverflow(numerator1, product)
			if !overflow {
				return fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		denominator := new(uint256.Int).Div(numerator1, sqrtPX96)
		denominator.Add(denominator, amount)
		return fullmath.DivRoundingUp(numerator1, denominator)
	}

	if !new(uint256.Int).Div(product, amount).Eq(sqrtPX96) || numerator1.Lt(product) {
		return nil, fmt.Errorf("amount0 output exceeds reserves: %w", fullmath.ErrOverflow)
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	return fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
}

func nextFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if liquidity.IsZero() {
		return nil, fmt.Errorf("zero liquidity: %w", fullmath.ErrOverflow)
	}

	if add {
		var quotient *uint256.Int
		if !amount.Gt(maxUint160) {
			quotient = new(uint256.Int).Lsh(amount, 96)
			quotient.Div(quotient, liquidity)
		} else {
			var err error
			quotient, err = fullmath.MulDiv(amount, q96, liquidity)
			if err != nil {
				return nil, err
			}
		}
		next, overflow := new(uint256.Int).AddOverflow(sqrtPX96, quotient)
		if overflow {
			return nil, fmt.Errorf("sqrt price overflow: %w", fullmath.ErrOverflow)
		}
		return next, nil
	}

	quotient, err := fullmath.MulDivRoundingUp(amount, q96, liquidity)
	if err != nil {
		return nil, err
	}
	if !sqrtPX96.Gt(quotient) {
		return nil, fmt.Errorf("amount1 output exceeds reserves: %w", fullmath.ErrOverflow)
	}
	return new(uint256.Int).Sub(sqrtPX96, quotient), nil
}
