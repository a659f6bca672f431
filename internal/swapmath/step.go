// Package swapmath computes a single constant-product step of a swap between
// two sqrt prices at fixed liquidity.
package swapmath

import (
	"github.com/holiman/uint256"

	"clpool/internal/fullmath"
	"clpool/internal/sqrtmath"
)

// FeeDenominator expresses fees in parts per million.
const FeeDenominator = 1_000_000

// Step is the outcome of one swap iteration: the price reached, the input
// principal consumed, the output produced, and the fee withheld.
type Step struct {
	SqrtPriceNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeStep advances the price from sqrtPriceCurrent toward sqrtPriceTarget,
// limited by liquidity and by the remaining specified amount (input principal
// plus fee when exactIn, output otherwise).
//
// The fee rule is uniform across paths: the remaining input is reduced by
// feePips/1e6 before sizing the step, and the fee is recovered from the
// principal actually consumed as ceil(amountIn*feePips/(1e6-feePips)), capped
// so principal plus fee never exceeds the remaining input.
func ComputeStep(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, amountRemaining *uint256.Int, exactIn bool, feePips uint32) (Step, error) {
	zeroForOne := !sqrtPriceCurrentX96.Lt(sqrtPriceTargetX96)
	feeDen := uint256.NewInt(FeeDenominator)
	feeNum := uint256.NewInt(uint64(feePips))
	feeComp := new(uint256.Int).Sub(feeDen, feeNum)

	step := Step{
		AmountIn:  new(uint256.Int),
		AmountOut: new(uint256.Int),
		FeeAmount: new(uint256.Int),
	}
	var err error

	if exactIn {
		remainingLessFee, ferr := fullmath.MulDiv(amountRemaining, feeComp, feeDen)
		if ferr != nil {
			return Step{}, ferr
		}

		if zeroForOne {
			step.AmountIn, err = sqrtmath.Amount0Delta(sqrtPriceTargetX96, sqrtPriceCurrentX96, liquidity, true)
		} else {
			step.AmountIn, err = sqrtmath.Amount1Delta(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, true)
		}
		if err != nil {
			return Step{}, err
		}

		if !remainingLessFee.Lt(step.AmountIn) {
			step.SqrtPriceNextX96 = sqrtPriceTargetX96.Clone()
		} else {
			step.SqrtPriceNextX96, err = sqrtmath.NextSqrtPriceFromInput(sqrtPriceCurrentX96, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		if zeroForOne {
			step.AmountOut, err = sqrtmath.Amount1Delta(sqrtPriceTargetX96, sqrtPriceCurrentX96, liquidity, false)
		} else {
			step.AmountOut, err = sqrtmath.Amount0Delta(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, false)
		}
		if err != nil {
			return Step{}, err
		}

		if !amountRemaining.Lt(step.AmountOut) {
			step.SqrtPriceNextX96 = sqrtPriceTargetX96.Clone()
		} else {
			step.SqrtPriceNextX96, err = sqrtmath.NextSqrtPriceFromOutput(sqrtPriceCurrentX96, liquidity, amountRemaining, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	}

	reachedTarget := step.SqrtPriceNextX96.Eq(sqrtPriceTargetX96)

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			step.AmountIn, err = sqrtmath.Amount0Delta(step.SqrtPriceNextX96, sqrtPriceCurrentX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut, err = sqrtmath.Amount1Delta(step.SqrtPriceNextX96, sqrtPriceCurrentX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			step.AmountIn, err = sqrtmath.Amount1Delta(sqrtPriceCurrentX96, step.SqrtPriceNextX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut, err = sqrtmath.Amount0Delta(sqrtPriceCurrentX96, step.SqrtPriceNextX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	}

	if !exactIn && step.AmountOut.Gt(amountRemaining) {
		step.AmountOut = amountRemaining.Clone()
	}

	step.FeeAmount, err = fullmath.MulDivRoundingUp(step.AmountIn, feeNum, feeComp)
	if err != nil {
		return Step{}, err
	}

	if exactIn {
		consumed, overflow := new(uint256.Int).AddOverflow(step.AmountIn, step.FeeAmount)
		if overflow {
			return Step{}, fullmath.ErrOverflow
		}
		// Round-up of both principal and fee can nudge the total a unit past
		// the remaining input; the fee absorbs the difference.
		if consumed.Gt(amountRemaining) {
			step.FeeAmount = new(uint256.Int).Sub(amountRemaining, step.AmountIn)
		}
		// A remainder too small to move the price at all is absorbed as fee,
		// so the caller's loop always makes progress.
		if consumed.IsZero() && step.SqrtPriceNextX96.Eq(sqrtPriceCurrentX96) && !reachedTarget {
			step.FeeAmount = amountRemaining.Clone()
		}
	}

	return step, nil
}
