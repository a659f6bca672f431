package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"clpool/internal/fullmath"
	"clpool/internal/model"
	"clpool/internal/swapmath"
	"clpool/internal/tickmath"
)

// SwapResult reports the settled outcome of a swap. Amount0/Amount1 are
// signed: positive means the actor paid the pool, negative means the pool
// paid the actor.
type SwapResult struct {
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *uint256.Int
	Tick         int32
	Liquidity    *uint256.Int
	TicksCrossed []int32
}

// Swap trades one token for the other. zeroForOne sells token0 for token1,
// pushing the price down; otherwise token1 for token0, pushing it up.
// amountSpecified > 0 is exact-input (including fee), < 0 exact-output.
// sqrtPriceLimitX96 bounds how far the price may move; the swap fills as much
// as it can and stops at the limit, so a partial fill is a success, not an
// error. State commits only after the input has been collected.
func (p *Pool) Swap(actor common.Address, zeroForOne bool, amountSpecified *big.Int, sqrtPriceLimitX96 *uint256.Int) (SwapResult, error) {
	if err := p.acquire(); err != nil {
		return SwapResult{}, err
	}
	defer p.release()

	if amountSpecified == nil || amountSpecified.Sign() == 0 {
		return SwapResult{}, fmt.Errorf("swap amount must be nonzero: %w", ErrValidation)
	}
	if err := p.checkPriceLimit(zeroForOne, sqrtPriceLimitX96); err != nil {
		return SwapResult{}, err
	}

	exactIn := amountSpecified.Sign() > 0
	remaining, overflow := uint256.FromBig(new(big.Int).Abs(amountSpecified))
	if overflow {
		return SwapResult{}, fmt.Errorf("swap amount %s: %w", amountSpecified, fullmath.ErrOverflow)
	}

	working := p.state.clone()
	accumulated := new(uint256.Int)
	var crossed []int32

	for !remaining.IsZero() && !working.sqrtPriceX96.Eq(sqrtPriceLimitX96) {
		nextTick, found := p.ticks.NextInitialized(working.tick, zeroForOne, p.cfg.SearchWindow)

		sqrtNext, err := tickmath.SqrtPriceAtTick(nextTick)
		if err != nil {
			return SwapResult{}, err
		}

		target := sqrtNext
		if zeroForOne && sqrtNext.Lt(sqrtPriceLimitX96) {
			target = sqrtPriceLimitX96
		} else if !zeroForOne && sqrtNext.Gt(sqrtPriceLimitX96) {
			target = sqrtPriceLimitX96
		}

		step, err := swapmath.ComputeStep(working.sqrtPriceX96, target, working.liquidity, remaining, exactIn, p.cfg.FeePips)
		if err != nil {
			return SwapResult{}, err
		}

		if exactIn {
			consumed := new(uint256.Int).Add(step.AmountIn, step.FeeAmount)
			if consumed.Gt(remaining) {
				consumed = remaining.Clone()
			}
			remaining = new(uint256.Int).Sub(remaining, consumed)
			accumulated = new(uint256.Int).Add(accumulated, step.AmountOut)
		} else {
			remaining = new(uint256.Int).Sub(remaining, step.AmountOut)
			accumulated = new(uint256.Int).Add(accumulated, new(uint256.Int).Add(step.AmountIn, step.FeeAmount))
		}

		prevPrice := working.sqrtPriceX96
		working.sqrtPriceX96 = step.SqrtPriceNextX96

		if working.sqrtPriceX96.Eq(sqrtNext) {
			// The step reached the tick boundary: a crossing. The tick's net
			// liquidity joins the active range moving up and leaves it moving
			// down.
			if found {
				next, err := applyNetLiquidity(working.liquidity, p.ticks.Cross(nextTick), !zeroForOne)
				if err != nil {
					return SwapResult{}, err
				}
				working.liquidity = next
				crossed = append(crossed, nextTick)
			}
			if zeroForOne {
				working.tick = nextTick - 1
			} else {
				working.tick = nextTick
			}
		} else if !working.sqrtPriceX96.Eq(prevPrice) {
			working.tick, err = tickmath.TickAtSqrtPrice(working.sqrtPriceX96)
			if err != nil {
				return SwapResult{}, err
			}
		}
	}

	// Positive means the actor owes the pool.
	specifiedDelta := new(big.Int).Sub(new(big.Int).Abs(amountSpecified), remaining.ToBig())
	calculatedDelta := accumulated.ToBig()
	if exactIn {
		calculatedDelta.Neg(calculatedDelta)
	} else {
		specifiedDelta.Neg(specifiedDelta)
	}

	var amount0, amount1 *big.Int
	if zeroForOne == exactIn {
		amount0, amount1 = specifiedDelta, calculatedDelta
	} else {
		amount0, amount1 = calculatedDelta, specifiedDelta
	}

	if err := p.settleDebit(actor, p.cfg.Token0, amount0); err != nil {
		return SwapResult{}, err
	}
	if err := p.settleDebit(actor, p.cfg.Token1, amount1); err != nil {
		// Refund the first leg; nothing has been committed yet.
		p.settleCredit(actor, p.cfg.Token0, amount0)
		return SwapResult{}, err
	}

	before := p.state.clone()
	p.state = working

	p.settleCredit(actor, p.cfg.Token0, new(big.Int).Neg(amount0))
	p.settleCredit(actor, p.cfg.Token1, new(big.Int).Neg(amount1))

	p.emitAudit(model.AuditRecord{
		Kind:            model.AuditSwap,
		Actor:           actor.Hex(),
		ZeroForOne:      &zeroForOne,
		AmountSpecified: amountSpecified.String(),
		Amount0:         amount0.String(),
		Amount1:         amount1.String(),
		SqrtPriceBefore: before.sqrtPriceX96.Dec(),
		SqrtPriceAfter:  p.state.sqrtPriceX96.Dec(),
		TickBefore:      before.tick,
		TickAfter:       p.state.tick,
		LiquidityBefore: before.liquidity.Dec(),
		LiquidityAfter:  p.state.liquidity.Dec(),
		TicksCrossed:    crossed,
		Timestamp:       auditTimestamp(),
	})

	return SwapResult{
		Amount0:      amount0,
		Amount1:      amount1,
		SqrtPriceX96: p.state.sqrtPriceX96.Clone(),
		Tick:         p.state.tick,
		Liquidity:    p.state.liquidity.Clone(),
		TicksCrossed: crossed,
	}, nil
}

func (p *Pool) checkPriceLimit(zeroForOne bool, limit *uint256.Int) error {
	if limit == nil {
		return fmt.Errorf("price limit is required: %w", ErrValidation)
	}
	if zeroForOne {
		if !limit.Lt(p.state.sqrtPriceX96) || !limit.Gt(tickmath.MinSqrtRatio) {
			return fmt.Errorf("invalid price limit %s below current %s: %w", limit, p.state.sqrtPriceX96, ErrValidation)
		}
		return nil
	}
	if !limit.Gt(p.state.sqrtPriceX96) || !limit.Lt(tickmath.MaxSqrtRatio) {
		return fmt.Errorf("invalid price limit %s above current %s: %w", limit, p.state.sqrtPriceX96, ErrValidation)
	}
	return nil
}

// settleDebit collects amount from the actor when positive.
func (p *Pool) settleDebit(actor, token common.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return fmt.Errorf("settlement amount %s: %w", amount, fullmath.ErrOverflow)
	}
	return p.custody.Debit(actor, token, value)
}

// settleCredit pays amount to the actor when positive. Credits do not fail
// for well-formed tokens; an error is logged and the settlement stands.
func (p *Pool) settleCredit(actor, token common.Address, amount *big.Int) {
	if amount.Sign() <= 0 {
		return
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		p.logger.Error("settlement credit overflow", zap.String("token", token.Hex()))
		return
	}
	if err := p.custody.Credit(actor, token, value); err != nil {
		p.logger.Error("settlement credit failed", zap.String("token", token.Hex()), zap.Error(err))
	}
}

func applyNetLiquidity(liquidity, net *uint256.Int, movingUp bool) (*uint256.Int, error) {
	result := new(uint256.Int)
	if movingUp {
		result.Add(liquidity, net)
	} else {
		result.Sub(liquidity, net)
	}
	// net is two's complement; a valid result always lands back inside the
	// 128-bit liquidity range.
	if result.Gt(maxUint128) {
		return nil, fmt.Errorf("active liquidity after crossing: %w", fullmath.ErrOverflow)
	}
	return result, nil
}
