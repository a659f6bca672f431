package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clpool/internal/fullmath"
	"clpool/internal/liquidity"
	"clpool/internal/model"
	"clpool/internal/position"
)

// Mint commits amount of liquidity to [tickLower, tickUpper) for owner,
// debiting the token amounts the range requires at the current price. max0 and
// max1 bound the acceptable cost; a nil maximum is unlimited. Returns the
// amounts actually consumed. No mutation is visible unless the whole
// operation succeeds.
func (p *Pool) Mint(owner common.Address, tickLower, tickUpper int32, amount, max0, max1 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if err := p.acquire(); err != nil {
		return nil, nil, err
	}
	defer p.release()

	if err := checkTicks(tickLower, tickUpper); err != nil {
		return nil, nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, nil, fmt.Errorf("mint amount must be positive: %w", ErrValidation)
	}

	before := p.state.clone()

	amount0, amount1, err := liquidity.AmountsForRange(p.state.sqrtPriceX96, tickLower, tickUpper, amount, true)
	if err != nil {
		return nil, nil, err
	}
	if max0 != nil && amount0.Gt(max0) {
		return nil, nil, fmt.Errorf("amount0 %s exceeds max %s: %w", amount0, max0, ErrSlippageExceeded)
	}
	if max1 != nil && amount1.Gt(max1) {
		return nil, nil, fmt.Errorf("amount1 %s exceeds max %s: %w", amount1, max1, ErrSlippageExceeded)
	}

	// Mutations are staged with explicit inverses so any later failure
	// leaves the pool exactly as it was.
	var undo []func()
	fail := func(err error) (*uint256.Int, *uint256.Int, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return nil, nil, err
	}

	if err := p.ticks.RecordLiquidityChange(tickLower, amount, true, false); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.ticks.RecordLiquidityChange(tickLower, amount, false, false) })

	if err := p.ticks.RecordLiquidityChange(tickUpper, amount, true, true); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.ticks.RecordLiquidityChange(tickUpper, amount, false, true) })

	if p.state.tick >= tickLower && p.state.tick < tickUpper {
		next, overflow := new(uint256.Int).AddOverflow(p.state.liquidity, amount)
		if overflow || next.Gt(maxUint128) {
			return fail(fmt.Errorf("active liquidity: %w", fullmath.ErrOverflow))
		}
		prev := p.state.liquidity
		p.state.liquidity = next
		undo = append(undo, func() { p.state.liquidity = prev })
	}

	key := position.Key{Owner: owner, TickLower: tickLower, TickUpper: tickUpper}
	if err := p.positions.Add(key, amount); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.positions.Remove(key, amount) })

	if err := p.custody.Debit(owner, p.cfg.Token0, amount0); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.custody.Credit(owner, p.cfg.Token0, amount0) })

	if err := p.custody.Debit(owner, p.cfg.Token1, amount1); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.custody.Credit(owner, p.cfg.Token1, amount1) })

	if err := p.shares.Mint(owner, amount); err != nil {
		return fail(err)
	}

	p.emitAudit(model.AuditRecord{
		Kind:            model.AuditMint,
		Actor:           owner.Hex(),
		TickLower:       &tickLower,
		TickUpper:       &tickUpper,
		Amount0:         amount0.Dec(),
		Amount1:         amount1.Dec(),
		LiquidityDelta:  amount.Dec(),
		SqrtPriceBefore: before.sqrtPriceX96.Dec(),
		SqrtPriceAfter:  p.state.sqrtPriceX96.Dec(),
		TickBefore:      before.tick,
		TickAfter:       p.state.tick,
		LiquidityBefore: before.liquidity.Dec(),
		LiquidityAfter:  p.state.liquidity.Dec(),
		Timestamp:       auditTimestamp(),
	})

	return amount0, amount1, nil
}

// Burn withdraws amount of liquidity from owner's [tickLower, tickUpper)
// position and credits the token amounts it represents at the current price.
func (p *Pool) Burn(owner common.Address, tickLower, tickUpper int32, amount *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if err := p.acquire(); err != nil {
		return nil, nil, err
	}
	defer p.release()

	if err := checkTicks(tickLower, tickUpper); err != nil {
		return nil, nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, nil, fmt.Errorf("burn amount must be positive: %w", ErrValidation)
	}

	key := position.Key{Owner: owner, TickLower: tickLower, TickUpper: tickUpper}
	held := p.positions.Get(key)
	if held.Liquidity.Lt(amount) {
		return nil, nil, fmt.Errorf("burn %s exceeds position %s: %w", amount, held.Liquidity, ErrInsufficientLiquidity)
	}

	before := p.state.clone()

	amount0, amount1, err := liquidity.AmountsForRange(p.state.sqrtPriceX96, tickLower, tickUpper, amount, false)
	if err != nil {
		return nil, nil, err
	}

	var undo []func()
	fail := func(err error) (*uint256.Int, *uint256.Int, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return nil, nil, err
	}

	if err := p.ticks.RecordLiquidityChange(tickLower, amount, false, false); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.ticks.RecordLiquidityChange(tickLower, amount, true, false) })

	if err := p.ticks.RecordLiquidityChange(tickUpper, amount, false, true); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.ticks.RecordLiquidityChange(tickUpper, amount, true, true) })

	if p.state.tick >= tickLower && p.state.tick < tickUpper {
		if p.state.liquidity.Lt(amount) {
			return fail(fmt.Errorf("active liquidity below burn amount: %w", ErrInsufficientLiquidity))
		}
		prev := p.state.liquidity
		p.state.liquidity = new(uint256.Int).Sub(p.state.liquidity, amount)
		undo = append(undo, func() { p.state.liquidity = prev })
	}

	if err := p.positions.Remove(key, amount); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.positions.Add(key, amount) })

	if err := p.shares.Burn(owner, amount); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.shares.Mint(owner, amount) })

	if err := p.custody.Credit(owner, p.cfg.Token0, amount0); err != nil {
		return fail(err)
	}
	undo = append(undo, func() { _ = p.custody.Debit(owner, p.cfg.Token0, amount0) })

	if err := p.custody.Credit(owner, p.cfg.Token1, amount1); err != nil {
		return fail(err)
	}

	p.emitAudit(model.AuditRecord{
		Kind:            model.AuditBurn,
		Actor:           owner.Hex(),
		TickLower:       &tickLower,
		TickUpper:       &tickUpper,
		Amount0:         amount0.Dec(),
		Amount1:         amount1.Dec(),
		LiquidityDelta:  amount.Dec(),
		SqrtPriceBefore: before.sqrtPriceX96.Dec(),
		SqrtPriceAfter:  p.state.sqrtPriceX96.Dec(),
		TickBefore:      before.tick,
		TickAfter:       p.state.tick,
		LiquidityBefore: before.liquidity.Dec(),
		LiquidityAfter:  p.state.liquidity.Dec(),
		Timestamp:       auditTimestamp(),
	})

	return amount0, amount1, nil
}
