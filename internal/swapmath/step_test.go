package swapmath

import (
	"testing"

	"github.com/holiman/uint256"

	"clpool/internal/tickmath"
)

func price(t *testing.T, tick int32) *uint256.Int {
	t.Helper()
	p, err := tickmath.SqrtPriceAtTick(tick)
	if err != nil {
		t.Fatalf("sqrt price at %d: %v", tick, err)
	}
	return p
}

func TestComputeStepExactInReachesTarget(t *testing.T) {
	current := price(t, 100)
	target := price(t, 0)
	liquidity := uint256.NewInt(1_000_000)
	remaining := new(uint256.Int).Lsh(uint256.NewInt(1), 100)

	step, err := ComputeStep(current, target, liquidity, remaining, true, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.SqrtPriceNextX96.Eq(target) {
		t.Fatalf("price should reach target, got %s", step.SqrtPriceNextX96.Dec())
	}
	if step.AmountIn.IsZero() || step.AmountOut.IsZero() {
		t.Fatalf("amounts should be nonzero: in %s out %s", step.AmountIn.Dec(), step.AmountOut.Dec())
	}

	// fee = ceil(in * pips / (1e6 - pips))
	num := new(uint256.Int).Mul(step.AmountIn, uint256.NewInt(3000))
	den := uint256.NewInt(997_000)
	wantFee := new(uint256.Int).Div(new(uint256.Int).Add(num, new(uint256.Int).SubUint64(den, 1)), den)
	if !step.FeeAmount.Eq(wantFee) {
		t.Fatalf("fee: got %s, want %s", step.FeeAmount.Dec(), wantFee.Dec())
	}
}

func TestComputeStepExactInUndershootsTarget(t *testing.T) {
	current := price(t, 100)
	target := price(t, -100)
	liquidity := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	remaining := uint256.NewInt(1_000_000)

	step, err := ComputeStep(current, target, liquidity, remaining, true, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.SqrtPriceNextX96.Eq(target) {
		t.Fatalf("small input should not reach the target")
	}
	if !step.SqrtPriceNextX96.Lt(current) {
		t.Fatalf("price should move down")
	}

	consumed := new(uint256.Int).Add(step.AmountIn, step.FeeAmount)
	if consumed.Gt(remaining) {
		t.Fatalf("consumed %s exceeds remaining %s", consumed.Dec(), remaining.Dec())
	}
}

func TestComputeStepExactOut(t *testing.T) {
	current := price(t, 100)
	target := price(t, 0)
	liquidity := uint256.NewInt(1_000_000)

	// Full-range output to learn the capacity, then request half of it.
	full, err := ComputeStep(current, target, liquidity, new(uint256.Int).Lsh(uint256.NewInt(1), 100), false, 3000)
	if err != nil {
		t.Fatalf("full step: %v", err)
	}
	want := new(uint256.Int).Rsh(full.AmountOut, 1)
	if want.IsZero() {
		t.Skip("range too small for a half-output request")
	}

	step, err := ComputeStep(current, target, liquidity, want, false, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.AmountOut.Gt(want) {
		t.Fatalf("output %s exceeds requested %s", step.AmountOut.Dec(), want.Dec())
	}
	if step.SqrtPriceNextX96.Eq(target) {
		t.Fatalf("half-output request should stop before the target")
	}
	if step.FeeAmount.IsZero() {
		t.Fatalf("fee should be charged on the input side")
	}
}

func TestComputeStepZeroLiquidity(t *testing.T) {
	current := price(t, 100)
	target := price(t, 0)

	step, err := ComputeStep(current, target, new(uint256.Int), uint256.NewInt(1000), true, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.SqrtPriceNextX96.Eq(target) {
		t.Fatalf("zero liquidity should advance straight to the target")
	}
	if !step.AmountIn.IsZero() || !step.AmountOut.IsZero() {
		t.Fatalf("zero liquidity moved amounts: in %s out %s", step.AmountIn.Dec(), step.AmountOut.Dec())
	}
}

func TestComputeStepDustAbsorbedAsFee(t *testing.T) {
	current := price(t, 100)
	target := price(t, -100)
	liquidity := new(uint256.Int).Lsh(uint256.NewInt(1), 120)

	// One unit of input cannot move a price backed by enormous liquidity.
	step, err := ComputeStep(current, target, liquidity, uint256.NewInt(1), true, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.SqrtPriceNextX96.Eq(current) {
		t.Fatalf("dust input moved the price")
	}
	consumed := new(uint256.Int).Add(step.AmountIn, step.FeeAmount)
	if !consumed.Eq(uint256.NewInt(1)) {
		t.Fatalf("dust not fully absorbed: consumed %s", consumed.Dec())
	}
}

func TestComputeStepUpwardDirection(t *testing.T) {
	current := price(t, 0)
	target := price(t, 100)
	liquidity := uint256.NewInt(1_000_000)
	remaining := new(uint256.Int).Lsh(uint256.NewInt(1), 100)

	step, err := ComputeStep(current, target, liquidity, remaining, true, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !step.SqrtPriceNextX96.Eq(target) {
		t.Fatalf("price should reach target moving up")
	}
	if step.AmountIn.IsZero() || step.AmountOut.IsZero() {
		t.Fatalf("amounts should be nonzero")
	}
}
