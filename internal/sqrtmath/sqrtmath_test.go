package sqrtmath

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"clpool/internal/fullmath"
)

var q96test = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

func TestAmount1Delta(t *testing.T) {
	// liquidity * (b - a) / 2^96 with b - a = 2^96 gives exactly liquidity.
	a := q96test.Clone()
	b := new(uint256.Int).Lsh(uint256.NewInt(1), 97)
	liquidity := uint256.NewInt(123456)

	got, err := Amount1Delta(a, b, liquidity, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(liquidity) {
		t.Fatalf("got %s, want %s", got.Dec(), liquidity.Dec())
	}

	// Argument order is normalized.
	swapped, err := Amount1Delta(b, a, liquidity, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !swapped.Eq(got) {
		t.Fatalf("order sensitivity: %s != %s", swapped.Dec(), got.Dec())
	}
}

func TestAmount0Delta(t *testing.T) {
	// L*(b-a)/(a*b) scaled by 2^96: with a = 2^96, b = 2^97, equals L/2.
	a := q96test.Clone()
	b := new(uint256.Int).Lsh(uint256.NewInt(1), 97)
	liquidity := uint256.NewInt(1000)

	got, err := Amount0Delta(a, b, liquidity, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(uint256.NewInt(500)) {
		t.Fatalf("got %s, want 500", got.Dec())
	}

	up, err := Amount0Delta(a, b, uint256.NewInt(1001), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	down, err := Amount0Delta(a, b, uint256.NewInt(1001), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !up.Gt(down) {
		t.Fatalf("round up %s should exceed round down %s", up.Dec(), down.Dec())
	}
}

func TestNextSqrtPriceFromInputDirection(t *testing.T) {
	price := q96test.Clone()
	liquidity := uint256.NewInt(1_000_000)
	amount := uint256.NewInt(1000)

	down, err := NextSqrtPriceFromInput(price, liquidity, amount, true)
	if err != nil {
		t.Fatalf("token0 in: %v", err)
	}
	if !down.Lt(price) {
		t.Fatalf("token0 input should move price down: %s", down.Dec())
	}

	up, err := NextSqrtPriceFromInput(price, liquidity, amount, false)
	if err != nil {
		t.Fatalf("token1 in: %v", err)
	}
	if !up.Gt(price) {
		t.Fatalf("token1 input should move price up: %s", up.Dec())
	}
}

func TestNextSqrtPriceZeroAmount(t *testing.T) {
	price := q96test.Clone()
	got, err := NextSqrtPriceFromInput(price, uint256.NewInt(1_000_000), new(uint256.Int), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(price) {
		t.Fatalf("zero input moved the price: %s", got.Dec())
	}
}

func TestNextSqrtPriceOutputExceedsReserves(t *testing.T) {
	price := q96test.Clone()
	liquidity := uint256.NewInt(1000)

	// Asking for more token1 out than the position holds at this price.
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	if _, err := NextSqrtPriceFromOutput(price, liquidity, huge, true); !errors.Is(err, fullmath.ErrOverflow) {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
}
