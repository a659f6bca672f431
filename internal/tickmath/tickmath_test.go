package tickmath

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestSqrtPriceAtTickAnchors(t *testing.T) {
	cases := []struct {
		tick int32
		want string
	}{
		{0, "79228162514264337593543950336"}, // 2^96
		{MinTick, "4295128739"},
		{MaxTick, "1461446703485210103287273052203988822378723970342"},
	}
	for _, tc := range cases {
		got, err := SqrtPriceAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tc.tick, err)
		}
		if got.Dec() != tc.want {
			t.Fatalf("tick %d: got %s, want %s", tc.tick, got.Dec(), tc.want)
		}
	}
}

func TestSqrtPriceAtTickOutOfRange(t *testing.T) {
	for _, tick := range []int32{MinTick - 1, MaxTick + 1} {
		if _, err := SqrtPriceAtTick(tick); !errors.Is(err, ErrPriceOutOfRange) {
			t.Fatalf("tick %d: got %v, want ErrPriceOutOfRange", tick, err)
		}
	}
}

func TestSqrtPriceMonotonic(t *testing.T) {
	prev, err := SqrtPriceAtTick(MinTick)
	if err != nil {
		t.Fatalf("min tick: %v", err)
	}
	for tick := MinTick + 1; tick <= MaxTick; tick += 5000 {
		cur, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if !prev.Lt(cur) {
			t.Fatalf("tick %d: price %s not greater than previous %s", tick, cur.Dec(), prev.Dec())
		}
		prev = cur
	}
}

func TestTickAtSqrtPriceRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, -887200, -100000, -69200, -1, 0, 1, 42, 69080, 69200, 69320, 100000, 887200, MaxTick}
	for _, tick := range ticks {
		price, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		got, err := TickAtSqrtPrice(price)
		if err != nil {
			t.Fatalf("tick %d: inverse: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip for tick %d: got %d", tick, got)
		}
	}
}

func TestTickAtSqrtPriceBetweenTicks(t *testing.T) {
	// A price strictly between tick 100 and 101 maps to the lower tick.
	p100, err := SqrtPriceAtTick(100)
	if err != nil {
		t.Fatalf("tick 100: %v", err)
	}
	p101, err := SqrtPriceAtTick(101)
	if err != nil {
		t.Fatalf("tick 101: %v", err)
	}
	mid := new(uint256.Int).Add(p100, p101)
	mid.Rsh(mid, 1)

	got, err := TickAtSqrtPrice(mid)
	if err != nil {
		t.Fatalf("mid price: %v", err)
	}
	if got != 100 {
		t.Fatalf("mid price maps to tick %d, want 100", got)
	}
}

func TestTickAtSqrtPriceOutOfRange(t *testing.T) {
	low := new(uint256.Int).SubUint64(MinSqrtRatio, 1)
	if _, err := TickAtSqrtPrice(low); !errors.Is(err, ErrPriceOutOfRange) {
		t.Fatalf("below min: got %v, want ErrPriceOutOfRange", err)
	}
	high := new(uint256.Int).AddUint64(MaxSqrtRatio, 1)
	if _, err := TickAtSqrtPrice(high); !errors.Is(err, ErrPriceOutOfRange) {
		t.Fatalf("above max: got %v, want ErrPriceOutOfRange", err)
	}
	if _, err := TickAtSqrtPrice(nil); !errors.Is(err, ErrPriceOutOfRange) {
		t.Fatalf("nil price: got %v, want ErrPriceOutOfRange", err)
	}
}
