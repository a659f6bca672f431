// Package tickmath converts between discretized tick indexes and Q64.96
// square-root prices. price(tick) = 1.0001^tick, so the sqrt price at a tick
// is sqrt(1.0001)^tick scaled by 2^96.
package tickmath

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick any pool accepts.
	MinTick int32 = -887272
	// MaxTick is the highest tick any pool accepts.
	MaxTick int32 = -MinTick
)

// ErrPriceOutOfRange reports a tick or sqrt price outside the global bounds.
var ErrPriceOutOfRange = errors.New("price out of range")

var (
	// MinSqrtRatio is the sqrt price at MinTick.
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt price at MaxTick.
	MaxSqrtRatio = mustHex("0xfffd8963efd1fc6a506488495d951d5263988d26")

	maxUint256 = mustHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	q32        = uint256.NewInt(1 << 32)
	one        = uint256.NewInt(1)

	// Q128 multipliers for sqrt(1.0001)^(2^i), i = 1..19. The 2^0 factor is
	// handled separately because it is the only one with a distinct base value.
	mulFactors = []*uint256.Int{
		mustHex("0xfff97272373d413259a46990580e213a"),
		mustHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		mustHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		mustHex("0xffcb9843d60f6159c9db58835c926644"),
		mustHex("0xff973b41fa98c081472e6896dfb254c0"),
		mustHex("0xff2ea16466c96a3843ec78b326b52861"),
		mustHex("0xfe5dee046a99a2a811c461f1969c3053"),
		mustHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		mustHex("0xf987a7253ac413176f2b074cf7815e54"),
		mustHex("0xf3392b0822b70005940c7a398e4b70f3"),
		mustHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		mustHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		mustHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		mustHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		mustHex("0x31be135f97d08fd981231505542fcfa6"),
		mustHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		mustHex("0x5d6af8dedb81196699c329225ee604"),
		mustHex("0x2216e584f5fa1ea926041bedfe98"),
		mustHex("0x48a170391f7dc42444e8fa2"),
	}
	ratioOdd  = mustHex("0xfffcb933bd6fad37aa2d162d1a594001")
	ratioEven = mustHex("0x100000000000000000000000000000000")
)

func mustHex(s string) *uint256.Int {
	v, err := uint256.FromHex(s)
	if err != nil {
		panic(err)
	}
	return v
}

// SqrtPriceAtTick returns the Q64.96 sqrt price for a tick. The result is
// strictly increasing in the tick.
func SqrtPriceAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d: %w", tick, ErrPriceOutOfRange)
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(ratioOdd)
	} else {
		ratio.Set(ratioEven)
	}
	for i, factor := range mulFactors {
		if absTick&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Round the Q128.128 intermediate up to Q64.96 so the inverse mapping at
	// the exact boundary stays consistent.
	rem := new(uint256.Int).Mod(ratio, q32)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.Add(ratio, one)
	}
	return ratio, nil
}

// TickAtSqrtPrice returns the greatest tick whose sqrt price is at most the
// given value. The search over the monotonic forward map keeps the result
// exactly consistent with SqrtPriceAtTick.
func TickAtSqrtPrice(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Lt(MinSqrtRatio) || sqrtPriceX96.Gt(MaxSqrtRatio) {
		return 0, fmt.Errorf("sqrt price %s: %w", sqrtPriceX96, ErrPriceOutOfRange)
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		price, err := SqrtPriceAtTick(mid)
		if err != nil {
			return 0, err
		}
		if price.Gt(sqrtPriceX96) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo, nil
}
