package position

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clpool/internal/fullmath"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func TestAddRemove(t *testing.T) {
	s := NewStore()
	key := Key{Owner: owner, TickLower: -100, TickUpper: 100}

	if err := s.Add(key, uint256.NewInt(500)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(key, uint256.NewInt(250)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := s.Get(key).Liquidity; !got.Eq(uint256.NewInt(750)) {
		t.Fatalf("liquidity: got %s, want 750", got.Dec())
	}

	if err := s.Remove(key, uint256.NewInt(750)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := s.Get(key).Liquidity; !got.IsZero() {
		t.Fatalf("liquidity after full removal: got %s", got.Dec())
	}
}

func TestRemoveTooMuch(t *testing.T) {
	s := NewStore()
	key := Key{Owner: owner, TickLower: 0, TickUpper: 60}
	if err := s.Add(key, uint256.NewInt(10)); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := s.Remove(key, uint256.NewInt(11))
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("got %v, want ErrInsufficientLiquidity", err)
	}

	// Removing from an unknown range behaves the same as an empty position.
	err = s.Remove(Key{Owner: owner, TickLower: 60, TickUpper: 120}, uint256.NewInt(1))
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("unknown key: got %v, want ErrInsufficientLiquidity", err)
	}
}

func TestAddOverflowsUint128(t *testing.T) {
	s := NewStore()
	key := Key{Owner: owner, TickLower: 0, TickUpper: 60}
	max128 := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

	if err := s.Add(key, max128); err != nil {
		t.Fatalf("add max: %v", err)
	}
	if err := s.Add(key, uint256.NewInt(1)); !errors.Is(err, fullmath.ErrOverflow) {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
}

func TestGetAbsentIsZero(t *testing.T) {
	s := NewStore()
	info := s.Get(Key{Owner: owner, TickLower: 1, TickUpper: 2})
	if !info.Liquidity.IsZero() || !info.TokensOwed0.IsZero() || !info.TokensOwed1.IsZero() {
		t.Fatalf("absent position not zero: %+v", info)
	}
}
