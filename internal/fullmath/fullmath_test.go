package fullmath

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestMulDiv(t *testing.T) {
	cases := []struct {
		a, b, denom, want uint64
	}{
		{6, 7, 2, 21},
		{10, 10, 3, 33},
		{0, 5, 7, 0},
		{1, 1, 1, 1},
	}
	for _, tc := range cases {
		got, err := MulDiv(uint256.NewInt(tc.a), uint256.NewInt(tc.b), uint256.NewInt(tc.denom))
		if err != nil {
			t.Fatalf("%d*%d/%d: unexpected error: %v", tc.a, tc.b, tc.denom, err)
		}
		if !got.Eq(uint256.NewInt(tc.want)) {
			t.Fatalf("%d*%d/%d: got %s, want %d", tc.a, tc.b, tc.denom, got.Dec(), tc.want)
		}
	}
}

func TestMulDivIntermediateOverflow(t *testing.T) {
	// (2^255)^2 / 2^255 = 2^255 fits even though the product does not.
	big := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	got, err := MulDiv(big, big, big)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(big) {
		t.Fatalf("got %s, want 2^255", got.Dec())
	}
}

func TestMulDivOverflow(t *testing.T) {
	big := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	if _, err := MulDiv(big, big, uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
	if _, err := MulDiv(big, big, new(uint256.Int)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("zero denominator: got %v, want ErrOverflow", err)
	}
}

func TestMulDivRoundingUp(t *testing.T) {
	got, err := MulDivRoundingUp(uint256.NewInt(10), uint256.NewInt(10), uint256.NewInt(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(uint256.NewInt(34)) {
		t.Fatalf("got %s, want 34", got.Dec())
	}

	// Exact division must not round.
	got, err = MulDivRoundingUp(uint256.NewInt(10), uint256.NewInt(9), uint256.NewInt(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(uint256.NewInt(30)) {
		t.Fatalf("got %s, want 30", got.Dec())
	}
}

func TestDivRoundingUp(t *testing.T) {
	got, err := DivRoundingUp(uint256.NewInt(7), uint256.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(uint256.NewInt(4)) {
		t.Fatalf("got %s, want 4", got.Dec())
	}
	if _, err := DivRoundingUp(uint256.NewInt(7), new(uint256.Int)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("zero denominator: got %v, want ErrOverflow", err)
	}
}
