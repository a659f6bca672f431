package custody

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	token0 = common.HexToAddress("0x0000000000000000000000000000000000000001")
	token1 = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestDebitConsumesBalanceAndAllowance(t *testing.T) {
	v := NewVault()
	v.SetBalance(alice, token0, uint256.NewInt(100))
	v.Approve(alice, token0, uint256.NewInt(60))

	if err := v.Debit(alice, token0, uint256.NewInt(40)); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if got := v.BalanceOf(alice, token0); !got.Eq(uint256.NewInt(60)) {
		t.Fatalf("balance: got %s, want 60", got.Dec())
	}

	// Remaining allowance is 20; a 30 debit must fail on allowance.
	err := v.Debit(alice, token0, uint256.NewInt(30))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("got %v, want ErrInsufficientAllowance", err)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	v := NewVault()
	v.SetBalance(alice, token0, uint256.NewInt(10))
	v.Approve(alice, token0, uint256.NewInt(1000))

	err := v.Debit(alice, token0, uint256.NewInt(11))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	if got := v.BalanceOf(alice, token0); !got.Eq(uint256.NewInt(10)) {
		t.Fatalf("failed debit mutated balance: %s", got.Dec())
	}
}

func TestCreditAccumulates(t *testing.T) {
	v := NewVault()
	if err := v.Credit(alice, token1, uint256.NewInt(5)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := v.Credit(alice, token1, uint256.NewInt(7)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := v.BalanceOf(alice, token1); !got.Eq(uint256.NewInt(12)) {
		t.Fatalf("balance: got %s, want 12", got.Dec())
	}
}

func TestZeroAmountIsNoop(t *testing.T) {
	v := NewVault()
	if err := v.Debit(alice, token0, new(uint256.Int)); err != nil {
		t.Fatalf("zero debit should succeed: %v", err)
	}
}

func TestEachBalanceSkipsZero(t *testing.T) {
	v := NewVault()
	v.SetBalance(alice, token0, uint256.NewInt(3))
	v.SetBalance(alice, token1, new(uint256.Int))

	var seen int
	v.EachBalance(func(account, token common.Address, amount *uint256.Int) {
		seen++
		if account != alice || token != token0 || !amount.Eq(uint256.NewInt(3)) {
			t.Fatalf("unexpected entry: %s %s %s", account.Hex(), token.Hex(), amount.Dec())
		}
	})
	if seen != 1 {
		t.Fatalf("expected 1 entry, saw %d", seen)
	}
}
