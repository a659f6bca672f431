package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clpool/internal/tickmath"
)

func fundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit token balances to an account",
		RunE:  runFund,
	}
	cmd.Flags().String("account", "", "account address")
	cmd.Flags().String("amount0", "0", "token0 amount to credit")
	cmd.Flags().String("amount1", "0", "token1 amount to credit")
	return cmd
}

func runFund(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer a.logger.Sync()

	account, err := flagAddress(cmd, "account")
	if err != nil {
		return err
	}
	amount0, err := flagUint256(cmd, "amount0")
	if err != nil {
		return err
	}
	amount1, err := flagUint256(cmd, "amount1")
	if err != nil {
		return err
	}

	cfg := a.pool.Config()
	if err := a.vault.Credit(account, cfg.Token0, amount0); err != nil {
		return err
	}
	if err := a.vault.Credit(account, cfg.Token1, amount1); err != nil {
		return err
	}

	a.logger.Info("account funded",
		zap.String("account", account.Hex()),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()),
	)

	return a.save()
}

func mintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Add liquidity to a tick range",
		RunE:  runMint,
	}
	cmd.Flags().String("owner", "", "position owner address")
	cmd.Flags().Int32("tick-lower", 0, "lower tick (inclusive)")
	cmd.Flags().Int32("tick-upper", 0, "upper tick (exclusive)")
	cmd.Flags().String("amount", "0", "liquidity amount")
	cmd.Flags().String("max-amount0", "", "slippage cap on token0 (empty means unlimited)")
	cmd.Flags().String("max-amount1", "", "slippage cap on token1 (empty means unlimited)")
	return cmd
}

func runMint(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer a.logger.Sync()

	owner, err := flagAddress(cmd, "owner")
	if err != nil {
		return err
	}
	tickLower, _ := cmd.Flags().GetInt32("tick-lower")
	tickUpper, _ := cmd.Flags().GetInt32("tick-upper")
	amount, err := flagUint256(cmd, "amount")
	if err != nil {
		return err
	}

	var max0, max1 *uint256.Int
	if raw, _ := cmd.Flags().GetString("max-amount0"); raw != "" {
		if max0, err = uint256.FromDecimal(raw); err != nil {
			return fmt.Errorf("max-amount0: %w", err)
		}
	}
	if raw, _ := cmd.Flags().GetString("max-amount1"); raw != "" {
		if max1, err = uint256.FromDecimal(raw); err != nil {
			return fmt.Errorf("max-amount1: %w", err)
		}
	}

	a.approveAll(owner)

	amount0, amount1, err := a.pool.Mint(owner, tickLower, tickUpper, amount, max0, max1)
	if err != nil {
		return err
	}

	a.logger.Info("liquidity minted",
		zap.String("owner", owner.Hex()),
		zap.Int32("tick_lower", tickLower),
		zap.Int32("tick_upper", tickUpper),
		zap.String("liquidity", amount.Dec()),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()),
	)

	return a.save()
}

func burnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Remove liquidity from a tick range",
		RunE:  runBurn,
	}
	cmd.Flags().String("owner", "", "position owner address")
	cmd.Flags().Int32("tick-lower", 0, "lower tick (inclusive)")
	cmd.Flags().Int32("tick-upper", 0, "upper tick (exclusive)")
	cmd.Flags().String("amount", "0", "liquidity amount")
	return cmd
}

func runBurn(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer a.logger.Sync()

	owner, err := flagAddress(cmd, "owner")
	if err != nil {
		return err
	}
	tickLower, _ := cmd.Flags().GetInt32("tick-lower")
	tickUpper, _ := cmd.Flags().GetInt32("tick-upper")
	amount, err := flagUint256(cmd, "amount")
	if err != nil {
		return err
	}

	amount0, amount1, err := a.pool.Burn(owner, tickLower, tickUpper, amount)
	if err != nil {
		return err
	}

	a.logger.Info("liquidity burned",
		zap.String("owner", owner.Hex()),
		zap.Int32("tick_lower", tickLower),
		zap.Int32("tick_upper", tickUpper),
		zap.String("liquidity", amount.Dec()),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()),
	)

	return a.save()
}

func swapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one token for the other",
		RunE:  runSwap,
	}
	cmd.Flags().String("actor", "", "swapper address")
	cmd.Flags().Bool("zero-for-one", true, "swap token0 for token1 (price moves down)")
	cmd.Flags().String("amount", "0", "amount specified; positive means exact input, negative exact output")
	cmd.Flags().String("price-limit", "", "sqrt price limit in Q64.96 (empty means the pool bound)")
	return cmd
}

func runSwap(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer a.logger.Sync()

	actor, err := flagAddress(cmd, "actor")
	if err != nil {
		return err
	}
	zeroForOne, _ := cmd.Flags().GetBool("zero-for-one")

	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, ok := new(big.Int).SetString(rawAmount, 10)
	if !ok {
		return fmt.Errorf("invalid amount %q", rawAmount)
	}

	var limit *uint256.Int
	if raw, _ := cmd.Flags().GetString("price-limit"); raw != "" {
		if limit, err = uint256.FromDecimal(raw); err != nil {
			return fmt.Errorf("price-limit: %w", err)
		}
	} else if zeroForOne {
		limit = new(uint256.Int).AddUint64(tickmath.MinSqrtRatio, 1)
	} else {
		limit = new(uint256.Int).SubUint64(tickmath.MaxSqrtRatio, 1)
	}

	a.approveAll(actor)

	result, err := a.pool.Swap(actor, zeroForOne, amount, limit)
	if err != nil {
		return err
	}

	a.logger.Info("swap executed",
		zap.String("actor", actor.Hex()),
		zap.Bool("zero_for_one", zeroForOne),
		zap.String("amount_specified", amount.String()),
		zap.String("amount0", result.Amount0.String()),
		zap.String("amount1", result.Amount1.String()),
		zap.String("sqrt_price_x96", result.SqrtPriceX96.Dec()),
		zap.Int32("tick", result.Tick),
		zap.Int("ticks_crossed", len(result.TicksCrossed)),
	)

	return a.save()
}

// approveAll grants the pool the account's full balance in both tokens. The
// simulator owns the vault, so explicit approval bookkeeping adds nothing for
// CLI callers.
func (a *app) approveAll(account common.Address) {
	cfg := a.pool.Config()
	a.vault.Approve(account, cfg.Token0, a.vault.BalanceOf(account, cfg.Token0))
	a.vault.Approve(account, cfg.Token1, a.vault.BalanceOf(account, cfg.Token1))
}

func flagAddress(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	addr, err := parseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", name, err)
	}
	return addr, nil
}

func flagUint256(cmd *cobra.Command, name string) (*uint256.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	v, err := parseUint256(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
