package pool

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"clpool/internal/model"
	"clpool/internal/position"
	"clpool/internal/ticks"
)

// Snapshot serializes the pool's state, tick ledger, and positions. Account
// balances belong to the collaborators and are filled in by the caller.
func (p *Pool) Snapshot() model.Snapshot {
	snap := model.Snapshot{
		Token0:               p.cfg.Token0.Hex(),
		Token1:               p.cfg.Token1.Hex(),
		FeePips:              p.cfg.FeePips,
		SearchWindow:         p.cfg.SearchWindow,
		ResetTicks:           p.cfg.ResetTickOnEmpty,
		SqrtPriceX96:         p.state.sqrtPriceX96.Dec(),
		Tick:                 p.state.tick,
		Liquidity:            p.state.liquidity.Dec(),
		FeeGrowthGlobal0X128: p.state.feeGrowthGlobal0X128.Dec(),
		FeeGrowthGlobal1X128: p.state.feeGrowthGlobal1X128.Dec(),
	}

	p.ticks.Each(func(tick int32, info ticks.Info) {
		snap.Ticks = append(snap.Ticks, model.TickSnapshot{
			Tick:           tick,
			LiquidityGross: info.LiquidityGross.Dec(),
			LiquidityNet:   info.NetBig().String(),
			Initialized:    info.Initialized,
		})
	})
	sort.Slice(snap.Ticks, func(i, j int) bool { return snap.Ticks[i].Tick < snap.Ticks[j].Tick })

	p.positions.Each(func(key position.Key, info position.Info) {
		snap.Positions = append(snap.Positions, model.PositionSnapshot{
			Owner:       key.Owner.Hex(),
			TickLower:   key.TickLower,
			TickUpper:   key.TickUpper,
			Liquidity:   info.Liquidity.Dec(),
			TokensOwed0: info.TokensOwed0.Dec(),
			TokensOwed1: info.TokensOwed1.Dec(),
		})
	})
	sort.Slice(snap.Positions, func(i, j int) bool {
		a, b := snap.Positions[i], snap.Positions[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.TickLower != b.TickLower {
			return a.TickLower < b.TickLower
		}
		return a.TickUpper < b.TickUpper
	})

	return snap
}

// FromSnapshot rebuilds a pool from a serialized state. Collaborator account
// balances are outside the pool and must be restored by the caller.
func FromSnapshot(snap model.Snapshot, custody Custody, shareLedger ShareLedger, audit AuditSink, logger *zap.Logger) (*Pool, error) {
	sqrtPrice, err := parseAmount(snap.SqrtPriceX96, "sqrt price")
	if err != nil {
		return nil, err
	}

	cfg := Config{
		Token0:           common.HexToAddress(snap.Token0),
		Token1:           common.HexToAddress(snap.Token1),
		FeePips:          snap.FeePips,
		SearchWindow:     snap.SearchWindow,
		ResetTickOnEmpty: snap.ResetTicks,
	}
	p, err := New(cfg, sqrtPrice, custody, shareLedger, audit, logger)
	if err != nil {
		return nil, err
	}

	p.state.tick = snap.Tick
	if p.state.liquidity, err = parseAmount(snap.Liquidity, "liquidity"); err != nil {
		return nil, err
	}
	if p.state.feeGrowthGlobal0X128, err = parseAmount(snap.FeeGrowthGlobal0X128, "fee growth global0"); err != nil {
		return nil, err
	}
	if p.state.feeGrowthGlobal1X128, err = parseAmount(snap.FeeGrowthGlobal1X128, "fee growth global1"); err != nil {
		return nil, err
	}

	for _, entry := range snap.Ticks {
		gross, err := parseAmount(entry.LiquidityGross, "tick gross")
		if err != nil {
			return nil, err
		}
		netBig, ok := new(big.Int).SetString(entry.LiquidityNet, 10)
		if !ok {
			return nil, fmt.Errorf("tick %d net %q: %w", entry.Tick, entry.LiquidityNet, ErrValidation)
		}
		net, err := ticks.SignedFromBig(netBig)
		if err != nil {
			return nil, err
		}
		p.ticks.Restore(entry.Tick, gross, net, entry.Initialized)
	}

	for _, entry := range snap.Positions {
		liq, err := parseAmount(entry.Liquidity, "position liquidity")
		if err != nil {
			return nil, err
		}
		owed0, err := parseAmount(entry.TokensOwed0, "tokens owed0")
		if err != nil {
			return nil, err
		}
		owed1, err := parseAmount(entry.TokensOwed1, "tokens owed1")
		if err != nil {
			return nil, err
		}
		key := position.Key{
			Owner:     common.HexToAddress(entry.Owner),
			TickLower: entry.TickLower,
			TickUpper: entry.TickUpper,
		}
		p.positions.Restore(key, position.Info{
			Liquidity:   liq,
			TokensOwed0: owed0,
			TokensOwed1: owed1,
		})
	}

	return p, nil
}

func parseAmount(s, field string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}
