// Package pool implements the concentrated-liquidity pool engine: a single
// global pool whose price moves across discretized ticks as traders swap
// against range-bounded liquidity.
package pool

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"clpool/internal/model"
	"clpool/internal/position"
	"clpool/internal/tickmath"
	"clpool/internal/ticks"
)

var (
	// ErrValidation reports malformed operation inputs: bad tick ranges,
	// zero amounts, or an invalid price limit.
	ErrValidation = errors.New("validation error")
	// ErrSlippageExceeded reports a mint whose cost exceeds the caller's maxima.
	ErrSlippageExceeded = errors.New("slippage exceeded")
	// ErrReentrancy reports a call made while another operation is in progress.
	ErrReentrancy = errors.New("operation in progress")
	// ErrInsufficientLiquidity reports a burn exceeding the caller's position.
	ErrInsufficientLiquidity = position.ErrInsufficientLiquidity
)

var maxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// Custody moves token amounts between accounts and the pool.
type Custody interface {
	Debit(account, token common.Address, amount *uint256.Int) error
	Credit(account, token common.Address, amount *uint256.Int) error
}

// ShareLedger accounts liquidity shares, one unit per unit of liquidity.
type ShareLedger interface {
	Mint(owner common.Address, amount *uint256.Int) error
	Burn(owner common.Address, amount *uint256.Int) error
	BalanceOf(owner common.Address) *uint256.Int
}

// AuditSink receives a structured record after each successful operation.
type AuditSink interface {
	Record(record model.AuditRecord) error
}

// Config holds the immutable pool parameters.
type Config struct {
	Token0 common.Address
	Token1 common.Address

	// FeePips is the swap fee in parts per million. Defaults to 3000 (0.30%).
	FeePips uint32

	// SearchWindow bounds the tick scan per swap step. Defaults to 1024.
	SearchWindow int32

	// ResetTickOnEmpty clears a tick's initialized flag when its gross
	// liquidity returns to zero.
	ResetTickOnEmpty bool
}

func (c *Config) applyDefaults() {
	if c.FeePips == 0 {
		c.FeePips = 3000
	}
	if c.SearchWindow == 0 {
		c.SearchWindow = 1024
	}
}

type state struct {
	liquidity            *uint256.Int
	sqrtPriceX96         *uint256.Int
	tick                 int32
	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int
}

func (s state) clone() state {
	return state{
		liquidity:            s.liquidity.Clone(),
		sqrtPriceX96:         s.sqrtPriceX96.Clone(),
		tick:                 s.tick,
		feeGrowthGlobal0X128: s.feeGrowthGlobal0X128.Clone(),
		feeGrowthGlobal1X128: s.feeGrowthGlobal1X128.Clone(),
	}
}

// Pool is the engine. Every operation runs to completion atomically; a call
// arriving while one is in progress (including reentrant calls from custody
// callbacks) is rejected with ErrReentrancy.
type Pool struct {
	cfg       Config
	custody   Custody
	shares    ShareLedger
	audit     AuditSink
	logger    *zap.Logger
	ticks     *ticks.Ledger
	positions *position.Store
	state     state
	inFlight  atomic.Bool
}

// New builds a pool at the given starting sqrt price.
func New(cfg Config, sqrtPriceX96 *uint256.Int, custody Custody, shareLedger ShareLedger, audit AuditSink, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	if cfg.FeePips >= 1_000_000 {
		return nil, fmt.Errorf("fee %d pips: %w", cfg.FeePips, ErrValidation)
	}
	if custody == nil {
		return nil, fmt.Errorf("custody is required: %w", ErrValidation)
	}
	if shareLedger == nil {
		return nil, fmt.Errorf("share ledger is required: %w", ErrValidation)
	}

	tick, err := tickmath.TickAtSqrtPrice(sqrtPriceX96)
	if err != nil {
		return nil, err
	}

	return &Pool{
		cfg:       cfg,
		custody:   custody,
		shares:    shareLedger,
		audit:     audit,
		logger:    logger,
		ticks:     ticks.NewLedger(cfg.ResetTickOnEmpty),
		positions: position.NewStore(),
		state: state{
			liquidity:            new(uint256.Int),
			sqrtPriceX96:         sqrtPriceX96.Clone(),
			tick:                 tick,
			feeGrowthGlobal0X128: new(uint256.Int),
			feeGrowthGlobal1X128: new(uint256.Int),
		},
	}, nil
}

// StateView is a read-only copy of the global pool state.
type StateView struct {
	Liquidity            *uint256.Int
	SqrtPriceX96         *uint256.Int
	Tick                 int32
	FeeGrowthGlobal0X128 *uint256.Int
	FeeGrowthGlobal1X128 *uint256.Int
}

// State returns the current global state.
func (p *Pool) State() StateView {
	s := p.state.clone()
	return StateView{
		Liquidity:            s.liquidity,
		SqrtPriceX96:         s.sqrtPriceX96,
		Tick:                 s.tick,
		FeeGrowthGlobal0X128: s.feeGrowthGlobal0X128,
		FeeGrowthGlobal1X128: s.feeGrowthGlobal1X128,
	}
}

// Position returns the caller-visible view of one range position.
func (p *Pool) Position(owner common.Address, tickLower, tickUpper int32) position.Info {
	return p.positions.Get(position.Key{Owner: owner, TickLower: tickLower, TickUpper: tickUpper})
}

// Config returns the pool parameters.
func (p *Pool) Config() Config {
	return p.cfg
}

func (p *Pool) acquire() error {
	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrReentrancy
	}
	return nil
}

func (p *Pool) release() {
	p.inFlight.Store(false)
}

func checkTicks(tickLower, tickUpper int32) error {
	if tickLower >= tickUpper {
		return fmt.Errorf("tick range [%d, %d): %w", tickLower, tickUpper, ErrValidation)
	}
	if tickLower < tickmath.MinTick || tickUpper > tickmath.MaxTick {
		return fmt.Errorf("tick range [%d, %d) outside bounds: %w", tickLower, tickUpper, ErrValidation)
	}
	return nil
}

func (p *Pool) emitAudit(record model.AuditRecord) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Record(record); err != nil {
		p.logger.Warn("audit record", zap.String("kind", record.Kind), zap.Error(err))
	}
}

func auditTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
