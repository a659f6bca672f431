package model

// Snapshot serializes the full pool for persistence. Unsigned amounts are
// decimal strings; tick net liquidity is a signed decimal string.
type Snapshot struct {
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	FeePips      uint32 `json:"fee_pips"`
	SearchWindow int32  `json:"search_window"`
	ResetTicks   bool   `json:"reset_ticks_on_empty"`

	SqrtPriceX96         string `json:"sqrt_price_x96"`
	Tick                 int32  `json:"tick"`
	Liquidity            string `json:"liquidity"`
	FeeGrowthGlobal0X128 string `json:"fee_growth_global0_x128"`
	FeeGrowthGlobal1X128 string `json:"fee_growth_global1_x128"`

	Ticks     []TickSnapshot     `json:"ticks"`
	Positions []PositionSnapshot `json:"positions"`
	Accounts  []AccountSnapshot  `json:"accounts"`

	UpdatedAt string `json:"updated_at"`
}

// TickSnapshot is one tick-ledger entry.
type TickSnapshot struct {
	Tick           int32  `json:"tick"`
	LiquidityGross string `json:"liquidity_gross"`
	LiquidityNet   string `json:"liquidity_net"`
	Initialized    bool   `json:"initialized"`
}

// PositionSnapshot is one range position.
type PositionSnapshot struct {
	Owner       string `json:"owner"`
	TickLower   int32  `json:"tick_lower"`
	TickUpper   int32  `json:"tick_upper"`
	Liquidity   string `json:"liquidity"`
	TokensOwed0 string `json:"tokens_owed0"`
	TokensOwed1 string `json:"tokens_owed1"`
}

// AccountSnapshot is one account's token and share balances.
type AccountSnapshot struct {
	Address  string `json:"address"`
	Balance0 string `json:"balance0"`
	Balance1 string `json:"balance1"`
	Shares   string `json:"shares"`
}
