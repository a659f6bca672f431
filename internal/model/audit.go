package model

// Audit record kinds.
const (
	AuditMint = "mint"
	AuditBurn = "burn"
	AuditSwap = "swap"
)

// AuditRecord is the structured trace of one successful pool operation.
// Amounts are decimal strings; swap amounts are signed with positive meaning
// the actor owed the pool.
type AuditRecord struct {
	Kind            string  `json:"kind"`
	Actor           string  `json:"actor"`
	TickLower       *int32  `json:"tick_lower,omitempty"`
	TickUpper       *int32  `json:"tick_upper,omitempty"`
	ZeroForOne      *bool   `json:"zero_for_one,omitempty"`
	AmountSpecified string  `json:"amount_specified,omitempty"`
	Amount0         string  `json:"amount0"`
	Amount1         string  `json:"amount1"`
	LiquidityDelta  string  `json:"liquidity_delta,omitempty"`
	SqrtPriceBefore string  `json:"sqrt_price_before"`
	SqrtPriceAfter  string  `json:"sqrt_price_after"`
	TickBefore      int32   `json:"tick_before"`
	TickAfter       int32   `json:"tick_after"`
	LiquidityBefore string  `json:"liquidity_before"`
	LiquidityAfter  string  `json:"liquidity_after"`
	TicksCrossed    []int32 `json:"ticks_crossed,omitempty"`
	Timestamp       string  `json:"timestamp"`
}
