package model

import "time"

// WindowMetrics summarizes pool activity over one time window. Volumes are
// decimal strings in raw token units; fees are estimated from the pool fee
// rate applied to the input side of each swap.
type WindowMetrics struct {
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	SwapCount    uint64    `json:"swap_count"`
	MintCount    uint64    `json:"mint_count"`
	BurnCount    uint64    `json:"burn_count"`
	Volume0      string    `json:"volume0"`
	Volume1      string    `json:"volume1"`
	Fee0         string    `json:"fee0"`
	Fee1         string    `json:"fee1"`
	TicksCrossed uint64    `json:"ticks_crossed"`
}
