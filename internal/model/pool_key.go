package model

// PoolKey identifies a pool on the pool manager: the sorted currency pair,
// the fee tier, its tick spacing, and the hooks contract (zero address for
// hookless pools).
type PoolKey struct {
	Currency0   string `json:"currency0"`
	Currency1   string `json:"currency1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Hooks       string `json:"hooks"`
}
