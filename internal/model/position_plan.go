package model

// PositionPlan is a computed liquidity position ready to be minted: the
// aligned tick window, the liquidity the amount budget funds, and the
// amounts that liquidity actually occupies. Wide integers are carried as
// decimal strings for storage.
type PositionPlan struct {
	ChainID      uint64  `json:"chain_id,omitempty"`
	Pool         PoolKey `json:"pool"`
	SqrtPriceX96 string  `json:"sqrt_price_x96"`
	CurrentTick  int32   `json:"current_tick"`
	TickLower    int32   `json:"tick_lower"`
	TickUpper    int32   `json:"tick_upper"`
	Liquidity    string  `json:"liquidity"`
	Amount0      string  `json:"amount0"`
	Amount1      string  `json:"amount1"`
	Amount0Max   string  `json:"amount0_max"`
	Amount1Max   string  `json:"amount1_max"`
	Recipient    string  `json:"recipient,omitempty"`
	CreatedAt    string  `json:"created_at"`
}
