package model

// TokenMeta captures the ERC20 metadata the decimal-aware price conversions
// need.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
