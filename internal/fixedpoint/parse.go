package fixedpoint

import (
	"fmt"
	"math/big"
	"strings"
)

// ParsePrice parses a decimal string such as "1.5" into a wad-scaled Price,
// truncating digits beyond the 18th decimal.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Price{}, fmt.Errorf("invalid price %q", s)
	}
	if r.Sign() < 0 {
		return Price{}, fmt.Errorf("price must be non-negative, got %q", s)
	}
	raw := new(big.Int).Mul(r.Num(), Wad)
	raw.Quo(raw, r.Denom())
	return NewPrice(raw)
}
