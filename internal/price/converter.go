// Package price converts between wad-scaled prices and Q64.96 square-root
// prices. The conversions floor in both directions, so a round trip is
// approximate by construction: the recovered price is close to, and never
// systematically above, the original.
package price

import (
	"fmt"
	"math/big"

	"rangekit/internal/fixedpoint"
)

// ToSqrtPriceX96 converts a wad-scaled price into its Q64.96 square root.
// The square root is floored first, then rescaled from the 10^9 scale it
// carries into the binary fixed point: shift left by 96, divide by 10^9.
// Shifting before dividing keeps the low-order bits that a division-first
// order would truncate away.
func ToSqrtPriceX96(p fixedpoint.Price) (fixedpoint.SqrtPriceX96, error) {
	raw := p.Raw()
	if raw.Sign() == 0 {
		return fixedpoint.SqrtPriceX96{}, fixedpoint.ErrZeroPrice
	}
	root := fixedpoint.Sqrt(raw)
	root.Lsh(root, fixedpoint.SqrtPriceBits)
	root.Quo(root, fixedpoint.SqrtWad)
	return fixedpoint.NewSqrtPriceX96(root)
}

// FromSqrtPriceX96 converts a Q64.96 square-root price back into a
// wad-scaled price: rescale into the 10^9 decimal base, drop the fractional
// bits, then square. Not an exact inverse of ToSqrtPriceX96; both
// directions truncate.
func FromSqrtPriceX96(sqrtPrice fixedpoint.SqrtPriceX96) (fixedpoint.Price, error) {
	root := sqrtPrice.Big()
	root.Mul(root, fixedpoint.SqrtWad)
	root.Rsh(root, fixedpoint.SqrtPriceBits)
	root.Mul(root, root)
	return fixedpoint.NewPrice(root)
}

// RatioToSqrtPriceX96 derives the square-root price of the raw amount ratio
// amount1/amount0.
func RatioToSqrtPriceX96(amount0, amount1 *big.Int) (fixedpoint.SqrtPriceX96, error) {
	if amount0 == nil || amount0.Sign() == 0 {
		return fixedpoint.SqrtPriceX96{}, fmt.Errorf("%w: amount0 is zero", fixedpoint.ErrDivisionByZero)
	}
	if amount1 == nil || amount1.Sign() < 0 || amount0.Sign() < 0 {
		return fixedpoint.SqrtPriceX96{}, fmt.Errorf("amounts must be non-negative")
	}
	raw := new(big.Int).Mul(amount1, fixedpoint.Wad)
	raw.Quo(raw, amount0)
	p, err := fixedpoint.NewPrice(raw)
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, err
	}
	return ToSqrtPriceX96(p)
}

// WithDecimalsToSqrtPriceX96 rescales a human price quoted with the tokens'
// display decimals into the raw-amount ratio the pool works with, then
// converts. The pool defines price purely over raw amounts, so a pair whose
// tokens report different decimals needs the 10^(decimals1-decimals0)
// correction before the price means anything on chain.
func WithDecimalsToSqrtPriceX96(p fixedpoint.Price, decimals0, decimals1 uint8) (fixedpoint.SqrtPriceX96, error) {
	raw := p.Raw()
	if decimals1 >= decimals0 {
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals1-decimals0)), nil)
		raw.Mul(raw, shift)
	} else {
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals0-decimals1)), nil)
		raw.Quo(raw, shift)
	}
	adjusted, err := fixedpoint.NewPrice(raw)
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, err
	}
	return ToSqrtPriceX96(adjusted)
}

// ReferencePrices returns the square-root prices for the 1:1, 2:1, and 1:2
// ratios. The 1:1 value is exactly 2^96.
func ReferencePrices() (one, double, half fixedpoint.SqrtPriceX96) {
	one = mustConvert(fixedpoint.Wad)
	double = mustConvert(new(big.Int).Mul(fixedpoint.Wad, big.NewInt(2)))
	half = mustConvert(new(big.Int).Quo(fixedpoint.Wad, big.NewInt(2)))
	return one, double, half
}

func mustConvert(raw *big.Int) fixedpoint.SqrtPriceX96 {
	sqrtPrice, err := ToSqrtPriceX96(fixedpoint.MustPrice(raw))
	if err != nil {
		panic(err)
	}
	return sqrtPrice
}
