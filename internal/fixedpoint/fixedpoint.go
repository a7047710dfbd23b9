// Package fixedpoint defines the tagged wide-integer value types shared by
// the price, tick, and liquidity math: Q64.96 square-root prices, 18-decimal
// prices, and 128-bit liquidity scalars. Each type validates its range at
// construction so that scale mismatches fail at the boundary instead of
// corrupting downstream arithmetic.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrDivisionByZero      = errors.New("division by zero")
	ErrInvalidRange        = errors.New("invalid price range")
	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("sqrt price out of range")
	ErrZeroPrice           = errors.New("price must be positive")
	ErrLiquidityOverflow   = errors.New("liquidity exceeds uint128")
)

const (
	// MinTick and MaxTick bound the usable tick range of the protocol.
	MinTick int32 = -887272
	MaxTick int32 = 887272

	// SqrtPriceBits is the number of fractional bits in a SqrtPriceX96.
	SqrtPriceBits = 96

	// PriceDecimals is the decimal scale of a Price.
	PriceDecimals = 18
)

var (
	Q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)

	// Wad is the Price scale factor, 10^18. SqrtWad is its square root,
	// the scale a floor square root of a wad-scaled value carries.
	Wad     = new(big.Int).Exp(big.NewInt(10), big.NewInt(PriceDecimals), nil)
	SqrtWad = new(big.Int).Exp(big.NewInt(10), big.NewInt(PriceDecimals/2), nil)

	// MinSqrtPrice and MaxSqrtPrice are the sqrt prices at MinTick and
	// MaxTick respectively.
	MinSqrtPrice = big.NewInt(4295128739)
	MaxSqrtPrice = mustBig("1461446703485210103287273052203988822378723970342")

	MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	MaxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("invalid big integer literal %q", s))
	}
	return n
}

// SqrtPriceX96 is sqrt(amount1/amount0) scaled by 2^96, the fixed-point
// square-root price representation used by the pool manager. The magnitude
// always fits in 160 bits.
type SqrtPriceX96 struct {
	x *big.Int
}

// NewSqrtPriceX96 validates that x is a non-negative value below 2^160.
func NewSqrtPriceX96(x *big.Int) (SqrtPriceX96, error) {
	if x == nil || x.Sign() < 0 || x.Cmp(MaxUint160) > 0 {
		return SqrtPriceX96{}, fmt.Errorf("%w: %v", ErrSqrtPriceOutOfRange, x)
	}
	return SqrtPriceX96{x: new(big.Int).Set(x)}, nil
}

// MustSqrtPriceX96 is NewSqrtPriceX96 for values known to be in range.
func MustSqrtPriceX96(x *big.Int) SqrtPriceX96 {
	p, err := NewSqrtPriceX96(x)
	if err != nil {
		panic(err)
	}
	return p
}

// Big returns a copy of the underlying integer.
func (p SqrtPriceX96) Big() *big.Int {
	if p.x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(p.x)
}

func (p SqrtPriceX96) IsZero() bool {
	return p.x == nil || p.x.Sign() == 0
}

func (p SqrtPriceX96) Cmp(other SqrtPriceX96) int {
	return p.Big().Cmp(other.Big())
}

func (p SqrtPriceX96) String() string {
	return p.Big().String()
}

// Price is an unsigned fixed-point decimal with 18 fractional digits
// representing amount1/amount0 in raw token units.
type Price struct {
	raw *big.Int
}

// NewPrice validates that raw is non-negative.
func NewPrice(raw *big.Int) (Price, error) {
	if raw == nil || raw.Sign() < 0 {
		return Price{}, fmt.Errorf("price must be non-negative, got %v", raw)
	}
	return Price{raw: new(big.Int).Set(raw)}, nil
}

// MustPrice is NewPrice for values known to be valid.
func MustPrice(raw *big.Int) Price {
	p, err := NewPrice(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Raw returns a copy of the wad-scaled integer representation.
func (p Price) Raw() *big.Int {
	if p.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(p.raw)
}

func (p Price) IsZero() bool {
	return p.raw == nil || p.raw.Sign() == 0
}

func (p Price) String() string {
	raw := p.Raw()
	quo, rem := new(big.Int).QuoRem(raw, Wad, new(big.Int))
	return fmt.Sprintf("%s.%018s", quo, rem)
}

// Liquidity is the unsigned 128-bit virtual liquidity scalar of a position.
// Zero liquidity represents no position.
type Liquidity struct {
	x *big.Int
}

// NewLiquidity validates that x fits in an unsigned 128-bit integer.
func NewLiquidity(x *big.Int) (Liquidity, error) {
	if x == nil || x.Sign() < 0 || x.Cmp(MaxUint128) > 0 {
		return Liquidity{}, fmt.Errorf("%w: %v", ErrLiquidityOverflow, x)
	}
	return Liquidity{x: new(big.Int).Set(x)}, nil
}

// MustLiquidity is NewLiquidity for values known to be in range.
func MustLiquidity(x *big.Int) Liquidity {
	l, err := NewLiquidity(x)
	if err != nil {
		panic(err)
	}
	return l
}

// Big returns a copy of the underlying integer.
func (l Liquidity) Big() *big.Int {
	if l.x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(l.x)
}

func (l Liquidity) IsZero() bool {
	return l.x == nil || l.x.Sign() == 0
}

func (l Liquidity) String() string {
	return l.Big().String()
}

// MulDiv computes floor(a*b/denom) with an arbitrary-width intermediate, so
// products of two 160-bit operands never overflow before the division.
func MulDiv(a, b, denom *big.Int) (*big.Int, error) {
	if denom == nil || denom.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, denom), nil
}

// Sqrt returns floor(sqrt(x)). Floor rounding matches the protocol's own
// rounding-down convention for square-root prices.
func Sqrt(x *big.Int) *big.Int {
	return new(big.Int).Sqrt(x)
}
