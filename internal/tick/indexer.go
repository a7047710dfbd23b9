// Package tick maps square-root prices onto the discretized tick grid and
// builds spacing-aligned tick windows for position boundaries.
package tick

import (
	"fmt"
	"math/big"

	"rangekit/internal/fixedpoint"
)

// Oracle is the canonical tick-math source. Implementations must be
// bit-exact with the deployed protocol; the indexer delegates and never
// re-derives these mappings.
type Oracle interface {
	SqrtPriceAtTick(tick int32) (fixedpoint.SqrtPriceX96, error)
	TickAtSqrtPrice(sqrtPrice fixedpoint.SqrtPriceX96) (int32, error)
}

// Indexer exposes exact tick conversions through an Oracle.
type Indexer struct {
	oracle Oracle
}

func NewIndexer(oracle Oracle) *Indexer {
	return &Indexer{oracle: oracle}
}

// SqrtPriceAtTick returns the exact sqrt price at a tick boundary.
func (ix *Indexer) SqrtPriceAtTick(tick int32) (fixedpoint.SqrtPriceX96, error) {
	if ix.oracle == nil {
		return fixedpoint.SqrtPriceX96{}, fmt.Errorf("tick oracle is nil")
	}
	return ix.oracle.SqrtPriceAtTick(tick)
}

// TickAtSqrtPrice returns the exact tick for a sqrt price.
func (ix *Indexer) TickAtSqrtPrice(sqrtPrice fixedpoint.SqrtPriceX96) (int32, error) {
	if ix.oracle == nil {
		return 0, fmt.Errorf("tick oracle is nil")
	}
	return ix.oracle.TickAtSqrtPrice(sqrtPrice)
}

// log2TickBaseQ32 is floor(log2(1.0001) * 2^32), the tick width in Q32
// binary logarithm units.
const log2TickBaseQ32 = 619601

// exactTicks short-circuits a handful of common ratios whose truncated
// logarithm would land one tick off.
var exactTicks = []struct {
	raw  *big.Int
	tick int32
}{
	{raw: wadRatio(1, 1), tick: 0},
	{raw: wadRatio(2, 1), tick: 6931},
	{raw: wadRatio(1, 2), tick: -6931},
	{raw: wadRatio(3, 2), tick: 4055},
	{raw: wadRatio(3, 4), tick: -2877},
}

func wadRatio(num, den int64) *big.Int {
	r := new(big.Int).Mul(fixedpoint.Wad, big.NewInt(num))
	return r.Quo(r, big.NewInt(den))
}

// ApproxTickAtPrice estimates the tick for a wad-scaled price using an
// integer base-2 logarithm, truncated toward zero and clamped into the
// valid tick range. The estimate can differ from the oracle answer by a
// tick or two; callers that need the exact boundary must go through the
// Indexer instead.
func ApproxTickAtPrice(p fixedpoint.Price) (int32, error) {
	raw := p.Raw()
	if raw.Sign() == 0 {
		return 0, fixedpoint.ErrZeroPrice
	}
	for _, known := range exactTicks {
		if raw.Cmp(known.raw) == 0 {
			return known.tick, nil
		}
	}

	tick := log2Q32(raw)
	tick.Quo(tick, big.NewInt(log2TickBaseQ32))
	return clampTick(tick), nil
}

// log2Q32 returns log2(raw/10^18) as a signed Q32 fixed-point integer. The
// integer part comes from the bit length; fraction bits are recovered by
// repeated squaring of the normalized mantissa.
func log2Q32(raw *big.Int) *big.Int {
	r := new(big.Int).Lsh(raw, 96)
	r.Quo(r, fixedpoint.Wad)
	msb := r.BitLen() - 1

	if msb >= 127 {
		r.Rsh(r, uint(msb-127))
	} else {
		r.Lsh(r, uint(127-msb))
	}

	result := big.NewInt(int64(msb) - 96)
	result.Lsh(result, 32)
	for i := 0; i < 20; i++ {
		r.Mul(r, r)
		r.Rsh(r, 127)
		if r.BitLen() > 128 {
			result.Add(result, new(big.Int).Lsh(big.NewInt(1), uint(31-i)))
			r.Rsh(r, 1)
		}
	}
	return result
}

func clampTick(tick *big.Int) int32 {
	if tick.Cmp(big.NewInt(int64(fixedpoint.MinTick))) < 0 {
		return fixedpoint.MinTick
	}
	if tick.Cmp(big.NewInt(int64(fixedpoint.MaxTick))) > 0 {
		return fixedpoint.MaxTick
	}
	return int32(tick.Int64())
}

// AlignToSpacing builds a symmetric tick window around tick: the tick is
// floored to a multiple of spacing and the window extends offset spacings
// on each side. The window is clamped to the outermost spacing-aligned
// ticks inside the valid range, so boundaries near the extremes shrink
// rather than overflow.
func AlignToSpacing(tick, spacing, offset int32) (lower, upper int32, err error) {
	if spacing <= 0 {
		return 0, 0, fmt.Errorf("tick spacing must be positive, got %d", spacing)
	}
	if offset <= 0 {
		return 0, 0, fmt.Errorf("offset must be positive, got %d", offset)
	}

	base := floorMultiple(tick, spacing)
	lower = base - offset*spacing
	upper = base + offset*spacing

	minAligned := ceilMultiple(fixedpoint.MinTick, spacing)
	maxAligned := floorMultiple(fixedpoint.MaxTick, spacing)
	if lower < minAligned {
		lower = minAligned
	}
	if upper > maxAligned {
		upper = maxAligned
	}
	if lower >= upper {
		return 0, 0, fmt.Errorf("%w: [%d, %d] at spacing %d", fixedpoint.ErrInvalidRange, lower, upper, spacing)
	}
	return lower, upper, nil
}

func floorMultiple(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

func ceilMultiple(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick > 0 {
		q++
	}
	return q * spacing
}
