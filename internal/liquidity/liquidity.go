// Package liquidity converts between a position's liquidity scalar and the
// token amounts it represents over a sqrt-price range. Every division
// floors, which biases both directions downward: the computed liquidity
// never requires more tokens than the caller offered, and the computed
// amounts never overstate what a position holds.
package liquidity

import (
	"fmt"
	"math/big"

	"rangekit/internal/fixedpoint"
)

// ForAmounts returns the largest liquidity that amount0Max and amount1Max
// can fund over [lower, upper] at the current price. When the current price
// sits inside the range both tokens constrain the position and the tighter
// side wins; outside the range only one token does.
func ForAmounts(current, lower, upper fixedpoint.SqrtPriceX96, amount0Max, amount1Max *big.Int) (fixedpoint.Liquidity, error) {
	if err := validateRange(lower, upper); err != nil {
		return fixedpoint.Liquidity{}, err
	}
	if amount0Max == nil || amount0Max.Sign() < 0 || amount1Max == nil || amount1Max.Sign() < 0 {
		return fixedpoint.Liquidity{}, fmt.Errorf("amounts must be non-negative")
	}

	var l *big.Int
	var err error
	switch {
	case current.Cmp(lower) <= 0:
		l, err = liquidityForAmount0(lower, upper, amount0Max)
	case current.Cmp(upper) >= 0:
		l, err = liquidityForAmount1(lower, upper, amount1Max)
	default:
		var l0, l1 *big.Int
		l0, err = liquidityForAmount0(current, upper, amount0Max)
		if err == nil {
			l1, err = liquidityForAmount1(lower, current, amount1Max)
		}
		if err == nil {
			l = l0
			if l1.Cmp(l0) < 0 {
				l = l1
			}
		}
	}
	if err != nil {
		return fixedpoint.Liquidity{}, err
	}
	return fixedpoint.NewLiquidity(l)
}

// AmountsFor returns the token amounts a liquidity value occupies over
// [lower, upper] at the current price. amount0 is zero when the price is at
// or above the range, amount1 is zero when it is at or below.
func AmountsFor(current, lower, upper fixedpoint.SqrtPriceX96, l fixedpoint.Liquidity) (amount0, amount1 *big.Int, err error) {
	if err := validateRange(lower, upper); err != nil {
		return nil, nil, err
	}

	switch {
	case current.Cmp(lower) <= 0:
		amount0, err = amount0Delta(lower, upper, l)
		amount1 = new(big.Int)
	case current.Cmp(upper) >= 0:
		amount0 = new(big.Int)
		amount1, err = amount1Delta(lower, upper, l)
	default:
		amount0, err = amount0Delta(current, upper, l)
		if err == nil {
			amount1, err = amount1Delta(lower, current, l)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

func validateRange(lower, upper fixedpoint.SqrtPriceX96) error {
	if lower.Cmp(upper) >= 0 {
		return fmt.Errorf("%w: lower %s >= upper %s", fixedpoint.ErrInvalidRange, lower, upper)
	}
	return nil
}

// liquidityForAmount0 computes amount0 * (a*b/Q96) / (b-a), the liquidity
// that amount0 funds over [a, b].
func liquidityForAmount0(a, b fixedpoint.SqrtPriceX96, amount0 *big.Int) (*big.Int, error) {
	bigA, bigB := a.Big(), b.Big()
	intermediate, err := fixedpoint.MulDiv(bigA, bigB, fixedpoint.Q96)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulDiv(amount0, intermediate, new(big.Int).Sub(bigB, bigA))
}

// liquidityForAmount1 computes amount1 * Q96 / (b-a).
func liquidityForAmount1(a, b fixedpoint.SqrtPriceX96, amount1 *big.Int) (*big.Int, error) {
	return fixedpoint.MulDiv(amount1, fixedpoint.Q96, new(big.Int).Sub(b.Big(), a.Big()))
}

// amount0Delta computes (l << 96) * (b-a) / b / a, dividing sequentially so
// both truncations round the amount down.
func amount0Delta(a, b fixedpoint.SqrtPriceX96, l fixedpoint.Liquidity) (*big.Int, error) {
	bigA, bigB := a.Big(), b.Big()
	if bigA.Sign() == 0 {
		return nil, fmt.Errorf("%w: lower sqrt price is zero", fixedpoint.ErrDivisionByZero)
	}
	numerator := new(big.Int).Lsh(l.Big(), fixedpoint.SqrtPriceBits)
	amount, err := fixedpoint.MulDiv(numerator, new(big.Int).Sub(bigB, bigA), bigB)
	if err != nil {
		return nil, err
	}
	return amount.Quo(amount, bigA), nil
}

// amount1Delta computes l * (b-a) / Q96.
func amount1Delta(a, b fixedpoint.SqrtPriceX96, l fixedpoint.Liquidity) (*big.Int, error) {
	return fixedpoint.MulDiv(l.Big(), new(big.Int).Sub(b.Big(), a.Big()), fixedpoint.Q96)
}
