// Package tickmath is a bit-exact port of the pool manager's TickMath
// library. Position boundaries must agree with the deployed contract down to
// the last bit, so the higher layers delegate here instead of deriving tick
// boundaries on their own.
package tickmath

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"rangekit/internal/fixedpoint"
)

var (
	ratioSeed = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	q128      = uint256.MustFromHex("0x100000000000000000000000000000000")

	// sqrtRatioSteps[i] is sqrt(1.0001^-(2^(i+1))) in Q128, applied when
	// bit i+1 of the absolute tick is set.
	sqrtRatioSteps = [19]*uint256.Int{
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}

	maxUint256 = new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1))
	oneShift32 = new(uint256.Int).Lsh(uint256.NewInt(1), 32)

	logTickBase  = mustBig("255738958999603826347141")
	tickLowBias  = mustBig("3402992956809132418596140100660247210")
	tickHighBias = mustBig("291339464771989622907027621153398088495")
)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("invalid big integer literal %q", s))
	}
	return n
}

// SqrtPriceAtTick returns sqrt(1.0001^tick) * 2^96, identical to the
// contract's getSqrtPriceAtTick.
func SqrtPriceAtTick(tick int32) (fixedpoint.SqrtPriceX96, error) {
	if tick < fixedpoint.MinTick || tick > fixedpoint.MaxTick {
		return fixedpoint.SqrtPriceX96{}, fmt.Errorf("%w: %d", fixedpoint.ErrTickOutOfRange, tick)
	}

	absTick := uint64(tick)
	if tick < 0 {
		absTick = uint64(-int64(tick))
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioSeed)
	} else {
		ratio.Set(q128)
	}
	for i, step := range sqrtRatioSteps {
		if absTick&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, step)
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128 -> Q96, rounding up so the result errs toward the tick's side
	// of the boundary, exactly as the contract does.
	rem := new(uint256.Int).Mod(ratio, oneShift32)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.AddUint64(ratio, 1)
	}

	return fixedpoint.NewSqrtPriceX96(ratio.ToBig())
}

// TickAtSqrtPrice returns the largest tick whose sqrt price is less than or
// equal to the input, identical to the contract's getTickAtSqrtPrice.
func TickAtSqrtPrice(sqrtPrice fixedpoint.SqrtPriceX96) (int32, error) {
	sp := sqrtPrice.Big()
	if sp.Cmp(fixedpoint.MinSqrtPrice) < 0 || sp.Cmp(fixedpoint.MaxSqrtPrice) >= 0 {
		return 0, fmt.Errorf("%w: %s", fixedpoint.ErrSqrtPriceOutOfRange, sp)
	}

	ratio, overflow := uint256.FromBig(sp)
	if overflow {
		return 0, fmt.Errorf("%w: %s", fixedpoint.ErrSqrtPriceOutOfRange, sp)
	}
	ratio.Lsh(ratio, 32)
	msb := ratio.BitLen() - 1

	r := new(uint256.Int).Set(ratio)
	if msb >= 128 {
		r.Rsh(r, uint(msb-127))
	} else {
		r.Lsh(r, uint(127-msb))
	}

	// log2 of the ratio in signed Q64, refined bit by bit via squaring.
	log2 := big.NewInt(int64(msb) - 128)
	log2.Lsh(log2, 64)
	for i := 0; i < 14; i++ {
		r.Mul(r, r)
		r.Rsh(r, 127)
		if r.BitLen() > 128 {
			log2.Add(log2, new(big.Int).Lsh(big.NewInt(1), uint(63-i)))
			r.Rsh(r, 1)
		}
	}

	logSqrt10001 := new(big.Int).Mul(log2, logTickBase)

	tickLow := new(big.Int).Sub(logSqrt10001, tickLowBias)
	tickLow.Rsh(tickLow, 128)
	tickHigh := new(big.Int).Add(logSqrt10001, tickHighBias)
	tickHigh.Rsh(tickHigh, 128)

	low := int32(tickLow.Int64())
	high := int32(tickHigh.Int64())
	if low == high {
		return low, nil
	}

	spAtHigh, err := SqrtPriceAtTick(high)
	if err != nil {
		return 0, err
	}
	if spAtHigh.Big().Cmp(sp) <= 0 {
		return high, nil
	}
	return low, nil
}

// Oracle adapts the package functions to the interface consumed by the tick
// indexer, so a remote tick-math source can stand in during tests or when a
// chain deployment disagrees with this port.
type Oracle struct{}

func (Oracle) SqrtPriceAtTick(tick int32) (fixedpoint.SqrtPriceX96, error) {
	return SqrtPriceAtTick(tick)
}

func (Oracle) TickAtSqrtPrice(sqrtPrice fixedpoint.SqrtPriceX96) (int32, error) {
	return TickAtSqrtPrice(sqrtPrice)
}
