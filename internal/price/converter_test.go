package price

import (
	"errors"
	"math/big"
	"testing"

	"rangekit/internal/fixedpoint"
)

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.Wad)
}

// relErrWithin reports whether |got-want| <= want/denom.
func relErrWithin(got, want *big.Int, denom int64) bool {
	diff := new(big.Int).Sub(got, want)
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(denom))
	return diff.Cmp(want) <= 0
}

func TestToSqrtPriceX96Unit(t *testing.T) {
	p, err := ToSqrtPriceX96(fixedpoint.MustPrice(wad(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Big().Cmp(fixedpoint.Q96) != 0 {
		t.Fatalf("price 1 must map to exactly 2^96, got %s", p)
	}
}

func TestToSqrtPriceX96ZeroPrice(t *testing.T) {
	if _, err := ToSqrtPriceX96(fixedpoint.MustPrice(new(big.Int))); !errors.Is(err, fixedpoint.ErrZeroPrice) {
		t.Fatalf("expected zero price error, got %v", err)
	}
}

func TestRoundTripOnePointFive(t *testing.T) {
	orig := fixedpoint.MustPrice(new(big.Int).Quo(wad(3), big.NewInt(2)))
	sqrtPrice, err := ToSqrtPriceX96(orig)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	back, err := FromSqrtPriceX96(sqrtPrice)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	// Recovered price must land within 0.001% of the original.
	if !relErrWithin(back.Raw(), orig.Raw(), 100000) {
		t.Fatalf("round trip drifted: got %s want %s", back.Raw(), orig.Raw())
	}
}

func TestRoundTripBoundedError(t *testing.T) {
	// The round-trip error scales with the resolution of the 10^9-scaled
	// integer square root: sub-1e-5 for everyday prices, coarser for the
	// extremes where the root itself has only a few digits.
	cases := []struct {
		raw   *big.Int
		denom int64
	}{
		{wad(1), 100000},
		{wad(2), 100000},
		{wad(3), 100000},
		{wad(1000), 100000},
		{new(big.Int).Quo(wad(1), big.NewInt(2)), 100000},
		{new(big.Int).Quo(wad(3), big.NewInt(4)), 100000},
		{mustParse(t, "1234.56789"), 100000},
		{wad(1_000_000_000_000), 100000},    // 10^12, an 18/6 decimal pair
		{big.NewInt(1_000_000), 100},        // 10^-12, the inverse pairing
		{mustParse(t, "0.00000001"), 10000},
	}
	for _, tc := range cases {
		orig := fixedpoint.MustPrice(tc.raw)
		sqrtPrice, err := ToSqrtPriceX96(orig)
		if err != nil {
			t.Fatalf("convert %s: %v", tc.raw, err)
		}
		back, err := FromSqrtPriceX96(sqrtPrice)
		if err != nil {
			t.Fatalf("recover %s: %v", tc.raw, err)
		}
		if !relErrWithin(back.Raw(), orig.Raw(), tc.denom) {
			t.Fatalf("round trip of %s drifted to %s", orig.Raw(), back.Raw())
		}
		// Flooring both ways must never overshoot the original.
		if back.Raw().Cmp(orig.Raw()) > 0 {
			t.Fatalf("round trip of %s overshot to %s", orig.Raw(), back.Raw())
		}
	}
}

func mustParse(t *testing.T, s string) *big.Int {
	t.Helper()
	p, err := fixedpoint.ParsePrice(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return p.Raw()
}

func TestRatioToSqrtPriceX96(t *testing.T) {
	// Equal raw amounts quote a price of exactly 1.
	p, err := RatioToSqrtPriceX96(wad(1000), wad(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Big().Cmp(fixedpoint.Q96) != 0 {
		t.Fatalf("1:1 ratio must map to 2^96, got %s", p)
	}

	if _, err := RatioToSqrtPriceX96(new(big.Int), wad(1)); !errors.Is(err, fixedpoint.ErrDivisionByZero) {
		t.Fatalf("expected division by zero for empty amount0, got %v", err)
	}
	if _, err := RatioToSqrtPriceX96(wad(1), big.NewInt(-1)); err == nil {
		t.Fatalf("expected error for negative amount1")
	}
}

func TestWithDecimalsToSqrtPriceX96(t *testing.T) {
	// An 18/6 decimal pair at a unit display price trades at a raw ratio of
	// 10^-12, the same sqrt price as the raw-amount computation.
	fromDecimals, err := WithDecimalsToSqrtPriceX96(fixedpoint.MustPrice(wad(1)), 18, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromRatio, err := RatioToSqrtPriceX96(wad(1000), big.NewInt(1000_000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromDecimals.Cmp(fromRatio) != 0 {
		t.Fatalf("decimal adjustment mismatch: %s vs %s", fromDecimals, fromRatio)
	}

	// Equal decimals leave the price untouched.
	same, err := WithDecimalsToSqrtPriceX96(fixedpoint.MustPrice(wad(2)), 18, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plain, err := ToSqrtPriceX96(fixedpoint.MustPrice(wad(2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same.Cmp(plain) != 0 {
		t.Fatalf("equal-decimal adjustment changed the price: %s vs %s", same, plain)
	}
}

func TestReferencePrices(t *testing.T) {
	one, double, half := ReferencePrices()
	if one.Big().Cmp(fixedpoint.Q96) != 0 {
		t.Fatalf("1:1 reference must be exactly 2^96, got %s", one)
	}

	// sqrt(2) * sqrt(1/2) == 1, so double*half must sit within a hair of
	// 2^192. Both factors floor, so the product can only undershoot.
	product := new(big.Int).Mul(double.Big(), half.Big())
	if product.Cmp(fixedpoint.Q192) > 0 {
		t.Fatalf("reciprocal product overshot 2^192: %s", product)
	}
	if !relErrWithin(product, fixedpoint.Q192, 100_000_000) {
		t.Fatalf("reciprocal product drifted: %s", product)
	}
}
