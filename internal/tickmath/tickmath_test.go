package tickmath

import (
	"errors"
	"math/big"
	"testing"

	"rangekit/internal/fixedpoint"
)

func TestSqrtPriceAtTickAnchors(t *testing.T) {
	tests := []struct {
		tick int32
		want *big.Int
	}{
		{0, fixedpoint.Q96},
		{fixedpoint.MinTick, fixedpoint.MinSqrtPrice},
		{fixedpoint.MaxTick, fixedpoint.MaxSqrtPrice},
	}
	for _, tc := range tests {
		got, err := SqrtPriceAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tc.tick, err)
		}
		if got.Big().Cmp(tc.want) != 0 {
			t.Fatalf("tick %d: got %s want %s", tc.tick, got, tc.want)
		}
	}
}

func TestSqrtPriceAtTickOutOfRange(t *testing.T) {
	for _, tick := range []int32{fixedpoint.MinTick - 1, fixedpoint.MaxTick + 1} {
		if _, err := SqrtPriceAtTick(tick); !errors.Is(err, fixedpoint.ErrTickOutOfRange) {
			t.Fatalf("tick %d: expected range error, got %v", tick, err)
		}
	}
}

func TestSqrtPriceAtTickMonotonic(t *testing.T) {
	ticks := []int32{fixedpoint.MinTick, -887271, -600000, -12345, -6931, -60, -1, 0, 1, 60, 6931, 12345, 600000, 887271, fixedpoint.MaxTick}
	prev, err := SqrtPriceAtTick(ticks[0])
	if err != nil {
		t.Fatalf("tick %d: %v", ticks[0], err)
	}
	for _, tick := range ticks[1:] {
		cur, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if cur.Cmp(prev) <= 0 {
			t.Fatalf("sqrt price not increasing at tick %d: %s <= %s", tick, cur, prev)
		}
		prev = cur
	}
}

func TestTickAtSqrtPriceInverts(t *testing.T) {
	ticks := []int32{fixedpoint.MinTick, -887271, -276325, -12345, -6932, -60, -1, 0, 1, 60, 6931, 12345, 276324, 887270, 887271}
	for _, tick := range ticks {
		sqrtPrice, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		got, err := TickAtSqrtPrice(sqrtPrice)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("tick %d: inverted to %d", tick, got)
		}
	}
}

func TestTickAtSqrtPriceFloors(t *testing.T) {
	// A sqrt price one below the next tick's boundary still belongs to the
	// current tick.
	for _, tick := range []int32{-60, 0, 60, 6931} {
		next, err := SqrtPriceAtTick(tick + 1)
		if err != nil {
			t.Fatalf("tick %d: %v", tick+1, err)
		}
		below := fixedpoint.MustSqrtPriceX96(new(big.Int).Sub(next.Big(), big.NewInt(1)))
		got, err := TickAtSqrtPrice(below)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("boundary-1 of tick %d resolved to %d", tick+1, got)
		}
	}
}

func TestTickAtSqrtPriceOutOfRange(t *testing.T) {
	tooLow := fixedpoint.MustSqrtPriceX96(new(big.Int).Sub(fixedpoint.MinSqrtPrice, big.NewInt(1)))
	if _, err := TickAtSqrtPrice(tooLow); !errors.Is(err, fixedpoint.ErrSqrtPriceOutOfRange) {
		t.Fatalf("expected range error below min, got %v", err)
	}
	// The max sqrt price itself is exclusive.
	atMax := fixedpoint.MustSqrtPriceX96(fixedpoint.MaxSqrtPrice)
	if _, err := TickAtSqrtPrice(atMax); !errors.Is(err, fixedpoint.ErrSqrtPriceOutOfRange) {
		t.Fatalf("expected range error at max, got %v", err)
	}
}
