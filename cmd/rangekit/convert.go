package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"rangekit/internal/fixedpoint"
	"rangekit/internal/price"
	"rangekit/internal/tick"
	"rangekit/internal/tickmath"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert between price, sqrt price, and tick",
		RunE:  runConvert,
	}

	cmd.Flags().String("price", "", "price as a decimal (amount1/amount0 in display units)")
	cmd.Flags().String("sqrt-price", "", "Q64.96 sqrt price as a decimal integer")
	cmd.Flags().String("amount0", "", "raw amount0 for ratio conversion")
	cmd.Flags().String("amount1", "", "raw amount1 for ratio conversion")
	cmd.Flags().Uint8("decimals0", 18, "token0 decimals")
	cmd.Flags().Uint8("decimals1", 18, "token1 decimals")

	return cmd
}

func runConvert(cmd *cobra.Command, _ []string) error {
	priceStr, _ := cmd.Flags().GetString("price")
	sqrtStr, _ := cmd.Flags().GetString("sqrt-price")
	amount0Str, _ := cmd.Flags().GetString("amount0")
	amount1Str, _ := cmd.Flags().GetString("amount1")
	decimals0, _ := cmd.Flags().GetUint8("decimals0")
	decimals1, _ := cmd.Flags().GetUint8("decimals1")

	var sqrtPrice fixedpoint.SqrtPriceX96
	var err error
	switch {
	case priceStr != "":
		p, parseErr := fixedpoint.ParsePrice(priceStr)
		if parseErr != nil {
			return parseErr
		}
		sqrtPrice, err = price.WithDecimalsToSqrtPriceX96(p, decimals0, decimals1)
	case sqrtStr != "":
		raw, ok := new(big.Int).SetString(sqrtStr, 10)
		if !ok {
			return fmt.Errorf("invalid sqrt price %q", sqrtStr)
		}
		sqrtPrice, err = fixedpoint.NewSqrtPriceX96(raw)
	case amount0Str != "" && amount1Str != "":
		amount0, ok := new(big.Int).SetString(amount0Str, 10)
		if !ok {
			return fmt.Errorf("invalid amount0 %q", amount0Str)
		}
		amount1, ok := new(big.Int).SetString(amount1Str, 10)
		if !ok {
			return fmt.Errorf("invalid amount1 %q", amount1Str)
		}
		sqrtPrice, err = price.RatioToSqrtPriceX96(amount0, amount1)
	default:
		return fmt.Errorf("one of --price, --sqrt-price, or --amount0/--amount1 is required")
	}
	if err != nil {
		return err
	}

	recovered, err := price.FromSqrtPriceX96(sqrtPrice)
	if err != nil {
		return err
	}

	indexer := tick.NewIndexer(tickmath.Oracle{})
	exactTick, err := indexer.TickAtSqrtPrice(sqrtPrice)
	if err != nil {
		return err
	}
	approxTick, err := tick.ApproxTickAtPrice(recovered)
	if err != nil {
		return err
	}

	fmt.Printf("sqrt_price_x96: %s\n", sqrtPrice)
	fmt.Printf("price_wad:      %s\n", recovered.Raw())
	fmt.Printf("price:          %s\n", recovered)
	fmt.Printf("tick:           %d\n", exactTick)
	fmt.Printf("tick_approx:    %d\n", approxTick)
	return nil
}
