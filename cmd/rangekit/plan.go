package main

import (
	"context"
	"fmt"
	"math/big"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangekit/internal/chain"
	"rangekit/internal/fixedpoint"
	"rangekit/internal/liquidity"
	"rangekit/internal/model"
	"rangekit/internal/pool"
	"rangekit/internal/price"
	"rangekit/internal/storage"
	"rangekit/internal/storage/postgres"
	"rangekit/internal/tick"
	"rangekit/internal/tickmath"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a position plan from an amount budget",
		RunE:  runPlan,
	}

	cmd.Flags().String("rpc", "", "RPC URL; when set the current price is read from the pool")
	cmd.Flags().String("price", "", "current price as a decimal; alternative to --rpc")
	cmd.Flags().String("amount0-max", "0", "maximum raw amount0 to commit")
	cmd.Flags().String("amount1-max", "0", "maximum raw amount1 to commit")
	cmd.Flags().Int32("offset", 10, "window half-width in tick spacings")
	cmd.Flags().String("currency0", "", "token0 address")
	cmd.Flags().String("currency1", "", "token1 address")
	cmd.Flags().Uint32("fee", 3000, "pool fee in hundredths of a bip")
	cmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	cmd.Flags().String("hooks", "", "hooks contract address (empty for none)")
	cmd.Flags().Uint("decimals0", 18, "token0 decimals")
	cmd.Flags().Uint("decimals1", 18, "token1 decimals")
	cmd.Flags().String("state-view", "", "state view contract address")
	cmd.Flags().String("out", "./data/plans.jsonl", "output JSONL path, empty to skip")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN, empty to skip")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	key, err := poolKeyFromConfig(cfg)
	if err != nil {
		return err
	}

	amount0Max, err := flagBig(cmd, "amount0-max")
	if err != nil {
		return err
	}
	amount1Max, err := flagBig(cmd, "amount1-max")
	if err != nil {
		return err
	}
	offset, _ := cmd.Flags().GetInt32("offset")
	priceStr, _ := cmd.Flags().GetString("price")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var chainID uint64
	var sqrtPrice fixedpoint.SqrtPriceX96
	switch {
	case priceStr != "":
		p, err := fixedpoint.ParsePrice(priceStr)
		if err != nil {
			return err
		}
		sqrtPrice, err = price.WithDecimalsToSqrtPriceX96(p, cfg.Decimals0, cfg.Decimals1)
		if err != nil {
			return err
		}
	case cfg.RPCURL != "":
		if cfg.StateView == "" || !common.IsHexAddress(cfg.StateView) {
			return fmt.Errorf("a valid state-view address is required to read the pool price")
		}
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer client.Close()

		id, err := client.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("get chain id: %w", err)
		}
		chainID = id.Uint64()

		stateView := common.HexToAddress(cfg.StateView)
		err = chain.WithRetry(ctx, cfg.MaxRetries, cfg.RetryBackoff, func(ctx context.Context) error {
			var readErr error
			sqrtPrice, _, readErr = pool.ReadSlot0(ctx, client, stateView, key)
			if readErr != nil {
				logger.Warn("slot0 read failed", zap.Error(readErr))
			}
			return readErr
		})
		if err != nil {
			return fmt.Errorf("read slot0: %w", err)
		}
	default:
		return fmt.Errorf("either --price or --rpc is required")
	}

	plan, err := buildPlan(key, sqrtPrice, amount0Max, amount1Max, offset)
	if err != nil {
		return err
	}
	plan.ChainID = chainID

	logger.Info("plan computed",
		zap.Int32("current_tick", plan.CurrentTick),
		zap.Int32("tick_lower", plan.TickLower),
		zap.Int32("tick_upper", plan.TickUpper),
		zap.String("liquidity", plan.Liquidity),
		zap.String("amount0", plan.Amount0),
		zap.String("amount1", plan.Amount1),
	)

	var sinks []storage.Storage
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}
	for _, sink := range sinks {
		if err := sink.PutPlanBatch([]model.PositionPlan{plan}); err != nil {
			return fmt.Errorf("store plan: %w", err)
		}
	}

	fmt.Printf("ticks [%d, %d] liquidity %s amount0 %s amount1 %s\n",
		plan.TickLower, plan.TickUpper, plan.Liquidity, plan.Amount0, plan.Amount1)
	return nil
}

// buildPlan runs the full range-construction flow: align a window around
// the current tick, fetch the window's sqrt-price bounds, size the
// liquidity against the amount budget, and read back the amounts that
// liquidity occupies.
func buildPlan(key model.PoolKey, sqrtPrice fixedpoint.SqrtPriceX96, amount0Max, amount1Max *big.Int, offset int32) (model.PositionPlan, error) {
	indexer := tick.NewIndexer(tickmath.Oracle{})

	currentTick, err := indexer.TickAtSqrtPrice(sqrtPrice)
	if err != nil {
		return model.PositionPlan{}, err
	}
	lower, upper, err := tick.AlignToSpacing(currentTick, key.TickSpacing, offset)
	if err != nil {
		return model.PositionPlan{}, err
	}
	sqrtLower, err := indexer.SqrtPriceAtTick(lower)
	if err != nil {
		return model.PositionPlan{}, err
	}
	sqrtUpper, err := indexer.SqrtPriceAtTick(upper)
	if err != nil {
		return model.PositionPlan{}, err
	}

	l, err := liquidity.ForAmounts(sqrtPrice, sqrtLower, sqrtUpper, amount0Max, amount1Max)
	if err != nil {
		return model.PositionPlan{}, err
	}
	amount0, amount1, err := liquidity.AmountsFor(sqrtPrice, sqrtLower, sqrtUpper, l)
	if err != nil {
		return model.PositionPlan{}, err
	}

	return model.PositionPlan{
		Pool:         key,
		SqrtPriceX96: sqrtPrice.String(),
		CurrentTick:  currentTick,
		TickLower:    lower,
		TickUpper:    upper,
		Liquidity:    l.String(),
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		Amount0Max:   amount0Max.String(),
		Amount1Max:   amount1Max.String(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func flagBig(cmd *cobra.Command, name string) (*big.Int, error) {
	s, _ := cmd.Flags().GetString(name)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}
