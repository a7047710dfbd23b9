package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangekit/internal/chain"
	"rangekit/internal/config"
	"rangekit/internal/fixedpoint"
	"rangekit/internal/model"
	"rangekit/internal/pool"
	"rangekit/internal/price"
)

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("private-key", "", "hex-encoded signing key")
	cmd.Flags().String("pool-manager", "", "pool manager address")
	cmd.Flags().String("position-manager", "", "position manager address")
	cmd.Flags().String("swap-router", "", "swap router address")
	cmd.Flags().String("state-view", "", "state view address")
	cmd.Flags().String("currency0", "", "token0 address")
	cmd.Flags().String("currency1", "", "token1 address")
	cmd.Flags().Uint32("fee", 3000, "pool fee in hundredths of a bip")
	cmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	cmd.Flags().String("hooks", "", "hooks contract address (empty for none)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newInitPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-pool",
		Short: "Initialize a pool at a starting price",
		RunE:  runInitPool,
	}
	addChainFlags(cmd)
	cmd.Flags().String("price", "1", "starting price as a decimal")
	cmd.Flags().Uint("decimals0", 18, "token0 decimals")
	cmd.Flags().Uint("decimals1", 18, "token1 decimals")
	return cmd
}

func newMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a position from a stored plan",
		RunE:  runMint,
	}
	addChainFlags(cmd)
	cmd.Flags().String("plan", "", "plan JSONL path; the last line is minted")
	cmd.Flags().Duration("deadline", 20*time.Minute, "transaction deadline from now")
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap an exact input amount through the pool",
		RunE:  runSwap,
	}
	addChainFlags(cmd)
	cmd.Flags().String("amount-in", "0", "raw input amount")
	cmd.Flags().Bool("zero-for-one", true, "swap token0 into token1")
	return cmd
}

func newApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve the periphery to spend a token",
		RunE:  runApprove,
	}
	addChainFlags(cmd)
	cmd.Flags().String("token", "", "token address")
	cmd.Flags().String("spender", "", "spender address")
	cmd.Flags().String("amount", "", "raw allowance amount")
	return cmd
}

type chainSession struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	manager *pool.Manager
	key     model.PoolKey
	close   func()
}

func openChainSession(ctx context.Context, cmd *cobra.Command) (*chainSession, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key is required")
	}

	key, err := poolKeyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	addrs := pool.Addresses{}
	for _, bind := range []struct {
		value string
		dst   *common.Address
	}{
		{cfg.PoolManager, &addrs.PoolManager},
		{cfg.PositionManager, &addrs.PositionManager},
		{cfg.SwapRouter, &addrs.SwapRouter},
		{cfg.StateView, &addrs.StateView},
	} {
		if bind.value != "" {
			if !common.IsHexAddress(bind.value) {
				client.Close()
				return nil, fmt.Errorf("invalid contract address %q", bind.value)
			}
			*bind.dst = common.HexToAddress(bind.value)
		}
	}

	manager, err := pool.NewManager(ctx, client, addrs, cfg.PrivateKey, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &chainSession{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		manager: manager,
		key:     key,
		close: func() {
			client.Close()
			logger.Sync()
		},
	}, nil
}

func runInitPool(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := openChainSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.close()

	priceStr, _ := cmd.Flags().GetString("price")
	decimals0, _ := cmd.Flags().GetUint("decimals0")
	decimals1, _ := cmd.Flags().GetUint("decimals1")

	p, err := fixedpoint.ParsePrice(priceStr)
	if err != nil {
		return err
	}
	sqrtPrice, err := price.WithDecimalsToSqrtPriceX96(p, uint8(decimals0), uint8(decimals1))
	if err != nil {
		return err
	}

	hash, err := session.manager.InitializePool(ctx, session.key, sqrtPrice)
	if err != nil {
		return err
	}
	fmt.Printf("initialize tx %s\n", hash.Hex())
	return nil
}

func runMint(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	planPath, _ := cmd.Flags().GetString("plan")
	if planPath == "" {
		return fmt.Errorf("plan path is required")
	}
	plan, err := lastPlan(planPath)
	if err != nil {
		return err
	}

	session, err := openChainSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.close()

	deadline, _ := cmd.Flags().GetDuration("deadline")
	hash, err := session.manager.MintPosition(ctx, plan, time.Now().Add(deadline))
	if err != nil {
		return err
	}
	fmt.Printf("mint tx %s\n", hash.Hex())
	return nil
}

func runSwap(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := openChainSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.close()

	amountIn, err := flagBig(cmd, "amount-in")
	if err != nil {
		return err
	}
	zeroForOne, _ := cmd.Flags().GetBool("zero-for-one")

	hash, err := session.manager.SwapExactInSingle(ctx, session.key, zeroForOne, amountIn, fixedpoint.SqrtPriceX96{})
	if err != nil {
		return err
	}
	fmt.Printf("swap tx %s\n", hash.Hex())
	return nil
}

func runApprove(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := openChainSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.close()

	tokenStr, _ := cmd.Flags().GetString("token")
	spenderStr, _ := cmd.Flags().GetString("spender")
	if !common.IsHexAddress(tokenStr) || !common.IsHexAddress(spenderStr) {
		return fmt.Errorf("valid token and spender addresses are required")
	}
	amount, err := flagBig(cmd, "amount")
	if err != nil {
		return err
	}

	token := common.HexToAddress(tokenStr)
	if meta, err := session.manager.TokenMeta(ctx, token); err != nil {
		session.logger.Warn("token metadata unavailable", zap.String("token", tokenStr), zap.Error(err))
	} else {
		session.logger.Info("approving token",
			zap.String("symbol", meta.Symbol),
			zap.Uint8("decimals", meta.Decimals),
		)
	}

	hash, err := session.manager.ApproveToken(ctx, token, common.HexToAddress(spenderStr), amount)
	if err != nil {
		return err
	}
	fmt.Printf("approve tx %s\n", hash.Hex())
	return nil
}

// lastPlan reads the final plan from a JSONL file written by the plan
// command.
func lastPlan(path string) (model.PositionPlan, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.PositionPlan{}, fmt.Errorf("open plan file: %w", err)
	}
	defer file.Close()

	var line []byte
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			line = append(line[:0], scanner.Bytes()...)
		}
	}
	if err := scanner.Err(); err != nil {
		return model.PositionPlan{}, fmt.Errorf("read plan file: %w", err)
	}
	if len(line) == 0 {
		return model.PositionPlan{}, fmt.Errorf("plan file %s is empty", path)
	}

	var plan model.PositionPlan
	if err := json.Unmarshal(line, &plan); err != nil {
		return model.PositionPlan{}, fmt.Errorf("parse plan: %w", err)
	}
	return plan, nil
}
