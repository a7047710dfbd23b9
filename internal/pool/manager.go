// Package pool orchestrates calls against the deployed pool manager and its
// periphery: pool initialization, position minting through the position
// manager's action batches, swaps, and approvals. All numeric decisions are
// made by the math packages; this layer only encodes and submits.
package pool

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"rangekit/internal/chain"
	"rangekit/internal/fixedpoint"
	"rangekit/internal/model"
)

// Addresses holds the protocol deployment the manager talks to.
type Addresses struct {
	PoolManager     common.Address
	PositionManager common.Address
	SwapRouter      common.Address
	StateView       common.Address
}

// Manager signs and submits pool transactions for a single account.
type Manager struct {
	client  *chain.Client
	addrs   Addresses
	key     *ecdsa.PrivateKey
	chainID *big.Int
	logger  *zap.Logger
}

// NewManager builds a Manager from a hex-encoded private key, fetching the
// chain ID once for transaction signing.
func NewManager(ctx context.Context, client *chain.Client, addrs Addresses, privateKeyHex string, logger *zap.Logger) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	return &Manager{
		client:  client,
		addrs:   addrs,
		key:     key,
		chainID: chainID,
		logger:  logger,
	}, nil
}

// From returns the sending account address.
func (m *Manager) From() common.Address {
	return crypto.PubkeyToAddress(m.key.PublicKey)
}

// InitializePool creates the pool at the given starting sqrt price.
func (m *Manager) InitializePool(ctx context.Context, key model.PoolKey, sqrtPrice fixedpoint.SqrtPriceX96) (common.Hash, error) {
	if sqrtPrice.IsZero() {
		return common.Hash{}, fmt.Errorf("%w: starting price is zero", fixedpoint.ErrSqrtPriceOutOfRange)
	}
	managerABI, err := poolManagerABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse pool manager abi: %w", err)
	}
	k, err := toABIPoolKey(key)
	if err != nil {
		return common.Hash{}, err
	}
	data, err := managerABI.Pack("initialize", k, sqrtPrice.Big())
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack initialize: %w", err)
	}

	hash, err := m.sendTx(ctx, m.addrs.PoolManager, data, nil)
	if err != nil {
		return common.Hash{}, err
	}
	m.logger.Info("pool initialize sent",
		zap.String("tx", hash.Hex()),
		zap.String("currency0", key.Currency0),
		zap.String("currency1", key.Currency1),
		zap.String("sqrt_price_x96", sqrtPrice.String()),
	)
	return hash, nil
}

// MintPosition submits the plan's liquidity as a MINT_POSITION +
// SETTLE_PAIR batch on the position manager. The plan's amount maxima cap
// what settlement may pull from the sender.
func (m *Manager) MintPosition(ctx context.Context, plan model.PositionPlan, deadline time.Time) (common.Hash, error) {
	liquidity, err := parseBig(plan.Liquidity, "liquidity")
	if err != nil {
		return common.Hash{}, err
	}
	amount0Max, err := parseBig(plan.Amount0Max, "amount0 max")
	if err != nil {
		return common.Hash{}, err
	}
	amount1Max, err := parseBig(plan.Amount1Max, "amount1 max")
	if err != nil {
		return common.Hash{}, err
	}

	recipient := m.From()
	if plan.Recipient != "" {
		if !common.IsHexAddress(plan.Recipient) {
			return common.Hash{}, fmt.Errorf("invalid recipient %q", plan.Recipient)
		}
		recipient = common.HexToAddress(plan.Recipient)
	}

	unlockData, err := EncodeMintUnlockData(
		plan.Pool, plan.TickLower, plan.TickUpper,
		liquidity, amount0Max, amount1Max,
		recipient, nil,
	)
	if err != nil {
		return common.Hash{}, err
	}

	m.warnOnLowAllowance(ctx, plan.Pool.Currency0, amount0Max)
	m.warnOnLowAllowance(ctx, plan.Pool.Currency1, amount1Max)

	posABI, err := positionManagerABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse position manager abi: %w", err)
	}
	data, err := posABI.Pack("modifyLiquidities", unlockData, big.NewInt(deadline.Unix()))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack modifyLiquidities: %w", err)
	}

	hash, err := m.sendTx(ctx, m.addrs.PositionManager, data, nil)
	if err != nil {
		return common.Hash{}, err
	}
	m.logger.Info("mint position sent",
		zap.String("tx", hash.Hex()),
		zap.Int32("tick_lower", plan.TickLower),
		zap.Int32("tick_upper", plan.TickUpper),
		zap.String("liquidity", plan.Liquidity),
	)
	return hash, nil
}

type abiSwapParams struct {
	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

type abiTestSettings struct {
	TakeClaims      bool
	SettleUsingBurn bool
}

// SwapExactInSingle swaps an exact input amount through a single pool. A
// zero sqrtPriceLimit swaps without a price limit in the trade direction.
func (m *Manager) SwapExactInSingle(ctx context.Context, key model.PoolKey, zeroForOne bool, amountIn *big.Int, sqrtPriceLimit fixedpoint.SqrtPriceX96) (common.Hash, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return common.Hash{}, fmt.Errorf("amount in must be positive")
	}
	routerABI, err := swapRouterABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse swap router abi: %w", err)
	}
	k, err := toABIPoolKey(key)
	if err != nil {
		return common.Hash{}, err
	}

	limit := sqrtPriceLimit.Big()
	if limit.Sign() == 0 {
		if zeroForOne {
			limit = new(big.Int).Add(fixedpoint.MinSqrtPrice, big.NewInt(1))
		} else {
			limit = new(big.Int).Sub(fixedpoint.MaxSqrtPrice, big.NewInt(1))
		}
	}

	// Exact input is a negative amountSpecified.
	params := abiSwapParams{
		ZeroForOne:        zeroForOne,
		AmountSpecified:   new(big.Int).Neg(amountIn),
		SqrtPriceLimitX96: limit,
	}
	settings := abiTestSettings{}

	data, err := routerABI.Pack("swap", k, params, settings, []byte{})
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack swap: %w", err)
	}

	hash, err := m.sendTx(ctx, m.addrs.SwapRouter, data, nil)
	if err != nil {
		return common.Hash{}, err
	}
	m.logger.Info("swap sent",
		zap.String("tx", hash.Hex()),
		zap.Bool("zero_for_one", zeroForOne),
		zap.String("amount_in", amountIn.String()),
	)
	return hash, nil
}

// ApproveToken grants the spender an ERC20 allowance for the sender.
func (m *Manager) ApproveToken(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	tokenABI, err := erc20ABIInstance()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := tokenABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}

	hash, err := m.sendTx(ctx, token, data, nil)
	if err != nil {
		return common.Hash{}, err
	}
	m.logger.Info("approve sent",
		zap.String("tx", hash.Hex()),
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
	)
	return hash, nil
}

// Allowance returns the spender's current ERC20 allowance from the owner.
func (m *Manager) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	tokenABI, err := erc20ABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	resp, err := m.viewCall(ctx, token, tokenABI, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := resp[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance return type %T", resp[0])
	}
	return allowance, nil
}

// TokenMeta reads a token's ERC20 metadata. Symbol and name are optional
// in the standard, so they come back empty instead of failing.
func (m *Manager) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	tokenABI, err := erc20ABIInstance()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	meta := model.TokenMeta{Address: token.Hex()}

	resp, err := m.viewCall(ctx, token, tokenABI, "decimals")
	if err != nil {
		return model.TokenMeta{}, err
	}
	decimals, ok := resp[0].(uint8)
	if !ok {
		return model.TokenMeta{}, fmt.Errorf("decimals return type %T", resp[0])
	}
	meta.Decimals = decimals

	if resp, err := m.viewCall(ctx, token, tokenABI, "symbol"); err == nil {
		if symbol, ok := resp[0].(string); ok {
			meta.Symbol = symbol
		}
	}
	if resp, err := m.viewCall(ctx, token, tokenABI, "name"); err == nil {
		if name, ok := resp[0].(string); ok {
			meta.Name = name
		}
	}
	return meta, nil
}

// warnOnLowAllowance flags a mint that settlement will revert for. The
// native currency settles by transaction value and is skipped.
func (m *Manager) warnOnLowAllowance(ctx context.Context, currency string, amountMax *big.Int) {
	if amountMax == nil || amountMax.Sign() == 0 || !common.IsHexAddress(currency) {
		return
	}
	token := common.HexToAddress(currency)
	if token == (common.Address{}) {
		return
	}
	allowance, err := m.Allowance(ctx, token, m.From(), m.addrs.PositionManager)
	if err != nil {
		m.logger.Warn("allowance check failed", zap.String("token", currency), zap.Error(err))
		return
	}
	if allowance.Cmp(amountMax) < 0 {
		m.logger.Warn("allowance below amount maximum",
			zap.String("token", currency),
			zap.String("allowance", allowance.String()),
			zap.String("amount_max", amountMax.String()),
		)
	}
}

func (m *Manager) viewCall(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := m.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

// Slot0 reads the pool's current sqrt price and tick through the state
// view.
func (m *Manager) Slot0(ctx context.Context, key model.PoolKey) (fixedpoint.SqrtPriceX96, int32, error) {
	return ReadSlot0(ctx, m.client, m.addrs.StateView, key)
}

// ReadSlot0 reads the pool's current sqrt price and tick through the state
// view; it needs no signing key.
func ReadSlot0(ctx context.Context, client *chain.Client, stateView common.Address, key model.PoolKey) (fixedpoint.SqrtPriceX96, int32, error) {
	if client == nil {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("chain client is nil")
	}
	viewABI, err := stateViewABIInstance()
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("parse state view abi: %w", err)
	}
	id, err := PoolID(key)
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, 0, err
	}
	data, err := viewABI.Pack("getSlot0", [32]byte(id))
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("pack getSlot0: %w", err)
	}

	msg := ethereum.CallMsg{To: &stateView, Data: data}
	resp, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("call getSlot0: %w", err)
	}
	values, err := viewABI.Unpack("getSlot0", resp)
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("unpack getSlot0: %w", err)
	}
	if len(values) != 4 {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("getSlot0 return size %d", len(values))
	}
	rawPrice, ok := values[0].(*big.Int)
	if !ok {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("getSlot0 sqrt price type %T", values[0])
	}
	rawTick, ok := values[1].(*big.Int)
	if !ok {
		return fixedpoint.SqrtPriceX96{}, 0, fmt.Errorf("getSlot0 tick type %T", values[1])
	}

	sqrtPrice, err := fixedpoint.NewSqrtPriceX96(rawPrice)
	if err != nil {
		return fixedpoint.SqrtPriceX96{}, 0, err
	}
	return sqrtPrice, int32(rawTick.Int64()), nil
}

func (m *Manager) sendTx(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	from := m.From()
	nonce, err := m.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := m.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := m.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data, Value: value})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(m.chainID), m.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := m.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return signed.Hash(), nil
}

func parseBig(s, name string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}
