package pool

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"rangekit/internal/model"
)

// Position manager action identifiers for modifyLiquidities batches.
const (
	actionMintPosition byte = 0x02
	actionSettlePair   byte = 0x0d
)

// abiPoolKey mirrors the PoolKey tuple layout for ABI packing.
type abiPoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

func toABIPoolKey(key model.PoolKey) (abiPoolKey, error) {
	if !common.IsHexAddress(key.Currency0) || !common.IsHexAddress(key.Currency1) {
		return abiPoolKey{}, fmt.Errorf("invalid currency address in pool key")
	}
	hooks := common.Address{}
	if key.Hooks != "" {
		if !common.IsHexAddress(key.Hooks) {
			return abiPoolKey{}, fmt.Errorf("invalid hooks address %q", key.Hooks)
		}
		hooks = common.HexToAddress(key.Hooks)
	}
	return abiPoolKey{
		Currency0:   common.HexToAddress(key.Currency0),
		Currency1:   common.HexToAddress(key.Currency1),
		Fee:         new(big.Int).SetUint64(uint64(key.Fee)),
		TickSpacing: big.NewInt(int64(key.TickSpacing)),
		Hooks:       hooks,
	}, nil
}

type sharedABITypes struct {
	poolKey    abi.Type
	int24Type  abi.Type
	uint128    abi.Type
	uint256    abi.Type
	address    abi.Type
	bytesType  abi.Type
	bytesArray abi.Type
}

var (
	sharedTypesVal  sharedABITypes
	sharedTypesOnce sync.Once
	sharedTypesErr  error
)

func sharedTypes() (sharedABITypes, error) {
	sharedTypesOnce.Do(func() {
		poolKeyComponents := []abi.ArgumentMarshaling{
			{Name: "currency0", Type: "address"},
			{Name: "currency1", Type: "address"},
			{Name: "fee", Type: "uint24"},
			{Name: "tickSpacing", Type: "int24"},
			{Name: "hooks", Type: "address"},
		}
		build := func(t string, components []abi.ArgumentMarshaling) abi.Type {
			if sharedTypesErr != nil {
				return abi.Type{}
			}
			typ, err := abi.NewType(t, "", components)
			if err != nil {
				sharedTypesErr = fmt.Errorf("build abi type %s: %w", t, err)
			}
			return typ
		}
		sharedTypesVal.poolKey = build("tuple", poolKeyComponents)
		sharedTypesVal.int24Type = build("int24", nil)
		sharedTypesVal.uint128 = build("uint128", nil)
		sharedTypesVal.uint256 = build("uint256", nil)
		sharedTypesVal.address = build("address", nil)
		sharedTypesVal.bytesType = build("bytes", nil)
		sharedTypesVal.bytesArray = build("bytes[]", nil)
	})
	return sharedTypesVal, sharedTypesErr
}

// PoolID returns keccak256 of the ABI-encoded pool key, the identifier the
// state view indexes pools by.
func PoolID(key model.PoolKey) (common.Hash, error) {
	types, err := sharedTypes()
	if err != nil {
		return common.Hash{}, err
	}
	k, err := toABIPoolKey(key)
	if err != nil {
		return common.Hash{}, err
	}
	args := abi.Arguments{{Type: types.poolKey}}
	encoded, err := args.Pack(k)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack pool key: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// EncodeMintUnlockData builds the unlockData payload for a
// MINT_POSITION + SETTLE_PAIR modifyLiquidities batch: the packed action
// byte string plus one ABI-encoded parameter blob per action.
func EncodeMintUnlockData(
	key model.PoolKey,
	tickLower, tickUpper int32,
	liquidity *big.Int,
	amount0Max, amount1Max *big.Int,
	recipient common.Address,
	hookData []byte,
) ([]byte, error) {
	types, err := sharedTypes()
	if err != nil {
		return nil, err
	}
	k, err := toABIPoolKey(key)
	if err != nil {
		return nil, err
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("liquidity must be positive")
	}
	if hookData == nil {
		hookData = []byte{}
	}

	mintArgs := abi.Arguments{
		{Type: types.poolKey},
		{Type: types.int24Type},
		{Type: types.int24Type},
		{Type: types.uint256},
		{Type: types.uint128},
		{Type: types.uint128},
		{Type: types.address},
		{Type: types.bytesType},
	}
	mintParams, err := mintArgs.Pack(
		k,
		big.NewInt(int64(tickLower)),
		big.NewInt(int64(tickUpper)),
		liquidity,
		amount0Max,
		amount1Max,
		recipient,
		hookData,
	)
	if err != nil {
		return nil, fmt.Errorf("pack mint params: %w", err)
	}

	settleArgs := abi.Arguments{{Type: types.address}, {Type: types.address}}
	settleParams, err := settleArgs.Pack(k.Currency0, k.Currency1)
	if err != nil {
		return nil, fmt.Errorf("pack settle params: %w", err)
	}

	unlockArgs := abi.Arguments{{Type: types.bytesType}, {Type: types.bytesArray}}
	unlockData, err := unlockArgs.Pack(
		[]byte{actionMintPosition, actionSettlePair},
		[][]byte{mintParams, settleParams},
	)
	if err != nil {
		return nil, fmt.Errorf("pack unlock data: %w", err)
	}
	return unlockData, nil
}
