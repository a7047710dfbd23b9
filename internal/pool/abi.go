package pool

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolKeyComponentsJSON = `[
  {"internalType": "address", "name": "currency0", "type": "address"},
  {"internalType": "address", "name": "currency1", "type": "address"},
  {"internalType": "uint24", "name": "fee", "type": "uint24"},
  {"internalType": "int24", "name": "tickSpacing", "type": "int24"},
  {"internalType": "address", "name": "hooks", "type": "address"}
]`

const poolManagerABIJSON = `[
  {
    "inputs": [
      {"components": ` + poolKeyComponentsJSON + `, "internalType": "struct PoolKey", "name": "key", "type": "tuple"},
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"}
    ],
    "name": "initialize",
    "outputs": [{"internalType": "int24", "name": "tick", "type": "int24"}],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const positionManagerABIJSON = `[
  {
    "inputs": [
      {"internalType": "bytes", "name": "unlockData", "type": "bytes"},
      {"internalType": "uint256", "name": "deadline", "type": "uint256"}
    ],
    "name": "modifyLiquidities",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  }
]`

const swapRouterABIJSON = `[
  {
    "inputs": [
      {"components": ` + poolKeyComponentsJSON + `, "internalType": "struct PoolKey", "name": "key", "type": "tuple"},
      {"components": [
        {"internalType": "bool", "name": "zeroForOne", "type": "bool"},
        {"internalType": "int256", "name": "amountSpecified", "type": "int256"},
        {"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
      ], "internalType": "struct IPoolManager.SwapParams", "name": "params", "type": "tuple"},
      {"components": [
        {"internalType": "bool", "name": "takeClaims", "type": "bool"},
        {"internalType": "bool", "name": "settleUsingBurn", "type": "bool"}
      ], "internalType": "struct PoolSwapTest.TestSettings", "name": "testSettings", "type": "tuple"},
      {"internalType": "bytes", "name": "hookData", "type": "bytes"}
    ],
    "name": "swap",
    "outputs": [{"internalType": "int256", "name": "delta", "type": "int256"}],
    "stateMutability": "payable",
    "type": "function"
  }
]`

const stateViewABIJSON = `[
  {
    "inputs": [{"internalType": "bytes32", "name": "poolId", "type": "bytes32"}],
    "name": "getSlot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint24", "name": "protocolFee", "type": "uint24"},
      {"internalType": "uint24", "name": "lpFee", "type": "uint24"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const erc20ABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "spender", "type": "address"}, {"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "approve", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}, {"internalType": "address", "name": "spender", "type": "address"}], "name": "allowance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

var (
	poolManagerABI      abi.ABI
	poolManagerOnce     sync.Once
	poolManagerABIErr   error
	positionManagerABI  abi.ABI
	positionManagerOnce sync.Once
	positionManagerErr  error
	swapRouterABI       abi.ABI
	swapRouterOnce      sync.Once
	swapRouterABIErr    error
	stateViewABI        abi.ABI
	stateViewOnce       sync.Once
	stateViewABIErr     error
	erc20ABI            abi.ABI
	erc20Once           sync.Once
	erc20ABIErr         error
)

func poolManagerABIInstance() (abi.ABI, error) {
	poolManagerOnce.Do(func() {
		poolManagerABI, poolManagerABIErr = abi.JSON(strings.NewReader(poolManagerABIJSON))
	})
	return poolManagerABI, poolManagerABIErr
}

func positionManagerABIInstance() (abi.ABI, error) {
	positionManagerOnce.Do(func() {
		positionManagerABI, positionManagerErr = abi.JSON(strings.NewReader(positionManagerABIJSON))
	})
	return positionManagerABI, positionManagerErr
}

func swapRouterABIInstance() (abi.ABI, error) {
	swapRouterOnce.Do(func() {
		swapRouterABI, swapRouterABIErr = abi.JSON(strings.NewReader(swapRouterABIJSON))
	})
	return swapRouterABI, swapRouterABIErr
}

func stateViewABIInstance() (abi.ABI, error) {
	stateViewOnce.Do(func() {
		stateViewABI, stateViewABIErr = abi.JSON(strings.NewReader(stateViewABIJSON))
	})
	return stateViewABI, stateViewABIErr
}

func erc20ABIInstance() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}
