package pool

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"rangekit/internal/model"
)

var testKey = model.PoolKey{
	Currency0:   "0x1111111111111111111111111111111111111111",
	Currency1:   "0x2222222222222222222222222222222222222222",
	Fee:         3000,
	TickSpacing: 60,
}

func TestPoolID(t *testing.T) {
	id, err := PoolID(testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The pool id is keccak256 over the five statically packed key words.
	var encoded []byte
	encoded = append(encoded, common.LeftPadBytes(common.HexToAddress(testKey.Currency0).Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(common.HexToAddress(testKey.Currency1).Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(big.NewInt(3000).Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(big.NewInt(60).Bytes(), 32)...)
	encoded = append(encoded, make([]byte, 32)...)
	want := crypto.Keccak256Hash(encoded)
	if id != want {
		t.Fatalf("pool id mismatch: got %s want %s", id, want)
	}
}

func TestPoolIDInvalidKey(t *testing.T) {
	bad := testKey
	bad.Currency0 = "not-an-address"
	if _, err := PoolID(bad); err == nil {
		t.Fatalf("expected error for invalid currency address")
	}
	bad = testKey
	bad.Hooks = "0x123"
	if _, err := PoolID(bad); err == nil {
		t.Fatalf("expected error for malformed hooks address")
	}
}

func TestEncodeMintUnlockData(t *testing.T) {
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")
	liquidity := big.NewInt(123456789)
	amount0Max := big.NewInt(1000)
	amount1Max := big.NewInt(2000)

	data, err := EncodeMintUnlockData(testKey, -540, 660, liquidity, amount0Max, amount1Max, recipient, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	types, err := sharedTypes()
	if err != nil {
		t.Fatalf("abi types: %v", err)
	}
	unlockArgs := abi.Arguments{{Type: types.bytesType}, {Type: types.bytesArray}}
	decoded, err := unlockArgs.Unpack(data)
	if err != nil {
		t.Fatalf("unpack unlock data: %v", err)
	}
	actions, ok := decoded[0].([]byte)
	if !ok {
		t.Fatalf("actions have type %T", decoded[0])
	}
	if !bytes.Equal(actions, []byte{actionMintPosition, actionSettlePair}) {
		t.Fatalf("unexpected actions %x", actions)
	}
	params, ok := decoded[1].([][]byte)
	if !ok {
		t.Fatalf("params have type %T", decoded[1])
	}
	if len(params) != 2 {
		t.Fatalf("expected one parameter blob per action, got %d", len(params))
	}

	// Mint parameters head layout: five pool key words, then tickLower,
	// tickUpper, liquidity, the two maxima, and the recipient.
	mint := params[0]
	word := func(i int) []byte { return mint[i*32 : (i+1)*32] }
	if got := common.BytesToAddress(word(0)); got != common.HexToAddress(testKey.Currency0) {
		t.Fatalf("currency0 word mismatch: %s", got)
	}
	if got := new(big.Int).SetBytes(word(2)); got.Int64() != 3000 {
		t.Fatalf("fee word mismatch: %s", got)
	}
	lowerWord := word(5)
	// int24 -540 packs as two's complement over the full word.
	if lowerWord[0] != 0xff || new(big.Int).SetBytes(lowerWord[28:]).Int64() != (1<<32)-540 {
		t.Fatalf("tickLower word mismatch: %x", lowerWord)
	}
	if got := new(big.Int).SetBytes(word(6)); got.Int64() != 660 {
		t.Fatalf("tickUpper word mismatch: %s", got)
	}
	if got := new(big.Int).SetBytes(word(7)); got.Cmp(liquidity) != 0 {
		t.Fatalf("liquidity word mismatch: %s", got)
	}
	if got := new(big.Int).SetBytes(word(8)); got.Cmp(amount0Max) != 0 {
		t.Fatalf("amount0Max word mismatch: %s", got)
	}
	if got := new(big.Int).SetBytes(word(9)); got.Cmp(amount1Max) != 0 {
		t.Fatalf("amount1Max word mismatch: %s", got)
	}
	if got := common.BytesToAddress(word(10)); got != recipient {
		t.Fatalf("recipient word mismatch: %s", got)
	}

	// Settle parameters are just the two currencies.
	settleArgs := abi.Arguments{{Type: types.address}, {Type: types.address}}
	settle, err := settleArgs.Unpack(params[1])
	if err != nil {
		t.Fatalf("unpack settle params: %v", err)
	}
	if settle[0].(common.Address) != common.HexToAddress(testKey.Currency0) {
		t.Fatalf("settle currency0 mismatch: %v", settle[0])
	}
	if settle[1].(common.Address) != common.HexToAddress(testKey.Currency1) {
		t.Fatalf("settle currency1 mismatch: %v", settle[1])
	}
}

func TestInitializeEncoding(t *testing.T) {
	managerABI, err := poolManagerABIInstance()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	k, err := toABIPoolKey(testKey)
	if err != nil {
		t.Fatalf("pool key: %v", err)
	}
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 96)
	data, err := managerABI.Pack("initialize", k, sqrtPrice)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	selector := crypto.Keccak256([]byte("initialize((address,address,uint24,int24,address),uint160)"))[:4]
	if !bytes.Equal(data[:4], selector) {
		t.Fatalf("selector mismatch: %x", data[:4])
	}
	body := data[4:]
	if len(body) != 6*32 {
		t.Fatalf("expected six static words, got %d bytes", len(body))
	}
	if got := common.BytesToAddress(body[:32]); got != common.HexToAddress(testKey.Currency0) {
		t.Fatalf("currency0 word mismatch: %s", got)
	}
	if got := new(big.Int).SetBytes(body[3*32 : 4*32]); got.Int64() != 60 {
		t.Fatalf("tickSpacing word mismatch: %s", got)
	}
	if got := new(big.Int).SetBytes(body[5*32:]); got.Cmp(sqrtPrice) != 0 {
		t.Fatalf("sqrt price word mismatch: %s", got)
	}
}

func TestEncodeMintUnlockDataRejectsZeroLiquidity(t *testing.T) {
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")
	if _, err := EncodeMintUnlockData(testKey, -60, 60, new(big.Int), big.NewInt(1), big.NewInt(1), recipient, nil); err == nil {
		t.Fatalf("expected error for zero liquidity")
	}
}
