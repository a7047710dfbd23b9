package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"rangekit/internal/model"
)

func testPlan(tickLower, tickUpper int32) model.PositionPlan {
	return model.PositionPlan{
		Pool: model.PoolKey{
			Currency0:   "0x1111111111111111111111111111111111111111",
			Currency1:   "0x2222222222222222222222222222222222222222",
			Fee:         3000,
			TickSpacing: 60,
		},
		SqrtPriceX96: "79228162514264337593543950336",
		TickLower:    tickLower,
		TickUpper:    tickUpper,
		Liquidity:    "123456789",
		Amount0:      "1000",
		Amount1:      "2000",
		Amount0Max:   "1100",
		Amount1Max:   "2200",
		CreatedAt:    "2024-01-01T00:00:00Z",
	}
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "plans.jsonl")
	store := NewJsonlStorage(path)

	if err := store.PutPlanBatch([]model.PositionPlan{testPlan(-600, 600)}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := store.PutPlanBatch([]model.PositionPlan{testPlan(-120, 120), testPlan(0, 60)}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var plans []model.PositionPlan
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var plan model.PositionPlan
		if err := json.Unmarshal(scanner.Bytes(), &plan); err != nil {
			t.Fatalf("line %d: %v", len(plans)+1, err)
		}
		plans = append(plans, plan)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	if plans[0].TickLower != -600 || plans[2].TickUpper != 60 {
		t.Fatalf("plans out of order: %+v", plans)
	}
	if plans[1].Pool.Fee != 3000 {
		t.Fatalf("pool key not preserved: %+v", plans[1].Pool)
	}
}

func TestJsonlStorageEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.jsonl")
	if err := NewJsonlStorage(path).PutPlanBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch must not create the file, stat err %v", err)
	}
}
