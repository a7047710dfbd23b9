package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rangekit/internal/model"
)

// Store provides Postgres persistence for position plans.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertPlans writes a batch of position plans.
func (s *Store) InsertPlans(ctx context.Context, plans []model.PositionPlan) error {
	if len(plans) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, plan := range plans {
		batch.Queue(`
			INSERT INTO position_plans (
				chain_id, currency0, currency1, fee, tick_spacing, hooks,
				sqrt_price_x96, current_tick, tick_lower, tick_upper,
				liquidity, amount0, amount1, amount0_max, amount1_max,
				recipient, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		`,
			int64(plan.ChainID),
			plan.Pool.Currency0,
			plan.Pool.Currency1,
			plan.Pool.Fee,
			plan.Pool.TickSpacing,
			plan.Pool.Hooks,
			plan.SqrtPriceX96,
			plan.CurrentTick,
			plan.TickLower,
			plan.TickUpper,
			plan.Liquidity,
			plan.Amount0,
			plan.Amount1,
			plan.Amount0Max,
			plan.Amount1Max,
			plan.Recipient,
			plan.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range plans {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutPlanBatch satisfies storage.Storage using a background context.
func (s *Store) PutPlanBatch(plans []model.PositionPlan) error {
	return s.InsertPlans(context.Background(), plans)
}
