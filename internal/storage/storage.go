package storage

import "rangekit/internal/model"

// Storage defines a sink for computed position plans.
type Storage interface {
	PutPlanBatch(plans []model.PositionPlan) error
}
