package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/freshcart/freshcart-backend/pkg/logger"
)

const defaultCartRetention = 30 * 24 * time.Hour

type cartPruner interface {
	PruneLinesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartRetentionJobParams configure the abandoned cart sweep.
type CartRetentionJobParams struct {
	Logger    *logger.Logger
	Carts     cartPruner
	Retention time.Duration
}

// NewCartRetentionJob builds the job that prunes cart lines untouched
// for longer than the retention window.
func NewCartRetentionJob(params CartRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart pruner required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultCartRetention
	}
	return &cartRetentionJob{
		logg:      params.Logger,
		carts:     params.Carts,
		retention: retention,
		now:       time.Now,
	}, nil
}

type cartRetentionJob struct {
	logg      *logger.Logger
	carts     cartPruner
	retention time.Duration
	now       func() time.Time
}

func (j *cartRetentionJob) Name() string { return "cart-retention" }

func (j *cartRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	pruned, err := j.carts.PruneLinesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune cart lines: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"pruned": pruned})
	j.logg.Info(logCtx, "cart retention sweep complete")
	return nil
}
