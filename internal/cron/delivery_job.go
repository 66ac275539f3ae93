package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type orderDeliverer interface {
	DeliverDue(ctx context.Context, now time.Time) (int64, error)
}

// DeliveryJobParams configure the delivery sweep.
type DeliveryJobParams struct {
	Logger *logger.Logger
	Orders orderDeliverer
}

// NewDeliveryJob builds the job that flips due orders to delivered. The
// transition is persisted state, so a missed cycle is caught up by the
// next one.
func NewDeliveryJob(params DeliveryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order deliverer required")
	}
	return &deliveryJob{
		logg:   params.Logger,
		orders: params.Orders,
		now:    time.Now,
	}, nil
}

type deliveryJob struct {
	logg   *logger.Logger
	orders orderDeliverer
	now    func() time.Time
}

func (j *deliveryJob) Name() string { return "delivery-sweep" }

func (j *deliveryJob) Run(ctx context.Context) error {
	count, err := j.orders.DeliverDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("deliver due orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"delivered": count})
	j.logg.Info(logCtx, "delivery sweep complete")
	return nil
}
