package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"duoduo-bargain/internal/domain/service/product"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// TypeProductExpire is the asynq task pattern for deferred product expiry.
const TypeProductExpire = "product:expire"

type expirePayload struct {
	ProductID string `json:"productId"`
}

// ExpiryScheduler enqueues a product:expire task to run at the product's
// listing deadline. Implements product.ExpiryScheduler.
type ExpiryScheduler struct {
	client *asynq.Client
}

func NewExpiryScheduler(client *asynq.Client) *ExpiryScheduler {
	return &ExpiryScheduler{client: client}
}

func (s *ExpiryScheduler) ScheduleExpiry(ctx context.Context, productID string, at time.Time) error {
	payload, err := json.Marshal(expirePayload{ProductID: productID})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	task := asynq.NewTask(TypeProductExpire, payload)

	if _, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(at)); err != nil {
		return fmt.Errorf("client.EnqueueContext: %w", err)
	}

	return nil
}

// HandleProductExpire returns the asynq handler that flips an overdue
// product to expired.
func HandleProductExpire(products *product.Service) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload expirePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("json.Unmarshal: %w", err)
		}

		if err := products.Expire(ctx, payload.ProductID); err != nil {
			return fmt.Errorf("products.Expire: %w", err)
		}

		return nil
	}
}
