package product

import (
	"context"
	"fmt"
	"time"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/pkg/contextx"
	"duoduo-bargain/pkg/errcodes"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const hoursPerDay = 24

type Repository interface {
	Create(ctx context.Context, product entity.Product) (*entity.Product, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListActive(ctx context.Context) ([]entity.Product, error)
	ListByPublisher(ctx context.Context, publisherID string, status value.ProductStatus) ([]entity.Product, error)
	Update(ctx context.Context, product entity.Product) (*entity.Product, error)
	SetStatus(ctx context.Context, id string, status value.ProductStatus) error
	ExpireOverdue(ctx context.Context) (int, error)
}

// ExpiryScheduler queues the deferred task that flips a product to expired
// once its listing window closes.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, productID string, at time.Time) error
}

type Service struct {
	repo      Repository
	scheduler ExpiryScheduler
}

func NewService(repo Repository, scheduler ExpiryScheduler) *Service {
	return &Service{
		repo:      repo,
		scheduler: scheduler,
	}
}

type CreateInput struct {
	Title        string
	Description  *string
	PublishPrice int
	ImageURL     string
	PublisherID  string
	Category     *string
	DurationDays int
}

// Create publishes a product and schedules its expiry.
func (s *Service) Create(ctx context.Context, input CreateInput) (*entity.Product, error) {
	if input.PublishPrice <= 0 {
		return nil, domain.NewError(errcodes.InvalidPrice, "publish price must be positive")
	}

	if input.DurationDays <= 0 {
		return nil, domain.NewError(errcodes.InvalidDuration, "duration must be positive")
	}

	expiresAt := time.Now().Add(time.Duration(input.DurationDays) * hoursPerDay * time.Hour)

	product, err := s.repo.Create(ctx, entity.Product{
		Title:        input.Title,
		Description:  input.Description,
		PublishPrice: input.PublishPrice,
		ImageURL:     input.ImageURL,
		PublisherID:  input.PublisherID,
		Category:     input.Category,
		DurationDays: input.DurationDays,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.Create: %w", err)
	}

	// A failed enqueue is not fatal: the cleanup sweep catches overdue
	// products anyway.
	if err := s.scheduler.ScheduleExpiry(ctx, product.ID, expiresAt); err != nil {
		logger(ctx).Error("scheduler.ScheduleExpiry", "product_id", product.ID, "error", err)
	}

	return product, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.GetByID: %w", err)
	}

	return product, nil
}

// ListActive returns the bargain hall: active, unexpired products,
// newest first.
func (s *Service) ListActive(ctx context.Context) ([]entity.Product, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.ListActive: %w", err)
	}

	return products, nil
}

func (s *Service) ListMine(ctx context.Context, publisherID string, status value.ProductStatus) ([]entity.Product, error) {
	products, err := s.repo.ListByPublisher(ctx, publisherID, status)
	if err != nil {
		return nil, fmt.Errorf("repo.ListByPublisher: %w", err)
	}

	return products, nil
}

type UpdateInput struct {
	Title        *string
	Description  *string
	PublishPrice *int
	ImageURL     *string
	Category     *string
	DurationDays *int
}

// Update applies a partial edit to the caller's own product. Changing the
// duration re-anchors expiry at the original creation time.
func (s *Service) Update(ctx context.Context, id, callerID string, input UpdateInput) (*entity.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.GetByID: %w", err)
	}

	if product.PublisherID != callerID {
		return nil, domain.NewError(errcodes.Forbidden, "not your product")
	}

	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.PublishPrice != nil {
		if *input.PublishPrice <= 0 {
			return nil, domain.NewError(errcodes.InvalidPrice, "publish price must be positive")
		}
		product.PublishPrice = *input.PublishPrice
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.DurationDays != nil {
		if *input.DurationDays <= 0 {
			return nil, domain.NewError(errcodes.InvalidDuration, "duration must be positive")
		}
		product.DurationDays = *input.DurationDays
		product.ExpiresAt = product.CreatedAt.Add(time.Duration(*input.DurationDays) * hoursPerDay * time.Hour)
	}

	updated, err := s.repo.Update(ctx, *product)
	if err != nil {
		return nil, fmt.Errorf("repo.Update: %w", err)
	}

	if input.DurationDays != nil {
		if err := s.scheduler.ScheduleExpiry(ctx, updated.ID, updated.ExpiresAt); err != nil {
			logger(ctx).Error("scheduler.ScheduleExpiry", "product_id", updated.ID, "error", err)
		}
	}

	return updated, nil
}

// Delete soft-deletes the caller's own product.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("repo.GetByID: %w", err)
	}

	if product.PublisherID != callerID {
		return domain.NewError(errcodes.Forbidden, "not your product")
	}

	if err := s.repo.SetStatus(ctx, id, value.ProductDeleted); err != nil {
		return fmt.Errorf("repo.SetStatus: %w", err)
	}

	return nil
}

// Expire flips one product to expired; used by the deferred task handler.
func (s *Service) Expire(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("repo.GetByID: %w", err)
	}

	// The deadline may have moved since the task was queued.
	if product.Status != value.ProductActive || product.ExpiresAt.After(time.Now()) {
		return nil
	}

	if err := s.repo.SetStatus(ctx, id, value.ProductExpired); err != nil {
		return fmt.Errorf("repo.SetStatus: %w", err)
	}

	return nil
}

// ExpireOverdue sweeps every overdue active product; backs the cleanup
// endpoint.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	count, err := s.repo.ExpireOverdue(ctx)
	if err != nil {
		return 0, fmt.Errorf("repo.ExpireOverdue: %w", err)
	}

	if count > 0 {
		logger(ctx).Info("expired overdue products", "count", count)
	}

	return count, nil
}
