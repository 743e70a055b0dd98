package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/pkg/errcodes"
)

type memRepo struct {
	products map[string]entity.Product
	nextID   int
}

func newMemRepo() *memRepo {
	return &memRepo{products: map[string]entity.Product{}}
}

func (r *memRepo) Create(_ context.Context, product entity.Product) (*entity.Product, error) {
	r.nextID++
	product.ID = string(rune('a' + r.nextID))
	product.Status = value.ProductActive
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	r.products[product.ID] = product

	return &product, nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, domain.NewError(errcodes.ProductNotFound, "product not found")
	}

	return &product, nil
}

func (r *memRepo) ListActive(_ context.Context) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range r.products {
		if p.IsListed(time.Now()) {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *memRepo) ListByPublisher(_ context.Context, publisherID string, status value.ProductStatus) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range r.products {
		if p.PublisherID != publisherID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

func (r *memRepo) Update(_ context.Context, product entity.Product) (*entity.Product, error) {
	if _, ok := r.products[product.ID]; !ok {
		return nil, domain.NewError(errcodes.ProductNotFound, "product not found")
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = product

	return &product, nil
}

func (r *memRepo) SetStatus(_ context.Context, id string, status value.ProductStatus) error {
	product, ok := r.products[id]
	if !ok {
		return domain.NewError(errcodes.ProductNotFound, "product not found")
	}
	product.Status = status
	r.products[id] = product

	return nil
}

func (r *memRepo) ExpireOverdue(_ context.Context) (int, error) {
	count := 0
	for id, p := range r.products {
		if p.Status == value.ProductActive && p.ExpiresAt.Before(time.Now()) {
			p.Status = value.ProductExpired
			r.products[id] = p
			count++
		}
	}

	return count, nil
}

type memScheduler struct {
	scheduled map[string]time.Time
	err       error
}

func newMemScheduler() *memScheduler {
	return &memScheduler{scheduled: map[string]time.Time{}}
}

func (s *memScheduler) ScheduleExpiry(_ context.Context, productID string, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.scheduled[productID] = at

	return nil
}

func validInput() CreateInput {
	return CreateInput{
		Title:        "城市山地车",
		PublishPrice: 1500,
		ImageURL:     "https://example.com/bike.jpg",
		PublisherID:  "pub-1",
		DurationDays: 7,
	}
}

func TestService_Create_SchedulesExpiryAtDeadline(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	scheduler := newMemScheduler()
	service := NewService(repo, scheduler)

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	wantExpiry := time.Now().Add(7 * 24 * time.Hour)
	require.WithinDuration(t, wantExpiry, created.ExpiresAt, time.Minute)
	require.Equal(t, created.ExpiresAt, scheduler.scheduled[created.ID])
	require.Equal(t, value.ProductActive, created.Status)
}

func TestService_Create_RejectsBadInput(t *testing.T) {
	t.Parallel()

	service := NewService(newMemRepo(), newMemScheduler())

	tests := []struct {
		name     string
		mutate   func(*CreateInput)
		wantCode string
	}{
		{
			name:     "non-positive price",
			mutate:   func(in *CreateInput) { in.PublishPrice = 0 },
			wantCode: errcodes.InvalidPrice.String(),
		},
		{
			name:     "non-positive duration",
			mutate:   func(in *CreateInput) { in.DurationDays = -1 },
			wantCode: errcodes.InvalidDuration.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validInput()
			tt.mutate(&input)

			_, err := service.Create(context.Background(), input)
			require.Error(t, err)

			code, ok := domain.GetCode(err)
			require.True(t, ok)
			require.Equal(t, tt.wantCode, code.String())
		})
	}
}

func TestService_Create_SchedulerFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	scheduler := newMemScheduler()
	scheduler.err = context.DeadlineExceeded
	service := NewService(repo, scheduler)

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, created)
}

func TestService_Update_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	service := NewService(repo, newMemScheduler())

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	title := "别人的车"
	_, err = service.Update(context.Background(), created.ID, "someone-else", UpdateInput{Title: &title})
	require.Error(t, err)

	code, ok := domain.GetCode(err)
	require.True(t, ok)
	require.Equal(t, errcodes.Forbidden, code)
}

func TestService_Update_DurationReanchorsExpiry(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	scheduler := newMemScheduler()
	service := NewService(repo, scheduler)

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	days := 14
	updated, err := service.Update(context.Background(), created.ID, "pub-1", UpdateInput{DurationDays: &days})
	require.NoError(t, err)

	require.Equal(t, created.CreatedAt.Add(14*24*time.Hour), updated.ExpiresAt)
	require.Equal(t, updated.ExpiresAt, scheduler.scheduled[created.ID])
}

func TestService_Delete_IsSoft(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	service := NewService(repo, newMemScheduler())

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID, "pub-1"))

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, value.ProductDeleted, stored.Status)
}

func TestService_Expire_SkipsMovedDeadline(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	service := NewService(repo, newMemScheduler())

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	// Deadline is still in the future, the queued task must be a no-op.
	require.NoError(t, service.Expire(context.Background(), created.ID))

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, value.ProductActive, stored.Status)
}

func TestService_Expire_FlipsOverdueProduct(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	service := NewService(repo, newMemScheduler())

	created, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	overdue := repo.products[created.ID]
	overdue.ExpiresAt = time.Now().Add(-time.Hour)
	repo.products[created.ID] = overdue

	require.NoError(t, service.Expire(context.Background(), created.ID))

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, value.ProductExpired, stored.Status)
}

func TestService_ExpireOverdue_CountsSweep(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	service := NewService(repo, newMemScheduler())

	for range 3 {
		created, err := service.Create(context.Background(), validInput())
		require.NoError(t, err)

		overdue := repo.products[created.ID]
		overdue.ExpiresAt = time.Now().Add(-time.Minute)
		repo.products[created.ID] = overdue
	}

	count, err := service.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)
}
