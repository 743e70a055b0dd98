package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/pkg/errcodes"
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product entity.Product) (*entity.Product, error) {
	now := time.Now()
	schema := productSchema{
		ID:           ulid.Make().String(),
		Title:        product.Title,
		Description:  product.Description,
		PublishPrice: product.PublishPrice,
		ImageURL:     product.ImageURL,
		PublisherID:  product.PublisherID,
		Category:     product.Category,
		DurationDays: product.DurationDays,
		ExpiresAt:    product.ExpiresAt,
		Status:       value.ProductActive.String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO products (
			id, title, description, publish_price, image_url, publisher_id,
			category, duration_days, expires_at, status, created_at, updated_at
		) VALUES (
			:id, :title, :description, :publish_price, :image_url, :publisher_id,
			:category, :duration_days, :expires_at, :status, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to create product")
	}

	return schema.toDomain(), nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT * FROM products WHERE id = $1`

	var schema productSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.ProductNotFound, "product not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get product")
	}

	return schema.toDomain(), nil
}

// ListActive returns products still visible in the bargain hall, newest
// first.
func (r *ProductRepository) ListActive(ctx context.Context) ([]entity.Product, error) {
	query := `
		SELECT * FROM products
		WHERE status = $1 AND expires_at > $2
		ORDER BY created_at DESC`

	return r.list(ctx, query, value.ProductActive.String(), time.Now())
}

// ListByPublisher returns the user's products; status narrows the result
// when non-empty.
func (r *ProductRepository) ListByPublisher(ctx context.Context, publisherID string, status value.ProductStatus) ([]entity.Product, error) {
	if status != "" {
		query := `
			SELECT * FROM products
			WHERE publisher_id = $1 AND status = $2
			ORDER BY created_at DESC`

		return r.list(ctx, query, publisherID, status.String())
	}

	query := `
		SELECT * FROM products
		WHERE publisher_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, publisherID)
}

func (r *ProductRepository) Update(ctx context.Context, product entity.Product) (*entity.Product, error) {
	query := `
		UPDATE products SET
			title = :title,
			description = :description,
			publish_price = :publish_price,
			image_url = :image_url,
			category = :category,
			duration_days = :duration_days,
			expires_at = :expires_at,
			updated_at = :updated_at
		WHERE id = :id`

	schema := productSchema{
		ID:           product.ID,
		Title:        product.Title,
		Description:  product.Description,
		PublishPrice: product.PublishPrice,
		ImageURL:     product.ImageURL,
		Category:     product.Category,
		DurationDays: product.DurationDays,
		ExpiresAt:    product.ExpiresAt,
		UpdatedAt:    time.Now(),
	}

	res, err := r.db.NamedExecContext(ctx, query, schema)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to update product")
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, domain.NewError(errcodes.ProductNotFound, "product not found")
	}

	return r.GetByID(ctx, product.ID)
}

// SetStatus moves a product to the given lifecycle state.
func (r *ProductRepository) SetStatus(ctx context.Context, id string, status value.ProductStatus) error {
	query := `
		UPDATE products
		SET status = $1, updated_at = $2
		WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, status.String(), time.Now(), id)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to set product status")
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.NewError(errcodes.ProductNotFound, "product not found")
	}

	return nil
}

// ExpireOverdue marks every active product past its deadline as expired and
// returns the number touched.
func (r *ProductRepository) ExpireOverdue(ctx context.Context) (int, error) {
	query := `
		UPDATE products
		SET status = $1, updated_at = $2
		WHERE status = $3 AND expires_at <= $2`

	res, err := r.db.ExecContext(ctx, query,
		value.ProductExpired.String(), time.Now(), value.ProductActive.String())
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to expire products")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	return int(rows), nil
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]entity.Product, error) {
	var schemas []productSchema
	if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list products")
	}

	products := make([]entity.Product, 0, len(schemas))
	for _, s := range schemas {
		products = append(products, *s.toDomain())
	}

	return products, nil
}
