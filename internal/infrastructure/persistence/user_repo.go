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
	"duoduo-bargain/pkg/errcodes"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var schema userSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.UserNotFound, "user not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get user")
	}

	return schema.toDomain(), nil
}

func (r *UserRepository) GetBySecondMeID(ctx context.Context, secondMeID string) (*entity.User, error) {
	query := `SELECT * FROM users WHERE secondme_id = $1`

	var schema userSchema
	if err := r.db.GetContext(ctx, &schema, query, secondMeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.UserNotFound, "user not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get user")
	}

	return schema.toDomain(), nil
}

// Upsert creates the user on first login and refreshes profile and tokens on
// subsequent ones, keyed by the SecondMe identity.
func (r *UserRepository) Upsert(ctx context.Context, user entity.User) (*entity.User, error) {
	now := time.Now()
	schema := userSchema{
		ID:           ulid.Make().String(),
		SecondMeID:   user.SecondMeID,
		Name:         user.Name,
		Image:        user.Image,
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO users (id, secondme_id, name, image, access_token, refresh_token, created_at, updated_at)
		VALUES (:id, :secondme_id, :name, :image, :access_token, :refresh_token, :created_at, :updated_at)
		ON CONFLICT (secondme_id) DO UPDATE SET
			name = EXCLUDED.name,
			image = EXCLUDED.image,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to upsert user")
	}

	return r.GetBySecondMeID(ctx, user.SecondMeID)
}

// UpdateTokens stores a refreshed token pair.
func (r *UserRepository) UpdateTokens(ctx context.Context, secondMeID, accessToken string, refreshToken *string) error {
	query := `
		UPDATE users
		SET access_token = $1, refresh_token = $2, updated_at = $3
		WHERE secondme_id = $4`

	res, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, time.Now(), secondMeID)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update tokens")
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.NewError(errcodes.UserNotFound, "user not found")
	}

	return nil
}
