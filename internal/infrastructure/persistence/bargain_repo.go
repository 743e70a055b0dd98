package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/pkg/errcodes"
)

type BargainRepository struct {
	db *sqlx.DB
}

func NewBargainRepository(db *sqlx.DB) *BargainRepository {
	return &BargainRepository{db: db}
}

// withTx runs fn in a transaction.
func (r *BargainRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// CreateSession inserts a new session in negotiating status with
// currentPrice seeded from publishPrice.
func (r *BargainRepository) CreateSession(ctx context.Context, input entity.BargainSession) (*entity.BargainSession, error) {
	schema := sessionSchema{
		ID:           ulid.Make().String(),
		ProductID:    input.ProductID,
		PublisherID:  input.PublisherID,
		BargainerID:  input.BargainerID,
		PublishPrice: input.PublishPrice,
		TargetPrice:  input.TargetPrice,
		CurrentPrice: input.PublishPrice,
		Status:       value.BargainNegotiating.String(),
		CreatedAt:    time.Now(),
	}

	query := `
		INSERT INTO bargain_sessions (
			id, product_id, publisher_id, bargainer_id, publish_price,
			target_price, current_price, status, created_at
		) VALUES (
			:id, :product_id, :publisher_id, :bargainer_id, :publish_price,
			:target_price, :current_price, :status, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to create session")
	}

	return schema.toDomain(), nil
}

// GetSession returns the session with its message log ordered by timestamp.
func (r *BargainRepository) GetSession(ctx context.Context, id string) (*entity.BargainSession, error) {
	query := `
		SELECT id, product_id, publisher_id, bargainer_id, publish_price,
		       target_price, current_price, status, final_price, created_at, completed_at
		FROM bargain_sessions
		WHERE id = $1`

	var schema sessionSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.SessionNotFound, "session not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get session")
	}

	session := schema.toDomain()

	messages, err := r.listMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Messages = messages

	return session, nil
}

func (r *BargainRepository) listMessages(ctx context.Context, sessionID string) ([]entity.BargainMessage, error) {
	query := `
		SELECT id, session_id, sender_id, sender_role, content, timestamp, is_from_ai
		FROM bargain_messages
		WHERE session_id = $1
		ORDER BY timestamp ASC`

	var schemas []messageSchema
	if err := r.db.SelectContext(ctx, &schemas, query, sessionID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list messages")
	}

	messages := make([]entity.BargainMessage, 0, len(schemas))
	for _, s := range schemas {
		messages = append(messages, *s.toDomain())
	}

	return messages, nil
}

// AppendMessage inserts one utterance into the session's append-only log.
func (r *BargainRepository) AppendMessage(
	ctx context.Context,
	sessionID, senderID string,
	role value.SenderRole,
	content string,
	isFromAI bool,
) (*entity.BargainMessage, error) {
	schema := messageSchema{
		ID:         ulid.Make().String(),
		SessionID:  sessionID,
		SenderID:   senderID,
		SenderRole: role.String(),
		Content:    content,
		Timestamp:  time.Now(),
		IsFromAI:   isFromAI,
	}

	query := `
		INSERT INTO bargain_messages (id, session_id, sender_id, sender_role, content, timestamp, is_from_ai)
		VALUES (:id, :session_id, :sender_id, :sender_role, :content, :timestamp, :is_from_ai)`

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to append message")
	}

	return schema.toDomain(), nil
}

// UpdateCurrentPrice persists the tracked best price.
func (r *BargainRepository) UpdateCurrentPrice(ctx context.Context, id string, currentPrice int) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE bargain_sessions
			SET current_price = $1
			WHERE id = $2`

		return r.execUpdateTx(ctx, tx, query, currentPrice, id)
	})
}

// CompleteSession transitions negotiating -> completed and sets the final
// price. Sessions already in a terminal state are not touched.
func (r *BargainRepository) CompleteSession(ctx context.Context, id string, finalPrice int) (*entity.BargainSession, error) {
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE bargain_sessions
			SET status = $1, final_price = $2, completed_at = $3
			WHERE id = $4 AND status = $5`

		return r.execUpdateTx(ctx, tx, query,
			value.BargainCompleted.String(), finalPrice, time.Now(), id, value.BargainNegotiating.String())
	})
	if err != nil {
		return nil, r.classifyCloseError(ctx, id, err)
	}

	return r.GetSession(ctx, id)
}

// FailSession transitions negotiating -> failed.
func (r *BargainRepository) FailSession(ctx context.Context, id string) (*entity.BargainSession, error) {
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE bargain_sessions
			SET status = $1, completed_at = $2
			WHERE id = $3 AND status = $4`

		return r.execUpdateTx(ctx, tx, query,
			value.BargainFailed.String(), time.Now(), id, value.BargainNegotiating.String())
	})
	if err != nil {
		return nil, r.classifyCloseError(ctx, id, err)
	}

	return r.GetSession(ctx, id)
}

// classifyCloseError tells a missing session apart from one that already
// reached a terminal state.
func (r *BargainRepository) classifyCloseError(ctx context.Context, id string, err error) error {
	code, ok := domain.GetCode(err)
	if !ok || code != errcodes.SessionNotFound {
		return err
	}

	if _, getErr := r.GetSession(ctx, id); getErr == nil {
		return domain.NewError(errcodes.SessionAlreadyClosed, "session is already closed")
	}

	return err
}

// ListPurchases returns the user's completed sessions, newest first.
func (r *BargainRepository) ListPurchases(ctx context.Context, bargainerID string) ([]entity.BargainSession, error) {
	query := `
		SELECT id, product_id, publisher_id, bargainer_id, publish_price,
		       target_price, current_price, status, final_price, created_at, completed_at
		FROM bargain_sessions
		WHERE bargainer_id = $1 AND status = $2
		ORDER BY completed_at DESC`

	var schemas []sessionSchema
	if err := r.db.SelectContext(ctx, &schemas, query, bargainerID, value.BargainCompleted.String()); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list purchases")
	}

	sessions := make([]entity.BargainSession, 0, len(schemas))
	for _, s := range schemas {
		sessions = append(sessions, *s.toDomain())
	}

	return sessions, nil
}

func (r *BargainRepository) execUpdateTx(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to execute update")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.SessionNotFound, "session not found")
	}

	return nil
}
