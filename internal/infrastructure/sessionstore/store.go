package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const keyPrefix = "login-session:"

// LoginSession is what the session cookie resolves to.
type LoginSession struct {
	UserID     string `json:"userId"`
	SecondMeID string `json:"secondmeId"`
}

// Store keeps login sessions in Redis keyed by an opaque cookie sid.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Create stores the session under a fresh sid and returns it.
func (s *Store) Create(ctx context.Context, session LoginSession) (string, error) {
	sid := xid.New().String()

	payload, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sid, payload, s.ttl).Err(); err != nil {
		return "", domain.WrapError(err, errcodes.InternalServerError, "failed to store login session")
	}

	return sid, nil
}

func (s *Store) Get(ctx context.Context, sid string) (*LoginSession, error) {
	payload, err := s.client.Get(ctx, keyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewError(errcodes.Unauthorized, "login session not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to load login session")
	}

	var session LoginSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode login session")
	}

	return &session, nil
}

func (s *Store) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to delete login session")
	}

	return nil
}
