// Package redis keeps shopper sessions in Redis so carts survive restarts and
// are shared between API replicas.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/storefront/internal/domain/session"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * 24 * time.Hour

var _ session.Store = (*SessionStore)(nil)

// SessionStore implements session.Store. Every save refreshes the TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore returns a SessionStore; a non-positive ttl uses DefaultTTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Load returns the state saved for id.
func (s *SessionStore) Load(ctx context.Context, id string) (*session.State, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return session.Decode(data)
}

// Save replaces the state of st.ID.
func (s *SessionStore) Save(ctx context.Context, st *session.State) error {
	if err := s.client.Set(ctx, sessionKey(st.ID), session.Encode(st), s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete removes the state of id.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func sessionKey(id string) string {
	return "session:" + id
}
