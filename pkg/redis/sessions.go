package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionKey is the redis key holding an active login session.
func SessionKey(sessionID uuid.UUID) string {
	return sessionKeyPrefix + sessionID.String()
}

// SessionStore tracks which token sessions are still valid. A token whose
// session key is gone has been revoked.
type SessionStore struct {
	rdb goredis.Cmdable
}

func NewSessionStore(rdb goredis.Cmdable) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Put records an active session for userID that expires after ttl.
func (s *SessionStore) Put(ctx context.Context, sessionID, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, SessionKey(sessionID), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// SessionActive reports whether the session has not expired or been revoked.
func (s *SessionStore) SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	err := s.rdb.Get(ctx, SessionKey(sessionID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, goredis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("lookup session: %w", err)
	}
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.rdb.Del(ctx, SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
