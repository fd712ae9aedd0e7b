package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps session id -> user id mappings in Redis.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore returns a store whose sessions live for ttl.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// TTL is the lifetime of newly created sessions.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create opens a session for userID and returns its id.
func (s *SessionStore) Create(ctx context.Context, userID uint) (string, error) {
	sid := uuid.New().String()
	if err := s.rdb.Set(ctx, sessionKeyPrefix+sid, strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

// Get resolves a session id to its user id.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (uint, error) {
	val, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, ErrSessionNotFound
	}
	return uint(id), nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
