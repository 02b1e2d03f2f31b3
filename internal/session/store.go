// Package session keeps server-side session records in Redis and signs the
// tokens that point at them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/models"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user:sessions:"
)

// Store wraps Redis for session management. Each session lives under its
// own key with a TTL; a per-user set indexes the sessions of one user.
type Store struct {
	rdb         redis.UniversalClient
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

func NewStore(rdb redis.UniversalClient, sessionTTL, rememberTTL time.Duration) *Store {
	return &Store{rdb: rdb, sessionTTL: sessionTTL, rememberTTL: rememberTTL, now: time.Now}
}

// Create stores a new session. Remembered sessions use the longer TTL.
func (s *Store) Create(ctx context.Context, userID, email string, remember bool) (*models.Session, error) {
	ttl := s.sessionTTL
	if remember {
		ttl = s.rememberTTL
	}
	now := s.now().UTC()
	sess := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	userKey := userSessionKeyPrefix + userID
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+sess.ID, data, ttl)
		pipe.SAdd(ctx, userKey, sess.ID)
		pipe.Expire(ctx, userKey, s.longestTTL())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

// Get returns apperr.ErrSessionNotFound once the session is deleted or expired.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if errors.Is(err, apperr.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKeyPrefix+sessionID)
		pipe.SRem(ctx, userSessionKeyPrefix+sess.UserID, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAllForUser ends every session of userID.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	userKey := userSessionKeyPrefix + userID
	ids, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, userKey)

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func (s *Store) longestTTL() time.Duration {
	if s.rememberTTL > s.sessionTTL {
		return s.rememberTTL
	}
	return s.sessionTTL
}
