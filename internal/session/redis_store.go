// Package session stores per-visitor edit-token capability maps.
package session

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// EditTokenStore keeps one Redis hash per visitor session, mapping comment
// identifiers to the edit tokens that session was granted at creation time.
// Ownership of a comment is proven by holding a matching token.
//
// Entries may still be keyed by a comment's legacy numeric id if they predate
// the durable identifier scheme; Authorize migrates such entries to the
// durable key the first time they match.
type EditTokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewEditTokenStore connects to Redis and verifies the connection.
func NewEditTokenStore(redisURL string, ttl time.Duration) (*EditTokenStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewEditTokenStoreWithClient(client, ttl), nil
}

// NewEditTokenStoreWithClient wraps an existing Redis client.
func NewEditTokenStoreWithClient(client *redis.Client, ttl time.Duration) *EditTokenStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &EditTokenStore{
		client: client,
		prefix: "edittok:",
		ttl:    ttl,
	}
}

func (s *EditTokenStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Grant records the edit token for a comment the session just created and
// refreshes the session's TTL.
func (s *EditTokenStore) Grant(ctx context.Context, sessionID, commentID, token string) error {
	if sessionID == "" || commentID == "" || token == "" {
		return errors.New("session id, comment id and token are required")
	}
	key := s.key(sessionID)
	if err := s.client.HSet(ctx, key, commentID, token).Err(); err != nil {
		return fmt.Errorf("grant edit token: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh session ttl: %w", err)
	}
	return nil
}

// Authorize reports whether the session holds an edit token matching want for
// the given comment. The durable id is checked first; failing that, an entry
// under the legacy numeric id is accepted and migrated to the durable key.
// The migration is read-triggered and idempotent: after a legacy match the
// hash holds only the durable-keyed entry.
func (s *EditTokenStore) Authorize(ctx context.Context, sessionID, commentID string, legacyID int64, want string) (bool, error) {
	if sessionID == "" || want == "" {
		return false, nil
	}
	key := s.key(sessionID)

	held, err := s.client.HGet(ctx, key, commentID).Result()
	if err == nil {
		return tokensEqual(held, want), nil
	}
	if !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("lookup edit token: %w", err)
	}

	legacyField := strconv.FormatInt(legacyID, 10)
	held, err = s.client.HGet(ctx, key, legacyField).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup legacy edit token: %w", err)
	}
	if !tokensEqual(held, want) {
		return false, nil
	}

	if err := s.client.HSet(ctx, key, commentID, held).Err(); err != nil {
		return false, fmt.Errorf("migrate legacy edit token: %w", err)
	}
	if err := s.client.HDel(ctx, key, legacyField).Err(); err != nil {
		return false, fmt.Errorf("drop legacy edit token: %w", err)
	}
	return true, nil
}

// Revoke drops both keyings for a comment, used after deletion.
func (s *EditTokenStore) Revoke(ctx context.Context, sessionID, commentID string, legacyID int64) error {
	if sessionID == "" {
		return nil
	}
	key := s.key(sessionID)
	if err := s.client.HDel(ctx, key, commentID, strconv.FormatInt(legacyID, 10)).Err(); err != nil {
		return fmt.Errorf("revoke edit token: %w", err)
	}
	return nil
}

func tokensEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// Close closes the Redis connection.
func (s *EditTokenStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *EditTokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
