package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const trailKeyPrefix = "verdict:audit:trail:"

// CachedStore wraps a Store with a Redis read-through cache for trail
// retrieval. Appends go straight to the inner store and invalidate the
// cached trail, so a hit can never hide a newer entry.
type CachedStore struct {
	inner  Store
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps inner with a Redis cache. Cache failures degrade to
// the inner store; they are logged, never surfaced.
func NewCachedStore(inner Store, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) Append(ctx context.Context, entry Entry) error {
	if err := s.inner.Append(ctx, entry); err != nil {
		return err
	}
	if err := s.client.Del(ctx, trailKey(entry.ApplicationID)).Err(); err != nil {
		s.logWarn(ctx, "failed to invalidate cached audit trail", entry.ApplicationID, err)
	}
	return nil
}

func (s *CachedStore) ListByApplication(ctx context.Context, applicationID string) ([]Entry, error) {
	key := trailKey(applicationID)

	cached, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var entries []Entry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
		// Corrupt cache payload; fall through to the inner store.
		_ = s.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		s.logWarn(ctx, "audit trail cache read failed", applicationID, err)
	}

	entries, err := s.inner.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(entries); err == nil {
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.logWarn(ctx, "audit trail cache write failed", applicationID, err)
		}
	}
	return entries, nil
}

func trailKey(applicationID string) string {
	return fmt.Sprintf("%s%s", trailKeyPrefix, applicationID)
}

func (s *CachedStore) logWarn(ctx context.Context, msg, applicationID string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, "application_id", applicationID, "error", err)
	}
}
