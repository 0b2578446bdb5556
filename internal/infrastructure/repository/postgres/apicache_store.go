package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/arkadyv/solkoff-board/internal/domain/apicache"
	qb "github.com/arkadyv/solkoff-board/internal/platform/querybuilder"
)

// APICacheStore persists provider responses across restarts, so a fresh
// process keeps honoring the cache TTL instead of replaying every call.
type APICacheStore struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

func NewAPICacheStore(db *sqlx.DB, clock clockwork.Clock) *APICacheStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &APICacheStore{db: db, clock: clock}
}

func (s *APICacheStore) Get(ctx context.Context, key string) (apicache.Entry, bool, error) {
	query, args, err := qb.Select("cache_key", "endpoint", "response_data", "cached_at", "expires_at").
		From("api_cache").
		Where(qb.Eq("cache_key", key)).
		Limit(1).
		ToSQL()
	if err != nil {
		return apicache.Entry{}, false, fmt.Errorf("build select cache entry query: %w", err)
	}

	var row apiCacheTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return apicache.Entry{}, false, nil
		}
		return apicache.Entry{}, false, fmt.Errorf("select cache entry key=%s: %w", key, err)
	}

	return apicache.Entry{
		Key:       row.CacheKey,
		Endpoint:  row.Endpoint,
		Body:      row.ResponseData,
		CachedAt:  row.CachedAt,
		ExpiresAt: row.ExpiresAt,
	}, true, nil
}

func (s *APICacheStore) Put(ctx context.Context, entry apicache.Entry) error {
	query, args, err := qb.InsertInto("api_cache").
		Columns("cache_key", "endpoint", "response_data", "cached_at", "expires_at").
		Values(entry.Key, entry.Endpoint, entry.Body, entry.CachedAt, entry.ExpiresAt).
		Suffix(`ON CONFLICT (cache_key) DO UPDATE SET
    endpoint = EXCLUDED.endpoint,
    response_data = EXCLUDED.response_data,
    cached_at = EXCLUDED.cached_at,
    expires_at = EXCLUDED.expires_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert cache entry query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert cache entry key=%s: %w", entry.Key, err)
	}
	return nil
}

func (s *APICacheStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM api_cache"); err != nil {
		return fmt.Errorf("clear api cache: %w", err)
	}
	return nil
}

func (s *APICacheStore) DeleteExpired(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM api_cache WHERE expires_at <= $1", s.clock.Now()); err != nil {
		return fmt.Errorf("delete expired cache entries: %w", err)
	}
	return nil
}
