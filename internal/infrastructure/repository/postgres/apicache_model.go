package postgres

import "time"

type apiCacheTableModel struct {
	CacheKey     string    `db:"cache_key"`
	Endpoint     string    `db:"endpoint"`
	ResponseData []byte    `db:"response_data"`
	CachedAt     time.Time `db:"cached_at"`
	ExpiresAt    time.Time `db:"expires_at"`
}
