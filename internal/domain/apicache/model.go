package apicache

import "time"

// Entry is one cached provider response. Entries are replaced wholesale,
// never partially updated; an entry past ExpiresAt is treated as absent.
type Entry struct {
	Key       string
	Endpoint  string
	Body      []byte
	CachedAt  time.Time
	ExpiresAt time.Time
}

func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
