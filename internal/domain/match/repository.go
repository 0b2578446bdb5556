package match

import "context"

// Repository exposes match persistence. Upsert is keyed by the external
// match ID; mutable fields (scores, status, stage, round, group) are
// overwritten on conflict.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Match, error)
	Upsert(ctx context.Context, matches []Match) error
}
