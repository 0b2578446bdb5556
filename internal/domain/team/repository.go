package team

import "context"

// Repository describes team persistence needs from use cases. Upserts are
// keyed by the external ID and must be idempotent.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, teamID int64) (Team, bool, error)
	Upsert(ctx context.Context, teams []Team) error
}
