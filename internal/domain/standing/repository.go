package standing

import "context"

type Repository interface {
	List(ctx context.Context) ([]Row, error)
	GetByTeam(ctx context.Context, teamID int64) (Row, bool, error)
	ReplaceAll(ctx context.Context, rows []Row) error
}
