package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arkadyv/solkoff-board/internal/domain/team"
	qb "github.com/arkadyv/solkoff-board/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("id", "name", "code", "crest").
		From("teams").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Team{
			ID:    row.ID,
			Name:  row.Name,
			Code:  row.Code,
			Crest: row.Crest,
		})
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	query, args, err := qb.Select("id", "name", "code", "crest").
		From("teams").
		Where(qb.Eq("id", teamID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team id=%d: %w", teamID, err)
	}

	return team.Team{ID: row.ID, Name: row.Name, Code: row.Code, Crest: row.Crest}, true, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, teams []team.Team) error {
	if len(teams) == 0 {
		return nil
	}

	builder := qb.InsertInto("teams").Columns("id", "name", "code", "crest")
	for _, item := range teams {
		builder.Values(item.ID, item.Name, item.Code, item.Crest)
	}
	query, args, err := builder.Suffix(`ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    code = EXCLUDED.code,
    crest = EXCLUDED.crest`).ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert teams query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d teams: %w", len(teams), err)
	}
	return nil
}
