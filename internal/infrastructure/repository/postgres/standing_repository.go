package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arkadyv/solkoff-board/internal/domain/standing"
	qb "github.com/arkadyv/solkoff-board/internal/platform/querybuilder"
)

var standingColumns = []string{
	"team_id", "position", "played", "won", "drawn", "lost",
	"goals_for", "goals_against", "goal_difference", "points", "last_updated",
}

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) List(ctx context.Context) ([]standing.Row, error) {
	query, args, err := qb.Select(standingColumns...).
		From("standings").
		OrderBy("position", "team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select standings query: %w", err)
	}

	var rows []standingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select standings: %w", err)
	}

	out := make([]standing.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapStandingRow(row))
	}
	return out, nil
}

func (r *StandingRepository) GetByTeam(ctx context.Context, teamID int64) (standing.Row, bool, error) {
	query, args, err := qb.Select(standingColumns...).
		From("standings").
		Where(qb.Eq("team_id", teamID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return standing.Row{}, false, fmt.Errorf("build select standing query: %w", err)
	}

	var row standingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return standing.Row{}, false, nil
		}
		return standing.Row{}, false, fmt.Errorf("select standing team=%d: %w", teamID, err)
	}

	return mapStandingRow(row), true, nil
}

// ReplaceAll swaps the table wholesale inside one transaction, so
// readers never observe a half-written standings snapshot.
func (r *StandingRepository) ReplaceAll(ctx context.Context, rows []standing.Row) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace standings: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM standings"); err != nil {
		return fmt.Errorf("clear standings: %w", err)
	}

	if len(rows) > 0 {
		builder := qb.InsertInto("standings").Columns(standingColumns...)
		for _, row := range rows {
			builder.Values(
				row.TeamID, row.Position, row.Played, row.Won, row.Drawn, row.Lost,
				row.GoalsFor, row.GoalsAgainst, row.GoalDifference, row.Points, row.LastUpdated,
			)
		}
		query, args, err := builder.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert standings query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %d standings: %w", len(rows), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace standings tx: %w", err)
	}
	return nil
}

func mapStandingRow(row standingTableModel) standing.Row {
	return standing.Row{
		TeamID:         row.TeamID,
		Position:       row.Position,
		Played:         row.Played,
		Won:            row.Won,
		Drawn:          row.Drawn,
		Lost:           row.Lost,
		GoalsFor:       row.GoalsFor,
		GoalsAgainst:   row.GoalsAgainst,
		GoalDifference: row.GoalDifference,
		Points:         row.Points,
		LastUpdated:    row.LastUpdated,
	}
}
