package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	qb "github.com/arkadyv/solkoff-board/internal/platform/querybuilder"
)

var matchColumns = []string{
	"id", "competition_id", "home_team_id", "away_team_id",
	"home_score", "away_score", "matchday", "date",
	"status", "stage", "round", "group_name",
}

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) List(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	builder := qb.Select(matchColumns...).
		From("matches").
		OrderBy("date", "id")

	if len(filter.Statuses) > 0 {
		values := make([]any, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			values = append(values, status)
		}
		builder.Where(qb.In("status", values))
	}
	if filter.Stage != "" {
		builder.Where(qb.Eq("stage", filter.Stage))
	}
	if filter.TeamID > 0 {
		builder.Where(qb.Or(
			qb.Eq("home_team_id", filter.TeamID),
			qb.Eq("away_team_id", filter.TeamID),
		))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.Match{
			ID:            row.ID,
			CompetitionID: row.CompetitionID,
			HomeTeamID:    row.HomeTeamID,
			AwayTeamID:    row.AwayTeamID,
			HomeScore:     nullIntToIntPtr(row.HomeScore),
			AwayScore:     nullIntToIntPtr(row.AwayScore),
			Matchday:      row.Matchday,
			Date:          row.Date,
			Status:        row.Status,
			Stage:         row.Stage,
			Round:         row.Round,
			GroupName:     row.GroupName,
		})
	}

	return out, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}

	builder := qb.InsertInto("matches").Columns(matchColumns...)
	for _, item := range matches {
		builder.Values(
			item.ID, item.CompetitionID, item.HomeTeamID, item.AwayTeamID,
			intPtrToNullInt(item.HomeScore), intPtrToNullInt(item.AwayScore),
			item.Matchday, item.Date,
			item.Status, item.Stage, item.Round, item.GroupName,
		)
	}
	// Team references stay fixed; only the mutable provider fields are
	// refreshed on conflict.
	query, args, err := builder.Suffix(`ON CONFLICT (id) DO UPDATE SET
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    matchday = EXCLUDED.matchday,
    date = EXCLUDED.date,
    status = EXCLUDED.status,
    stage = EXCLUDED.stage,
    round = EXCLUDED.round,
    group_name = EXCLUDED.group_name`).ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert matches query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d matches: %w", len(matches), err)
	}
	return nil
}
