package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID            int64         `db:"id"`
	CompetitionID string        `db:"competition_id"`
	HomeTeamID    int64         `db:"home_team_id"`
	AwayTeamID    int64         `db:"away_team_id"`
	HomeScore     sql.NullInt64 `db:"home_score"`
	AwayScore     sql.NullInt64 `db:"away_score"`
	Matchday      int           `db:"matchday"`
	Date          time.Time     `db:"date"`
	Status        string        `db:"status"`
	Stage         string        `db:"stage"`
	Round         string        `db:"round"`
	GroupName     string        `db:"group_name"`
}
