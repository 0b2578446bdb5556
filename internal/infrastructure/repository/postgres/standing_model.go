package postgres

import "time"

type standingTableModel struct {
	TeamID         int64     `db:"team_id"`
	Position       int       `db:"position"`
	Played         int       `db:"played"`
	Won            int       `db:"won"`
	Drawn          int       `db:"drawn"`
	Lost           int       `db:"lost"`
	GoalsFor       int       `db:"goals_for"`
	GoalsAgainst   int       `db:"goals_against"`
	GoalDifference int       `db:"goal_difference"`
	Points         int       `db:"points"`
	LastUpdated    time.Time `db:"last_updated"`
}
