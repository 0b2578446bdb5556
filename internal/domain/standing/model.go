package standing

import "time"

// Row is one provider-supplied league table entry. The table is a
// snapshot, not an accumulator: every sync replaces it wholesale.
type Row struct {
	TeamID         int64
	Position       int
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	LastUpdated    time.Time
}

// PointsPerGame returns points averaged over games played, zero when the
// team has not played.
func (r Row) PointsPerGame() float64 {
	if r.Played <= 0 {
		return 0
	}
	return float64(r.Points) / float64(r.Played)
}
