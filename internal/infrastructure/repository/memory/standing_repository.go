package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/arkadyv/solkoff-board/internal/domain/standing"
)

type StandingRepository struct {
	mu   sync.RWMutex
	rows []standing.Row
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{}
}

func (r *StandingRepository) List(_ context.Context) ([]standing.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]standing.Row, len(r.rows))
	copy(out, r.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })

	return out, nil
}

func (r *StandingRepository) GetByTeam(_ context.Context, teamID int64) (standing.Row, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if row.TeamID == teamID {
			return row, true, nil
		}
	}

	return standing.Row{}, false, nil
}

func (r *StandingRepository) ReplaceAll(_ context.Context, rows []standing.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows = make([]standing.Row, len(rows))
	copy(r.rows, rows)

	return nil
}
