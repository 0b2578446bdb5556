package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
)

type MatchRepository struct {
	mu   sync.RWMutex
	byID map[int64]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{byID: make(map[int64]match.Match)}
}

func (r *MatchRepository) List(_ context.Context, filter match.Filter) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.byID))
	for _, item := range r.byID {
		if matchesFilter(item, filter) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *MatchRepository) Upsert(_ context.Context, matches []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range matches {
		if item.ID <= 0 {
			continue
		}
		r.byID[item.ID] = item
	}

	return nil
}

func matchesFilter(item match.Match, filter match.Filter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if item.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Stage != "" && item.Stage != filter.Stage {
		return false
	}
	if filter.TeamID > 0 && item.HomeTeamID != filter.TeamID && item.AwayTeamID != filter.TeamID {
		return false
	}
	return true
}
