package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/domain/standing"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
)

func newTableServiceForTest(teamRepo *memTeamRepo, matchRepo *memMatchRepo, standingRepo *memStandingRepo) *TableService {
	solkoff := NewSolkoffService(teamRepo, matchRepo, FormulaMeanOpponentPPG, logging.NewNop())
	return NewTableService(teamRepo, matchRepo, standingRepo, solkoff, logging.NewNop())
}

func TestTableService_Snapshot_MergesStandingsWithSolkoff(t *testing.T) {
	t.Parallel()

	teamRepo, matchRepo := solkoffFixture(t)
	updated := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	standingRepo := &memStandingRepo{rows: []standing.Row{
		{TeamID: 10, Position: 1, Played: 3, Won: 2, Drawn: 1, Points: 7, GoalsFor: 6, GoalsAgainst: 1, GoalDifference: 5, LastUpdated: updated},
		{TeamID: 2, Position: 2, Played: 2, Won: 1, Drawn: 1, Points: 4, GoalsFor: 2, GoalsAgainst: 1, GoalDifference: 1, LastUpdated: updated},
	}}

	service := newTableServiceForTest(teamRepo, matchRepo, standingRepo)

	rows, err := service.Snapshot(context.Background(), OrderByTable)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected provider standings rows, got=%d", len(rows))
	}

	top := rows[0]
	if top.TeamID != 10 || top.Position != 1 || top.Name != "Subject FC" {
		t.Fatalf("unexpected top row: %+v", top)
	}
	wantCoefficient := (1.5 + 2.0 + 0.0) / 3.0
	if math.Abs(top.Coefficient-wantCoefficient) > 1e-4 {
		t.Fatalf("coefficient=%f want=%f", top.Coefficient, wantCoefficient)
	}
	// Strength weighs the provider points, which here match the tally.
	wantStrength := 7.0 / 9.0 * wantCoefficient
	if math.Abs(top.StrengthScore-wantStrength) > 1e-4 {
		t.Fatalf("strength=%f want=%f", top.StrengthScore, wantStrength)
	}
	if !top.LastUpdated.Equal(updated) {
		t.Fatalf("expected provider timestamp to survive, got=%v", top.LastUpdated)
	}
}

func TestTableService_Snapshot_FallsBackToMatchesWithoutStandings(t *testing.T) {
	t.Parallel()

	teamRepo, matchRepo := solkoffFixture(t)
	service := newTableServiceForTest(teamRepo, matchRepo, &memStandingRepo{})

	rows, err := service.Snapshot(context.Background(), OrderByTable)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected a derived row per team, got=%d", len(rows))
	}
	if rows[0].TeamID != 10 || rows[0].Position != 1 {
		t.Fatalf("expected subject at position 1, got=%+v", rows[0])
	}
	if rows[0].Points != 7 {
		t.Fatalf("expected tallied points in fallback, got=%d", rows[0].Points)
	}
}

func TestTableService_Snapshot_OrderByStrengthReassignsPositions(t *testing.T) {
	t.Parallel()

	teamRepo, matchRepo := solkoffFixture(t)
	service := newTableServiceForTest(teamRepo, matchRepo, &memStandingRepo{})

	rows, err := service.Snapshot(context.Background(), OrderByStrength)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	for idx := 1; idx < len(rows); idx++ {
		if rows[idx-1].StrengthScore < rows[idx].StrengthScore {
			t.Fatalf("rows not sorted by strength at %d", idx)
		}
		if rows[idx].Position != idx+1 {
			t.Fatalf("expected positions reassigned, row %d has position %d", idx, rows[idx].Position)
		}
	}
}

func TestTableService_ListMatches_NormalizesFilter(t *testing.T) {
	t.Parallel()

	teamRepo, matchRepo := solkoffFixture(t)
	service := newTableServiceForTest(teamRepo, matchRepo, &memStandingRepo{})

	matches, err := service.ListMatches(context.Background(), match.Filter{Statuses: []string{"finished"}})
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	if len(matches) != 5 {
		t.Fatalf("expected lowercase status filter to normalize, got=%d matches", len(matches))
	}

	matches, err = service.ListMatches(context.Background(), match.Filter{TeamID: 10})
	if err != nil {
		t.Fatalf("list by team failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 subject matches, got=%d", len(matches))
	}
}
