package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/domain/standing"
	"github.com/arkadyv/solkoff-board/internal/domain/team"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
)

type stubProvider struct {
	standings    []ExternalStanding
	matches      []ExternalMatch
	standingsErr error
	matchesErr   error
	clearErr     error

	standingsCalls int
	matchesCalls   int
	clearCalls     int
}

func (p *stubProvider) FetchStandings(_ context.Context, _ string) ([]ExternalStanding, error) {
	p.standingsCalls++
	if p.standingsErr != nil {
		return nil, p.standingsErr
	}
	return p.standings, nil
}

func (p *stubProvider) FetchMatches(_ context.Context, _ string) ([]ExternalMatch, error) {
	p.matchesCalls++
	if p.matchesErr != nil {
		return nil, p.matchesErr
	}
	return p.matches, nil
}

func (p *stubProvider) ClearCache(_ context.Context) error {
	p.clearCalls++
	return p.clearErr
}

type memTeamRepo struct {
	byID      map[int64]team.Team
	upsertErr error
}

func newMemTeamRepo() *memTeamRepo {
	return &memTeamRepo{byID: make(map[int64]team.Team)}
}

func (r *memTeamRepo) List(_ context.Context) ([]team.Team, error) {
	out := make([]team.Team, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	return out, nil
}

func (r *memTeamRepo) GetByID(_ context.Context, teamID int64) (team.Team, bool, error) {
	item, ok := r.byID[teamID]
	return item, ok, nil
}

func (r *memTeamRepo) Upsert(_ context.Context, teams []team.Team) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, item := range teams {
		r.byID[item.ID] = item
	}
	return nil
}

type memMatchRepo struct {
	byID      map[int64]match.Match
	upsertErr error
}

func newMemMatchRepo() *memMatchRepo {
	return &memMatchRepo{byID: make(map[int64]match.Match)}
}

func (r *memMatchRepo) List(_ context.Context, filter match.Filter) ([]match.Match, error) {
	out := make([]match.Match, 0, len(r.byID))
	for _, item := range r.byID {
		keep := true
		if len(filter.Statuses) > 0 {
			keep = false
			for _, status := range filter.Statuses {
				if item.Status == status {
					keep = true
					break
				}
			}
		}
		if keep && filter.TeamID > 0 && item.HomeTeamID != filter.TeamID && item.AwayTeamID != filter.TeamID {
			keep = false
		}
		if keep {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMatchRepo) Upsert(_ context.Context, matches []match.Match) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, item := range matches {
		r.byID[item.ID] = item
	}
	return nil
}

type memStandingRepo struct {
	rows       []standing.Row
	replaceErr error
}

func (r *memStandingRepo) List(_ context.Context) ([]standing.Row, error) {
	out := make([]standing.Row, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func (r *memStandingRepo) GetByTeam(_ context.Context, teamID int64) (standing.Row, bool, error) {
	for _, row := range r.rows {
		if row.TeamID == teamID {
			return row, true, nil
		}
	}
	return standing.Row{}, false, nil
}

func (r *memStandingRepo) ReplaceAll(_ context.Context, rows []standing.Row) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.rows = make([]standing.Row, len(rows))
	copy(r.rows, rows)
	return nil
}

func intPtr(v int) *int { return &v }

func syncFixtures() ([]ExternalStanding, []ExternalMatch) {
	standings := []ExternalStanding{
		{Team: ExternalTeamRef{ID: 1, Name: "Alpha FC", Code: "ALP"}, Position: 1, Played: 2, Won: 2, Points: 6, GoalsFor: 5, GoalsAgainst: 1, GoalDifference: 4},
		{Team: ExternalTeamRef{ID: 2, Name: "Beta FC", Code: "BET"}, Position: 2, Played: 2, Won: 1, Lost: 1, Points: 3, GoalsFor: 3, GoalsAgainst: 3},
	}
	matches := []ExternalMatch{
		{
			ID:        101,
			Home:      ExternalTeamRef{ID: 1, Name: "Alpha FC"},
			Away:      ExternalTeamRef{ID: 2, Name: "Beta FC"},
			HomeScore: intPtr(3),
			AwayScore: intPtr(1),
			Matchday:  1,
			Date:      time.Date(2026, time.January, 20, 20, 0, 0, 0, time.UTC),
			Status:    "FINISHED",
			Stage:     "LEAGUE_STAGE",
		},
		{
			ID:       102,
			Home:     ExternalTeamRef{ID: 2, Name: "Beta FC"},
			Away:     ExternalTeamRef{ID: 3, Name: "Gamma FC", Code: "GAM"},
			Matchday: 2,
			Date:     time.Date(2026, time.February, 3, 20, 0, 0, 0, time.UTC),
			Status:   "timed",
			Stage:    "LEAGUE_STAGE",
		},
	}
	return standings, matches
}

func newSyncServiceForTest(provider SyncProvider, teams team.Repository, matches match.Repository, standings standing.Repository) *SyncService {
	return NewSyncService(provider, teams, matches, standings, SyncConfig{}, clockwork.NewFakeClock(), logging.NewNop())
}

func TestSyncService_SyncAll_CommitsAllStages(t *testing.T) {
	t.Parallel()

	standingRows, matchRows := syncFixtures()
	provider := &stubProvider{standings: standingRows, matches: matchRows}
	teamRepo := newMemTeamRepo()
	matchRepo := newMemMatchRepo()
	standingRepo := &memStandingRepo{}

	service := newSyncServiceForTest(provider, teamRepo, matchRepo, standingRepo)

	summary, err := service.SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, summary.Teams, "teams from standings plus match-only gamma")
	require.Equal(t, 2, summary.Matches)
	require.Equal(t, 2, summary.Standings)

	stored, ok := matchRepo.byID[102]
	require.True(t, ok)
	require.Equal(t, match.StatusTimed, stored.Status, "provider status is normalized")
	require.Equal(t, match.StageLeague, stored.Stage)

	gamma, ok := teamRepo.byID[3]
	require.True(t, ok)
	require.Equal(t, "Gamma FC", gamma.Name)
}

func TestSyncService_SyncAll_Idempotent(t *testing.T) {
	t.Parallel()

	standingRows, matchRows := syncFixtures()
	provider := &stubProvider{standings: standingRows, matches: matchRows}
	teamRepo := newMemTeamRepo()
	matchRepo := newMemMatchRepo()
	standingRepo := &memStandingRepo{}

	service := newSyncServiceForTest(provider, teamRepo, matchRepo, standingRepo)

	first, err := service.SyncAll(context.Background())
	require.NoError(t, err)
	second, err := service.SyncAll(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.Teams, second.Teams)
	require.Equal(t, first.Matches, second.Matches)
	require.Equal(t, first.Standings, second.Standings)
	require.Len(t, teamRepo.byID, 3)
	require.Len(t, matchRepo.byID, 2)
	require.Len(t, standingRepo.rows, 2)
}

func TestSyncService_SyncAll_TeamStageFailureCommitsNothing(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{standingsErr: errors.New("provider down")}
	teamRepo := newMemTeamRepo()
	matchRepo := newMemMatchRepo()
	standingRepo := &memStandingRepo{}

	service := newSyncServiceForTest(provider, teamRepo, matchRepo, standingRepo)

	_, err := service.SyncAll(context.Background())

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError, got=%v", err)
	}
	if syncErr.Stage != SyncStageTeams {
		t.Fatalf("expected teams stage tag, got=%s", syncErr.Stage)
	}
	if len(teamRepo.byID) != 0 || len(matchRepo.byID) != 0 || len(standingRepo.rows) != 0 {
		t.Fatal("expected no partial writes when the first stage fails")
	}
}

func TestSyncService_SyncAll_MatchStageFailureKeepsTeams(t *testing.T) {
	t.Parallel()

	standingRows, matchRows := syncFixtures()
	provider := &stubProvider{standings: standingRows, matches: matchRows}
	teamRepo := newMemTeamRepo()
	matchRepo := newMemMatchRepo()
	matchRepo.upsertErr = errors.New("disk full")
	standingRepo := &memStandingRepo{}

	service := newSyncServiceForTest(provider, teamRepo, matchRepo, standingRepo)

	_, err := service.SyncAll(context.Background())

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError, got=%v", err)
	}
	if syncErr.Stage != SyncStageMatches {
		t.Fatalf("expected matches stage tag, got=%s", syncErr.Stage)
	}
	if len(teamRepo.byID) != 3 {
		t.Fatalf("expected committed teams to survive match failure, got=%d", len(teamRepo.byID))
	}
	if len(standingRepo.rows) != 0 {
		t.Fatal("expected standings stage to be skipped after match failure")
	}
}

func TestSyncService_SyncAll_StandingStageFailureKeepsMatches(t *testing.T) {
	t.Parallel()

	standingRows, matchRows := syncFixtures()
	provider := &stubProvider{standings: standingRows, matches: matchRows}
	teamRepo := newMemTeamRepo()
	matchRepo := newMemMatchRepo()
	standingRepo := &memStandingRepo{replaceErr: errors.New("constraint violated")}

	service := newSyncServiceForTest(provider, teamRepo, matchRepo, standingRepo)

	summary, err := service.SyncAll(context.Background())

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError, got=%v", err)
	}
	if syncErr.Stage != SyncStageStandings {
		t.Fatalf("expected standings stage tag, got=%s", syncErr.Stage)
	}
	if summary.Teams != 3 || summary.Matches != 2 {
		t.Fatalf("expected committed stage counts in summary, got=%+v", summary)
	}
	if len(matchRepo.byID) != 2 {
		t.Fatalf("expected committed matches to survive standings failure, got=%d", len(matchRepo.byID))
	}
}

func TestSyncService_RefreshNowSharesSyncPath(t *testing.T) {
	t.Parallel()

	standingRows, matchRows := syncFixtures()
	provider := &stubProvider{standings: standingRows, matches: matchRows}
	teamRepo := newMemTeamRepo()
	matchRepo := newMemMatchRepo()
	standingRepo := &memStandingRepo{}

	service := newSyncServiceForTest(provider, teamRepo, matchRepo, standingRepo)

	summary, err := service.RefreshNow(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, summary.Teams)
	require.Equal(t, 2, summary.Matches)
	require.Equal(t, 2, summary.Standings)
}

func TestSyncService_ClearCacheDelegatesToProvider(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	service := newSyncServiceForTest(provider, newMemTeamRepo(), newMemMatchRepo(), &memStandingRepo{})

	if err := service.ClearCache(context.Background()); err != nil {
		t.Fatalf("clear cache failed: %v", err)
	}
	if provider.clearCalls != 1 {
		t.Fatalf("expected one provider clear call, got=%d", provider.clearCalls)
	}

	provider.clearErr = errors.New("cache store down")
	if err := service.ClearCache(context.Background()); err == nil {
		t.Fatal("expected clear cache error to propagate")
	}
}
