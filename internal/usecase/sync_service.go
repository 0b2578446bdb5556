package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/domain/standing"
	"github.com/arkadyv/solkoff-board/internal/domain/team"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
)

// SyncProvider is the outbound port to the rate-limited caching API
// client. Both fetches go through the provider's cache, so the repeated
// calls a full sync makes for the same endpoint are served from cache.
type SyncProvider interface {
	FetchMatches(ctx context.Context, competitionID string) ([]ExternalMatch, error)
	FetchStandings(ctx context.Context, competitionID string) ([]ExternalStanding, error)
	ClearCache(ctx context.Context) error
}

type ExternalTeamRef struct {
	ID    int64
	Name  string
	Code  string
	Crest string
}

type ExternalMatch struct {
	ID        int64
	Home      ExternalTeamRef
	Away      ExternalTeamRef
	HomeScore *int
	AwayScore *int
	Matchday  int
	Date      time.Time
	Status    string
	Stage     string
	Round     string
	Group     string
}

type ExternalStanding struct {
	Team           ExternalTeamRef
	Position       int
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	Group          string
}

type SyncStage string

const (
	SyncStageTeams     SyncStage = "teams"
	SyncStageMatches   SyncStage = "matches"
	SyncStageStandings SyncStage = "standings"
)

// SyncError tags a provider or storage failure with the stage it killed.
// Stages already committed before the failure stay committed.
type SyncError struct {
	Stage SyncStage
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

type SyncSummary struct {
	Teams     int
	Matches   int
	Standings int
	StartedAt time.Time
	Duration  time.Duration
}

type SyncConfig struct {
	CompetitionID   string
	UpsertWorkers   int
	UpsertChunkSize int
}

type SyncService struct {
	provider     SyncProvider
	teamRepo     team.Repository
	matchRepo    match.Repository
	standingRepo standing.Repository
	cfg          SyncConfig
	clock        clockwork.Clock
	logger       *logging.Logger
}

func NewSyncService(
	provider SyncProvider,
	teamRepo team.Repository,
	matchRepo match.Repository,
	standingRepo standing.Repository,
	cfg SyncConfig,
	clock clockwork.Clock,
	logger *logging.Logger,
) *SyncService {
	if cfg.CompetitionID == "" {
		cfg.CompetitionID = "CL"
	}
	if cfg.UpsertWorkers < 1 {
		cfg.UpsertWorkers = 4
	}
	if cfg.UpsertChunkSize < 1 {
		cfg.UpsertChunkSize = 50
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SyncService{
		provider:     provider,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		cfg:          cfg,
		clock:        clock,
		logger:       logger,
	}
}

// SyncAll refreshes teams, matches and standings in that fixed order:
// matches reference team identities and standings reference both. A
// failed stage aborts the stages after it but never rolls back what an
// earlier stage committed.
func (s *SyncService) SyncAll(ctx context.Context) (SyncSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncAll")
	defer span.End()

	summary := SyncSummary{StartedAt: s.clock.Now()}

	teams, err := s.SyncTeams(ctx)
	if err != nil {
		return summary, &SyncError{Stage: SyncStageTeams, Err: err}
	}
	summary.Teams = teams

	matches, err := s.SyncMatches(ctx)
	if err != nil {
		summary.Duration = s.clock.Since(summary.StartedAt)
		return summary, &SyncError{Stage: SyncStageMatches, Err: err}
	}
	summary.Matches = matches

	standings, err := s.SyncStandings(ctx)
	if err != nil {
		summary.Duration = s.clock.Since(summary.StartedAt)
		return summary, &SyncError{Stage: SyncStageStandings, Err: err}
	}
	summary.Standings = standings

	summary.Duration = s.clock.Since(summary.StartedAt)
	s.logger.InfoContext(ctx, "sync completed",
		"competition_id", s.cfg.CompetitionID,
		"teams", summary.Teams,
		"matches", summary.Matches,
		"standings", summary.Standings,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	return summary, nil
}

// RefreshNow is the on-demand entry point. It is the same code path as
// the scheduled sync, so a refresh right after a scheduled run is served
// from the provider cache unless the cache was cleared first.
func (s *SyncService) RefreshNow(ctx context.Context) (SyncSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.RefreshNow")
	defer span.End()

	s.logger.InfoContext(ctx, "manual refresh requested", "competition_id", s.cfg.CompetitionID)
	return s.SyncAll(ctx)
}

func (s *SyncService) ClearCache(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ClearCache")
	defer span.End()

	if err := s.provider.ClearCache(ctx); err != nil {
		return fmt.Errorf("clear provider cache: %w", err)
	}
	s.logger.InfoContext(ctx, "provider cache cleared")
	return nil
}

// SyncTeams collects teams from both the standings and the matches
// payloads; knocked-out teams can drop off the table while their matches
// remain, and newly drawn teams can appear in matches first.
func (s *SyncService) SyncTeams(ctx context.Context) (int, error) {
	standings, err := s.provider.FetchStandings(ctx, s.cfg.CompetitionID)
	if err != nil {
		return 0, fmt.Errorf("fetch standings competition_id=%s: %w", s.cfg.CompetitionID, err)
	}
	matches, err := s.provider.FetchMatches(ctx, s.cfg.CompetitionID)
	if err != nil {
		return 0, fmt.Errorf("fetch matches competition_id=%s: %w", s.cfg.CompetitionID, err)
	}

	byID := make(map[int64]team.Team, 64)
	collect := func(ref ExternalTeamRef) {
		if ref.ID <= 0 {
			return
		}
		existing := byID[ref.ID]
		existing.ID = ref.ID
		existing.Name = firstNonEmpty(existing.Name, ref.Name)
		existing.Code = firstNonEmpty(existing.Code, ref.Code)
		existing.Crest = firstNonEmpty(existing.Crest, ref.Crest)
		byID[ref.ID] = existing
	}
	for _, row := range standings {
		collect(row.Team)
	}
	for _, item := range matches {
		collect(item.Home)
		collect(item.Away)
	}

	teams := make([]team.Team, 0, len(byID))
	skipped := 0
	for _, item := range byID {
		if err := item.Validate(); err != nil {
			skipped++
			continue
		}
		teams = append(teams, item)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	if skipped > 0 {
		s.logger.WarnContext(ctx, "skipped invalid provider teams", "skipped", skipped)
	}

	if err := s.teamRepo.Upsert(ctx, teams); err != nil {
		return 0, fmt.Errorf("upsert teams: %w", err)
	}
	return len(teams), nil
}

func (s *SyncService) SyncMatches(ctx context.Context) (int, error) {
	items, err := s.provider.FetchMatches(ctx, s.cfg.CompetitionID)
	if err != nil {
		return 0, fmt.Errorf("fetch matches competition_id=%s: %w", s.cfg.CompetitionID, err)
	}

	mapped := make([]match.Match, 0, len(items))
	skipped := 0
	for _, item := range items {
		if item.ID <= 0 || item.Home.ID <= 0 || item.Away.ID <= 0 {
			skipped++
			continue
		}
		mapped = append(mapped, match.Match{
			ID:            item.ID,
			CompetitionID: s.cfg.CompetitionID,
			HomeTeamID:    item.Home.ID,
			AwayTeamID:    item.Away.ID,
			HomeScore:     item.HomeScore,
			AwayScore:     item.AwayScore,
			Matchday:      item.Matchday,
			Date:          item.Date,
			Status:        match.NormalizeStatus(item.Status),
			Stage:         match.NormalizeStage(item.Stage),
			Round:         item.Round,
			GroupName:     item.Group,
		})
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "skipped matches with missing identifiers", "skipped", skipped)
	}

	if err := s.upsertMatches(ctx, mapped); err != nil {
		return 0, err
	}
	return len(mapped), nil
}

func (s *SyncService) SyncStandings(ctx context.Context) (int, error) {
	items, err := s.provider.FetchStandings(ctx, s.cfg.CompetitionID)
	if err != nil {
		return 0, fmt.Errorf("fetch standings competition_id=%s: %w", s.cfg.CompetitionID, err)
	}

	now := s.clock.Now().UTC()
	rows := make([]standing.Row, 0, len(items))
	skipped := 0
	for _, item := range items {
		if item.Team.ID <= 0 {
			skipped++
			continue
		}
		rows = append(rows, standing.Row{
			TeamID:         item.Team.ID,
			Position:       item.Position,
			Played:         item.Played,
			Won:            item.Won,
			Drawn:          item.Drawn,
			Lost:           item.Lost,
			GoalsFor:       item.GoalsFor,
			GoalsAgainst:   item.GoalsAgainst,
			GoalDifference: item.GoalDifference,
			Points:         item.Points,
			LastUpdated:    now,
		})
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "skipped standings rows with missing team id", "skipped", skipped)
	}

	if err := s.standingRepo.ReplaceAll(ctx, rows); err != nil {
		return 0, fmt.Errorf("replace standings: %w", err)
	}
	return len(rows), nil
}

// upsertMatches commits matches in chunks spread over a worker pool.
// Match IDs are unique inside one payload, so no two workers touch the
// same row and last-writer-wins never applies within a single sync.
func (s *SyncService) upsertMatches(ctx context.Context, items []match.Match) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) <= s.cfg.UpsertChunkSize {
		if err := s.matchRepo.Upsert(ctx, items); err != nil {
			return fmt.Errorf("upsert matches: %w", err)
		}
		return nil
	}

	pool, err := ants.NewPool(s.cfg.UpsertWorkers)
	if err != nil {
		return fmt.Errorf("create upsert worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(items); start += s.cfg.UpsertChunkSize {
		end := start + s.cfg.UpsertChunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := s.matchRepo.Upsert(ctx, chunk); err != nil {
				record(fmt.Errorf("upsert match chunk: %w", err))
			}
		}); err != nil {
			wg.Done()
			record(fmt.Errorf("submit match chunk: %w", err))
		}
	}
	wg.Wait()

	return firstErr
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
