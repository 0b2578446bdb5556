package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/domain/standing"
	"github.com/arkadyv/solkoff-board/internal/domain/team"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
)

// TableRow is a provider standings entry enriched with the locally
// computed solkoff columns.
type TableRow struct {
	Position       int
	TeamID         int64
	Name           string
	Code           string
	Crest          string
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	Coefficient    float64
	StrengthScore  float64
	LastUpdated    time.Time
}

// TableService assembles the read-side views: the standings table, the
// team list and the match list. It never talks to the provider.
type TableService struct {
	teamRepo     team.Repository
	matchRepo    match.Repository
	standingRepo standing.Repository
	solkoff      *SolkoffService
	logger       *logging.Logger
}

func NewTableService(
	teamRepo team.Repository,
	matchRepo match.Repository,
	standingRepo standing.Repository,
	solkoff *SolkoffService,
	logger *logging.Logger,
) *TableService {
	if logger == nil {
		logger = logging.Default()
	}

	return &TableService{
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		solkoff:      solkoff,
		logger:       logger,
	}
}

// Snapshot merges the persisted provider standings with team metadata
// and solkoff columns. When no provider standings have been synced yet
// the table is derived from finished matches instead, so the endpoint
// stays useful in match-only datasets.
func (s *TableService) Snapshot(ctx context.Context, ordering SolkoffOrdering) ([]TableRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TableService.Snapshot")
	defer span.End()

	if ordering == "" {
		ordering = OrderByTable
	}

	solkoffRows, err := s.solkoff.ComputeForAll(ctx, OrderByTable)
	if err != nil {
		return nil, err
	}
	solkoffByTeam := make(map[int64]TeamSolkoff, len(solkoffRows))
	for _, row := range solkoffRows {
		solkoffByTeam[row.TeamID] = row
	}

	standings, err := s.standingRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	var rows []TableRow
	if len(standings) > 0 {
		rows = s.rowsFromStandings(ctx, standings, solkoffByTeam)
	} else {
		rows = rowsFromSolkoff(solkoffRows)
	}

	sortTableRows(rows, ordering)
	if ordering != OrderByTable || len(standings) == 0 {
		for idx := range rows {
			rows[idx].Position = idx + 1
		}
	}

	return rows, nil
}

func (s *TableService) ListTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TableService.ListTeams")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (s *TableService) ListMatches(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TableService.ListMatches")
	defer span.End()

	for idx, status := range filter.Statuses {
		filter.Statuses[idx] = match.NormalizeStatus(status)
	}
	if filter.Stage != "" {
		filter.Stage = match.NormalizeStage(filter.Stage)
	}

	matches, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

func (s *TableService) rowsFromStandings(
	ctx context.Context,
	standings []standing.Row,
	solkoffByTeam map[int64]TeamSolkoff,
) []TableRow {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		// Team metadata is decoration here; the table is still valid.
		s.logger.WarnContext(ctx, "list teams for table snapshot failed", "error", err)
	}
	teamsByID := make(map[int64]team.Team, len(teams))
	for _, item := range teams {
		teamsByID[item.ID] = item
	}

	rows := make([]TableRow, 0, len(standings))
	for _, item := range standings {
		row := TableRow{
			Position:       item.Position,
			TeamID:         item.TeamID,
			Played:         item.Played,
			Won:            item.Won,
			Drawn:          item.Drawn,
			Lost:           item.Lost,
			GoalsFor:       item.GoalsFor,
			GoalsAgainst:   item.GoalsAgainst,
			GoalDifference: item.GoalDifference,
			Points:         item.Points,
			LastUpdated:    item.LastUpdated,
		}
		if known, ok := teamsByID[item.TeamID]; ok {
			row.Name = known.Name
			row.Code = known.Code
			row.Crest = known.Crest
		}
		if computed, ok := solkoffByTeam[item.TeamID]; ok {
			row.Coefficient = computed.Coefficient
			// Strength weighs the official standings points, not the
			// locally tallied ones, so provider corrections win.
			row.StrengthScore = strengthScore(item.Points, item.Played, computed.Coefficient)
		}
		rows = append(rows, row)
	}
	return rows
}

func rowsFromSolkoff(solkoffRows []TeamSolkoff) []TableRow {
	rows := make([]TableRow, 0, len(solkoffRows))
	for _, item := range solkoffRows {
		rows = append(rows, TableRow{
			TeamID:         item.TeamID,
			Name:           item.Name,
			Code:           item.Code,
			Crest:          item.Crest,
			Played:         item.Played,
			Won:            item.Won,
			Drawn:          item.Drawn,
			Lost:           item.Lost,
			GoalsFor:       item.GoalsFor,
			GoalsAgainst:   item.GoalsAgainst,
			GoalDifference: item.GoalDifference,
			Points:         item.Points,
			Coefficient:    item.Coefficient,
			StrengthScore:  item.StrengthScore,
		})
	}
	return rows
}

func sortTableRows(rows []TableRow, ordering SolkoffOrdering) {
	tableLess := func(a, b TableRow) bool {
		if a.Position != b.Position && a.Position > 0 && b.Position > 0 {
			return a.Position < b.Position
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamID < b.TeamID
	}

	switch ordering {
	case OrderByCoefficient:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Coefficient != rows[j].Coefficient {
				return rows[i].Coefficient > rows[j].Coefficient
			}
			return tableLess(rows[i], rows[j])
		})
	case OrderByStrength:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].StrengthScore != rows[j].StrengthScore {
				return rows[i].StrengthScore > rows[j].StrengthScore
			}
			return tableLess(rows[i], rows[j])
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return tableLess(rows[i], rows[j])
		})
	}
}
