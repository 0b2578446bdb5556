package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/iter"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/domain/team"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
)

// SolkoffFormula selects how the coefficient is derived from the
// opponents a team has faced. The provider history disagrees on the
// intended formula, so it stays a configuration policy.
type SolkoffFormula string

const (
	// FormulaMeanOpponentPPG averages points-per-game across distinct
	// opponents. Default.
	FormulaMeanOpponentPPG SolkoffFormula = "mean_opponent_ppg"
	// FormulaSumOpponentPoints sums opponents' total points, the legacy
	// Buchholz-style variant.
	FormulaSumOpponentPoints SolkoffFormula = "sum_opponent_points"
)

func ParseSolkoffFormula(value string) (SolkoffFormula, error) {
	switch SolkoffFormula(value) {
	case "", FormulaMeanOpponentPPG:
		return FormulaMeanOpponentPPG, nil
	case FormulaSumOpponentPoints:
		return FormulaSumOpponentPoints, nil
	default:
		return "", fmt.Errorf("%w: unknown solkoff formula %q", ErrInvalidInput, value)
	}
}

// SolkoffOrdering selects presentation order for ComputeForAll. The
// default is the UEFA chain (points, goal difference, goals for); the
// solkoff columns only drive ordering when explicitly requested.
type SolkoffOrdering string

const (
	OrderByTable       SolkoffOrdering = "table"
	OrderByCoefficient SolkoffOrdering = "coefficient"
	OrderByStrength    SolkoffOrdering = "strength"
)

func ParseSolkoffOrdering(value string) (SolkoffOrdering, error) {
	switch SolkoffOrdering(value) {
	case "", OrderByTable:
		return OrderByTable, nil
	case OrderByCoefficient:
		return OrderByCoefficient, nil
	case OrderByStrength:
		return OrderByStrength, nil
	default:
		return "", fmt.Errorf("%w: unknown ordering %q", ErrInvalidInput, value)
	}
}

const (
	OutcomeWin  = "WIN"
	OutcomeDraw = "DRAW"
	OutcomeLoss = "LOSS"
)

// OpponentLeg is one finished match against an opponent, seen from the
// subject team's side.
type OpponentLeg struct {
	MatchID       int64
	Venue         string // HOME or AWAY
	TeamScore     int
	OpponentScore int
	Outcome       string
}

type SolkoffOpponent struct {
	TeamID int64
	Name   string
	Crest  string
	Legs   []OpponentLeg
	// Played and Points cover all the opponent's finished matches
	// tournament-wide, not just the legs against the subject team.
	Played        int
	Points        int
	PointsPerGame float64
}

type SolkoffDetail struct {
	TeamID        int64
	Name          string
	Code          string
	Crest         string
	Played        int
	Won           int
	Drawn         int
	Lost          int
	Points        int
	Opponents     []SolkoffOpponent
	Coefficient   float64
	StrengthScore float64
}

// TeamSolkoff is the per-team summary row of ComputeForAll.
type TeamSolkoff struct {
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
}

// SolkoffService derives tiebreaker metrics from persisted matches and
// teams. It is a pure read: no provider calls, no mutation. Matches
// without a final score contribute nothing.
type SolkoffService struct {
	teamRepo  team.Repository
	matchRepo match.Repository
	formula   SolkoffFormula
	logger    *logging.Logger
}

func NewSolkoffService(
	teamRepo team.Repository,
	matchRepo match.Repository,
	formula SolkoffFormula,
	logger *logging.Logger,
) *SolkoffService {
	if formula == "" {
		formula = FormulaMeanOpponentPPG
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SolkoffService{
		teamRepo:  teamRepo,
		matchRepo: matchRepo,
		formula:   formula,
		logger:    logger,
	}
}

type teamTally struct {
	played       int
	won          int
	drawn        int
	lost         int
	goalsFor     int
	goalsAgainst int
}

func (t teamTally) points() int {
	return 3*t.won + t.drawn
}

func (t teamTally) pointsPerGame() float64 {
	if t.played <= 0 {
		return 0
	}
	return float64(t.points()) / float64(t.played)
}

func (s *SolkoffService) ComputeForTeam(ctx context.Context, teamID int64) (SolkoffDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SolkoffService.ComputeForTeam")
	defer span.End()

	if teamID <= 0 {
		return SolkoffDetail{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	subject, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return SolkoffDetail{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return SolkoffDetail{}, fmt.Errorf("%w: team=%d", ErrNotFound, teamID)
	}

	finished, err := s.loadFinishedMatches(ctx)
	if err != nil {
		return SolkoffDetail{}, err
	}
	tallies := tallyTeams(finished)

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return SolkoffDetail{}, fmt.Errorf("list teams: %w", err)
	}
	teamsByID := make(map[int64]team.Team, len(teams))
	for _, item := range teams {
		teamsByID[item.ID] = item
	}

	detail := SolkoffDetail{
		TeamID: subject.ID,
		Name:   subject.Name,
		Code:   subject.Code,
		Crest:  subject.Crest,
	}
	if tally, ok := tallies[teamID]; ok {
		detail.Played = tally.played
		detail.Won = tally.won
		detail.Drawn = tally.drawn
		detail.Lost = tally.lost
		detail.Points = tally.points()
	}

	// Opponents are de-duplicated by team ID: home and away legs against
	// the same club fold into one entry whose PPG is computed once.
	opponentOrder := make([]int64, 0, 8)
	legsByOpponent := make(map[int64][]OpponentLeg, 8)
	for _, item := range finished {
		opponentID, played := item.Opponent(teamID)
		if !played {
			continue
		}
		if _, seen := legsByOpponent[opponentID]; !seen {
			opponentOrder = append(opponentOrder, opponentID)
		}
		legsByOpponent[opponentID] = append(legsByOpponent[opponentID], buildLeg(item, teamID))
	}

	for _, opponentID := range opponentOrder {
		tally := tallies[opponentID]
		opponent := SolkoffOpponent{
			TeamID:        opponentID,
			Legs:          legsByOpponent[opponentID],
			Played:        tally.played,
			Points:        tally.points(),
			PointsPerGame: tally.pointsPerGame(),
		}
		if known, ok := teamsByID[opponentID]; ok {
			opponent.Name = known.Name
			opponent.Crest = known.Crest
		}
		detail.Opponents = append(detail.Opponents, opponent)
	}

	detail.Coefficient = s.coefficient(detail.Opponents)
	detail.StrengthScore = strengthScore(detail.Points, detail.Played, detail.Coefficient)

	return detail, nil
}

func (s *SolkoffService) ComputeForAll(ctx context.Context, ordering SolkoffOrdering) ([]TeamSolkoff, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SolkoffService.ComputeForAll")
	defer span.End()

	if ordering == "" {
		ordering = OrderByTable
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	finished, err := s.loadFinishedMatches(ctx)
	if err != nil {
		return nil, err
	}

	tallies := tallyTeams(finished)
	opponents := opponentSets(finished)

	rows := iter.Map(teams, func(item *team.Team) TeamSolkoff {
		tally := tallies[item.ID]
		row := TeamSolkoff{
			TeamID:         item.ID,
			Name:           item.Name,
			Code:           item.Code,
			Crest:          item.Crest,
			Played:         tally.played,
			Won:            tally.won,
			Drawn:          tally.drawn,
			Lost:           tally.lost,
			GoalsFor:       tally.goalsFor,
			GoalsAgainst:   tally.goalsAgainst,
			GoalDifference: tally.goalsFor - tally.goalsAgainst,
			Points:         tally.points(),
		}
		row.Coefficient = s.coefficientForIDs(opponents[item.ID], tallies)
		row.StrengthScore = strengthScore(row.Points, row.Played, row.Coefficient)
		return row
	})

	sortTeamSolkoff(rows, ordering)
	return rows, nil
}

func (s *SolkoffService) loadFinishedMatches(ctx context.Context) ([]match.Match, error) {
	items, err := s.matchRepo.List(ctx, match.Filter{Statuses: []string{match.StatusFinished}})
	if err != nil {
		return nil, fmt.Errorf("list finished matches: %w", err)
	}

	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		// A finished match missing scores is malformed provider data;
		// it counts as not played rather than failing the computation.
		if !item.HasFinalScore() {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *SolkoffService) coefficient(opponents []SolkoffOpponent) float64 {
	if len(opponents) == 0 {
		return 0
	}

	switch s.formula {
	case FormulaSumOpponentPoints:
		total := 0.0
		for _, opponent := range opponents {
			total += float64(opponent.Points)
		}
		return total
	default:
		total := 0.0
		for _, opponent := range opponents {
			total += opponent.PointsPerGame
		}
		return total / float64(len(opponents))
	}
}

func (s *SolkoffService) coefficientForIDs(opponentIDs []int64, tallies map[int64]teamTally) float64 {
	if len(opponentIDs) == 0 {
		return 0
	}

	switch s.formula {
	case FormulaSumOpponentPoints:
		total := 0.0
		for _, id := range opponentIDs {
			total += float64(tallies[id].points())
		}
		return total
	default:
		total := 0.0
		for _, id := range opponentIDs {
			total += tallies[id].pointsPerGame()
		}
		return total / float64(len(opponentIDs))
	}
}

// strengthScore weights the coefficient by the share of available points
// the team actually took. Zero games played means zero score, never a
// division by zero.
func strengthScore(points, played int, coefficient float64) float64 {
	if played <= 0 {
		return 0
	}
	return float64(points) / float64(played*3) * coefficient
}

func buildLeg(m match.Match, teamID int64) OpponentLeg {
	leg := OpponentLeg{MatchID: m.ID}
	if m.HomeTeamID == teamID {
		leg.Venue = "HOME"
		leg.TeamScore = *m.HomeScore
		leg.OpponentScore = *m.AwayScore
	} else {
		leg.Venue = "AWAY"
		leg.TeamScore = *m.AwayScore
		leg.OpponentScore = *m.HomeScore
	}

	switch {
	case leg.TeamScore > leg.OpponentScore:
		leg.Outcome = OutcomeWin
	case leg.TeamScore < leg.OpponentScore:
		leg.Outcome = OutcomeLoss
	default:
		leg.Outcome = OutcomeDraw
	}
	return leg
}

func tallyTeams(finished []match.Match) map[int64]teamTally {
	tallies := make(map[int64]teamTally, 64)
	for _, item := range finished {
		home := tallies[item.HomeTeamID]
		away := tallies[item.AwayTeamID]

		home.played++
		away.played++
		home.goalsFor += *item.HomeScore
		home.goalsAgainst += *item.AwayScore
		away.goalsFor += *item.AwayScore
		away.goalsAgainst += *item.HomeScore

		switch {
		case *item.HomeScore > *item.AwayScore:
			home.won++
			away.lost++
		case *item.HomeScore < *item.AwayScore:
			away.won++
			home.lost++
		default:
			home.drawn++
			away.drawn++
		}

		tallies[item.HomeTeamID] = home
		tallies[item.AwayTeamID] = away
	}
	return tallies
}

func opponentSets(finished []match.Match) map[int64][]int64 {
	seen := make(map[int64]map[int64]struct{}, 64)
	order := make(map[int64][]int64, 64)
	note := func(teamID, opponentID int64) {
		if seen[teamID] == nil {
			seen[teamID] = make(map[int64]struct{}, 8)
		}
		if _, ok := seen[teamID][opponentID]; ok {
			return
		}
		seen[teamID][opponentID] = struct{}{}
		order[teamID] = append(order[teamID], opponentID)
	}

	for _, item := range finished {
		note(item.HomeTeamID, item.AwayTeamID)
		note(item.AwayTeamID, item.HomeTeamID)
	}
	return order
}

func sortTeamSolkoff(rows []TeamSolkoff, ordering SolkoffOrdering) {
	switch ordering {
	case OrderByCoefficient:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Coefficient != rows[j].Coefficient {
				return rows[i].Coefficient > rows[j].Coefficient
			}
			return teamSolkoffTableLess(rows[i], rows[j])
		})
	case OrderByStrength:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].StrengthScore != rows[j].StrengthScore {
				return rows[i].StrengthScore > rows[j].StrengthScore
			}
			return teamSolkoffTableLess(rows[i], rows[j])
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return teamSolkoffTableLess(rows[i], rows[j])
		})
	}
}

func teamSolkoffTableLess(a, b TeamSolkoff) bool {
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
