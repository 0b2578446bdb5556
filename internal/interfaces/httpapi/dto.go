package httpapi

import (
	"math"
	"time"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/usecase"
)

type teamDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Code  string `json:"code,omitempty"`
	Crest string `json:"crest,omitempty"`
}

type matchDTO struct {
	ID         int64  `json:"id"`
	HomeTeamID int64  `json:"homeTeamId"`
	AwayTeamID int64  `json:"awayTeamId"`
	HomeScore  *int   `json:"homeScore"`
	AwayScore  *int   `json:"awayScore"`
	Matchday   int    `json:"matchday,omitempty"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	Stage      string `json:"stage,omitempty"`
	Round      string `json:"round,omitempty"`
	Group      string `json:"group,omitempty"`
}

type standingsResponseDTO struct {
	Order     string        `json:"order"`
	Standings []standingDTO `json:"standings"`
}

type standingDTO struct {
	Position       int     `json:"position"`
	TeamID         int64   `json:"teamId"`
	Name           string  `json:"name"`
	Code           string  `json:"code,omitempty"`
	Crest          string  `json:"crest,omitempty"`
	Played         int     `json:"played"`
	Won            int     `json:"won"`
	Drawn          int     `json:"drawn"`
	Lost           int     `json:"lost"`
	GoalsFor       int     `json:"goalsFor"`
	GoalsAgainst   int     `json:"goalsAgainst"`
	GoalDifference int     `json:"goalDifference"`
	Points         int     `json:"points"`
	Coefficient    float64 `json:"solkoffCoefficient"`
	StrengthScore  float64 `json:"strengthScore"`
	LastUpdated    string  `json:"lastUpdated,omitempty"`
}

type solkoffLegDTO struct {
	MatchID       int64  `json:"matchId"`
	Venue         string `json:"venue"`
	TeamScore     int    `json:"teamScore"`
	OpponentScore int    `json:"opponentScore"`
	Outcome       string `json:"outcome"`
}

type solkoffOpponentDTO struct {
	TeamID        int64           `json:"teamId"`
	Name          string          `json:"name"`
	Crest         string          `json:"crest,omitempty"`
	Legs          []solkoffLegDTO `json:"legs"`
	Played        int             `json:"played"`
	Points        int             `json:"points"`
	PointsPerGame float64         `json:"pointsPerGame"`
}

type solkoffDetailDTO struct {
	TeamID        int64                `json:"teamId"`
	Name          string               `json:"name"`
	Code          string               `json:"code,omitempty"`
	Crest         string               `json:"crest,omitempty"`
	Played        int                  `json:"played"`
	Won           int                  `json:"won"`
	Drawn         int                  `json:"drawn"`
	Lost          int                  `json:"lost"`
	Points        int                  `json:"points"`
	Opponents     []solkoffOpponentDTO `json:"opponents"`
	Coefficient   float64              `json:"solkoffCoefficient"`
	StrengthScore float64              `json:"strengthScore"`
}

type refreshResponseDTO struct {
	Teams      int    `json:"teams"`
	Matches    int    `json:"matches"`
	Standings  int    `json:"standings"`
	StartedAt  string `json:"startedAt"`
	DurationMS int64  `json:"durationMs"`
}

// round3 keeps the derived metrics presentable; internal computation
// stays unrounded.
func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

func standingToDTO(row usecase.TableRow) standingDTO {
	dto := standingDTO{
		Position:       row.Position,
		TeamID:         row.TeamID,
		Name:           row.Name,
		Code:           row.Code,
		Crest:          row.Crest,
		Played:         row.Played,
		Won:            row.Won,
		Drawn:          row.Drawn,
		Lost:           row.Lost,
		GoalsFor:       row.GoalsFor,
		GoalsAgainst:   row.GoalsAgainst,
		GoalDifference: row.GoalDifference,
		Points:         row.Points,
		Coefficient:    round3(row.Coefficient),
		StrengthScore:  round3(row.StrengthScore),
	}
	if !row.LastUpdated.IsZero() {
		dto.LastUpdated = row.LastUpdated.UTC().Format(time.RFC3339)
	}
	return dto
}

func matchToDTO(item match.Match) matchDTO {
	return matchDTO{
		ID:         item.ID,
		HomeTeamID: item.HomeTeamID,
		AwayTeamID: item.AwayTeamID,
		HomeScore:  item.HomeScore,
		AwayScore:  item.AwayScore,
		Matchday:   item.Matchday,
		Date:       item.Date.UTC().Format(time.RFC3339),
		Status:     item.Status,
		Stage:      item.Stage,
		Round:      item.Round,
		Group:      item.GroupName,
	}
}

func solkoffDetailToDTO(detail usecase.SolkoffDetail) solkoffDetailDTO {
	opponents := make([]solkoffOpponentDTO, 0, len(detail.Opponents))
	for _, opponent := range detail.Opponents {
		legs := make([]solkoffLegDTO, 0, len(opponent.Legs))
		for _, leg := range opponent.Legs {
			legs = append(legs, solkoffLegDTO{
				MatchID:       leg.MatchID,
				Venue:         leg.Venue,
				TeamScore:     leg.TeamScore,
				OpponentScore: leg.OpponentScore,
				Outcome:       leg.Outcome,
			})
		}
		opponents = append(opponents, solkoffOpponentDTO{
			TeamID:        opponent.TeamID,
			Name:          opponent.Name,
			Crest:         opponent.Crest,
			Legs:          legs,
			Played:        opponent.Played,
			Points:        opponent.Points,
			PointsPerGame: round3(opponent.PointsPerGame),
		})
	}

	return solkoffDetailDTO{
		TeamID:        detail.TeamID,
		Name:          detail.Name,
		Code:          detail.Code,
		Crest:         detail.Crest,
		Played:        detail.Played,
		Won:           detail.Won,
		Drawn:         detail.Drawn,
		Lost:          detail.Lost,
		Points:        detail.Points,
		Opponents:     opponents,
		Coefficient:   round3(detail.Coefficient),
		StrengthScore: round3(detail.StrengthScore),
	}
}
