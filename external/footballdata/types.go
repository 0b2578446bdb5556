package footballdata

import (
	"time"

	"github.com/arkadyv/solkoff-board/internal/usecase"
)

// Wire envelopes for the football-data.org v4 REST API. Only the fields
// the sync pipeline reads are declared; sonic ignores the rest.

type teamPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
	Crest     string `json:"crest"`
}

type scorePayload struct {
	Winner   string `json:"winner"`
	FullTime struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"fullTime"`
}

type matchPayload struct {
	ID       int64        `json:"id"`
	UTCDate  time.Time    `json:"utcDate"`
	Status   string       `json:"status"`
	Stage    string       `json:"stage"`
	Group    string       `json:"group"`
	Matchday int          `json:"matchday"`
	HomeTeam teamPayload  `json:"homeTeam"`
	AwayTeam teamPayload  `json:"awayTeam"`
	Score    scorePayload `json:"score"`
}

type matchesEnvelope struct {
	Matches []matchPayload `json:"matches"`
}

type tableRowPayload struct {
	Position       int         `json:"position"`
	Team           teamPayload `json:"team"`
	PlayedGames    int         `json:"playedGames"`
	Won            int         `json:"won"`
	Draw           int         `json:"draw"`
	Lost           int         `json:"lost"`
	Points         int         `json:"points"`
	GoalsFor       int         `json:"goalsFor"`
	GoalsAgainst   int         `json:"goalsAgainst"`
	GoalDifference int         `json:"goalDifference"`
}

type standingsTablePayload struct {
	Stage string            `json:"stage"`
	Type  string            `json:"type"`
	Group string            `json:"group"`
	Table []tableRowPayload `json:"table"`
}

type standingsEnvelope struct {
	Standings []standingsTablePayload `json:"standings"`
}

func mapTeamRef(payload teamPayload) usecase.ExternalTeamRef {
	name := payload.Name
	if name == "" {
		name = payload.ShortName
	}
	return usecase.ExternalTeamRef{
		ID:    payload.ID,
		Name:  name,
		Code:  payload.TLA,
		Crest: payload.Crest,
	}
}

func mapMatch(payload matchPayload) usecase.ExternalMatch {
	out := usecase.ExternalMatch{
		ID:        payload.ID,
		Home:      mapTeamRef(payload.HomeTeam),
		Away:      mapTeamRef(payload.AwayTeam),
		HomeScore: payload.Score.FullTime.Home,
		AwayScore: payload.Score.FullTime.Away,
		Matchday:  payload.Matchday,
		Date:      payload.UTCDate,
		Status:    payload.Status,
		Stage:     payload.Stage,
		Group:     payload.Group,
	}
	// The provider only labels rounds through the stage field; league
	// phase matches carry matchdays instead of rounds.
	if payload.Stage != "" && payload.Stage != "LEAGUE_STAGE" && payload.Stage != "GROUP_STAGE" {
		out.Round = payload.Stage
	}
	return out
}

func mapStandings(envelope standingsEnvelope) []usecase.ExternalStanding {
	out := make([]usecase.ExternalStanding, 0, 36)
	for _, table := range envelope.Standings {
		// HOME/AWAY split tables restate the same teams; only the TOTAL
		// view feeds the persisted standings.
		if table.Type != "" && table.Type != "TOTAL" {
			continue
		}
		for _, row := range table.Table {
			out = append(out, usecase.ExternalStanding{
				Team:           mapTeamRef(row.Team),
				Position:       row.Position,
				Played:         row.PlayedGames,
				Won:            row.Won,
				Drawn:          row.Draw,
				Lost:           row.Lost,
				GoalsFor:       row.GoalsFor,
				GoalsAgainst:   row.GoalsAgainst,
				GoalDifference: row.GoalDifference,
				Points:         row.Points,
				Group:          table.Group,
			})
		}
	}
	return out
}
