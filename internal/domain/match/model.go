package match

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
	StatusLive      = "LIVE"
	StatusInPlay    = "IN_PLAY"
	StatusPaused    = "PAUSED"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusSuspended = "SUSPENDED"
	StatusCancelled = "CANCELLED"
)

const (
	StageLeague          = "LEAGUE"
	StageKnockoutPlayoff = "KNOCKOUT_PLAYOFF"
	StageRoundOf16       = "ROUND_OF_16"
	StageQuarterFinal    = "QUARTER_FINAL"
	StageSemiFinal       = "SEMI_FINAL"
	StageFinal           = "FINAL"
)

// Match is one fixture between two teams. Scores stay nil until the
// provider reports them; status and scores mutate across syncs while the
// ID and team references stay fixed.
type Match struct {
	ID            int64
	CompetitionID string
	HomeTeamID    int64
	AwayTeamID    int64
	HomeScore     *int
	AwayScore     *int
	Matchday      int
	Date          time.Time
	Status        string
	Stage         string
	Round         string
	GroupName     string
}

// Filter narrows List queries. Zero values mean "no constraint".
type Filter struct {
	Statuses []string
	Stage    string
	TeamID   int64
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}

// NormalizeStage maps provider stage spellings onto the canonical set.
// Unknown stages are kept verbatim so new provider values survive a sync.
func NormalizeStage(value string) string {
	stage := strings.ToUpper(strings.TrimSpace(value))
	switch stage {
	case "", "LEAGUE", "LEAGUE_STAGE", "GROUP_STAGE":
		return StageLeague
	case "KNOCKOUT_PLAYOFF", "PLAYOFFS", "PLAY_OFF_ROUND", "KNOCKOUT_ROUND":
		return StageKnockoutPlayoff
	case "ROUND_OF_16", "LAST_16":
		return StageRoundOf16
	case "QUARTER_FINAL", "QUARTER_FINALS":
		return StageQuarterFinal
	case "SEMI_FINAL", "SEMI_FINALS":
		return StageSemiFinal
	case "FINAL":
		return StageFinal
	default:
		return stage
	}
}

// HasFinalScore reports whether the match both finished and carries a
// full-time score. Finished matches missing scores contribute nothing to
// derived metrics.
func (m Match) HasFinalScore() bool {
	return IsFinishedStatus(m.Status) && m.HomeScore != nil && m.AwayScore != nil
}

// Opponent returns the other side of the match from teamID's point of
// view, with ok=false when the team did not play in it.
func (m Match) Opponent(teamID int64) (int64, bool) {
	switch teamID {
	case m.HomeTeamID:
		return m.AwayTeamID, true
	case m.AwayTeamID:
		return m.HomeTeamID, true
	default:
		return 0, false
	}
}
