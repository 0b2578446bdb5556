package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/usecase"
)

type Handler struct {
	tableService   *usecase.TableService
	solkoffService *usecase.SolkoffService
	syncService    *usecase.SyncService
	logger         *slog.Logger
	validator      *validator.Validate
}

func NewHandler(
	tableService *usecase.TableService,
	solkoffService *usecase.SolkoffService,
	syncService *usecase.SyncService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tableService:   tableService,
		solkoffService: solkoffService,
		syncService:    syncService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	ordering, err := usecase.ParseSolkoffOrdering(r.URL.Query().Get("order"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.tableService.Snapshot(ctx, ordering)
	if err != nil {
		h.logger.ErrorContext(ctx, "standings snapshot failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]standingDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, standingToDTO(row))
	}

	writeSuccess(ctx, w, http.StatusOK, standingsResponseDTO{
		Order:     string(ordering),
		Standings: items,
	})
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.tableService.ListTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, item := range teams {
		items = append(items, teamDTO{
			ID:    item.ID,
			Name:  item.Name,
			Code:  item.Code,
			Crest: item.Crest,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type listMatchesQuery struct {
	Statuses []string `validate:"dive,oneof=SCHEDULED TIMED LIVE IN_PLAY PAUSED FINISHED POSTPONED SUSPENDED CANCELLED"`
	Stage    string   `validate:"omitempty,max=64"`
	TeamID   int64    `validate:"omitempty,gt=0"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	query := listMatchesQuery{
		Stage: strings.TrimSpace(r.URL.Query().Get("stage")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			query.Statuses = append(query.Statuses, match.NormalizeStatus(status))
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("team")); raw != "" {
		teamID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: team must be an integer", usecase.ErrInvalidInput))
			return
		}
		query.TeamID = teamID
	}
	if err := h.validator.Struct(query); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	matches, err := h.tableService.ListMatches(ctx, match.Filter{
		Statuses: query.Statuses,
		Stage:    query.Stage,
		TeamID:   query.TeamID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, item := range matches {
		items = append(items, matchToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeamSolkoff(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamSolkoff")
	defer span.End()

	teamID, err := strconv.ParseInt(r.PathValue("teamID"), 10, 64)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: team id must be an integer", usecase.ErrInvalidInput))
		return
	}

	detail, err := h.solkoffService.ComputeForTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "solkoff detail failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, solkoffDetailToDTO(detail))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Refresh")
	defer span.End()

	summary, err := h.syncService.RefreshNow(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual refresh failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, refreshResponseDTO{
		Teams:      summary.Teams,
		Matches:    summary.Matches,
		Standings:  summary.Standings,
		StartedAt:  summary.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: summary.Duration.Milliseconds(),
	})
}

func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearCache")
	defer span.End()

	if err := h.syncService.ClearCache(ctx); err != nil {
		h.logger.ErrorContext(ctx, "cache clear failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "cleared"})
}
