package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerTournamentRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/standings", handler.ListStandings)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}/solkoff", handler.GetTeamSolkoff)
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/refresh", handler.Refresh)
	mux.HandleFunc("POST /v1/cache/clear", handler.ClearCache)
}
