package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/arkadyv/solkoff-board/external/footballdata"
	"github.com/arkadyv/solkoff-board/internal/config"
	"github.com/arkadyv/solkoff-board/internal/domain/apicache"
	"github.com/arkadyv/solkoff-board/internal/domain/match"
	"github.com/arkadyv/solkoff-board/internal/domain/standing"
	"github.com/arkadyv/solkoff-board/internal/domain/team"
	"github.com/arkadyv/solkoff-board/internal/infrastructure/repository/memory"
	"github.com/arkadyv/solkoff-board/internal/infrastructure/repository/postgres"
	"github.com/arkadyv/solkoff-board/internal/interfaces/httpapi"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
	"github.com/arkadyv/solkoff-board/internal/scheduler"
	"github.com/arkadyv/solkoff-board/internal/usecase"
)

// App bundles everything main needs to run and shut down the service.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler
	DB        *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger, httpLogger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if httpLogger == nil {
		httpLogger = slog.Default()
	}

	var (
		db           *sqlx.DB
		teamRepo     team.Repository
		matchRepo    match.Repository
		standingRepo standing.Repository
		cacheStore   apicache.Store
	)
	if cfg.DBURL != "" {
		conn, err := otelsqlx.Connect("postgres", cfg.DBURL,
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		db = conn
		teamRepo = postgres.NewTeamRepository(db)
		matchRepo = postgres.NewMatchRepository(db)
		standingRepo = postgres.NewStandingRepository(db)
		cacheStore = postgres.NewAPICacheStore(db, nil)
		logger.Info("storage backend", "kind", "postgres", "database", dbNameFromURL(cfg.DBURL))
	} else {
		teamRepo = memory.NewTeamRepository()
		matchRepo = memory.NewMatchRepository()
		standingRepo = memory.NewStandingRepository()
		cacheStore = memory.NewAPICacheStore(nil)
		logger.Info("storage backend", "kind", "memory")
	}

	provider := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:            cfg.ExternalAPIBaseURL,
		APIKey:             cfg.ExternalAPIKey,
		Timeout:            cfg.ExternalAPITimeout,
		MaxRetries:         cfg.ExternalAPIMaxRetries,
		CacheTTL:           cfg.APICacheTTL,
		MinRequestInterval: cfg.APIMinRequestInterval,
		Cache:              cacheStore,
		Logger:             logger,
	})

	syncSvc := usecase.NewSyncService(provider, teamRepo, matchRepo, standingRepo, usecase.SyncConfig{
		CompetitionID: cfg.CompetitionID,
		UpsertWorkers: cfg.SyncWorkers,
	}, nil, logger)
	solkoffSvc := usecase.NewSolkoffService(teamRepo, matchRepo, cfg.SolkoffFormula, logger)
	tableSvc := usecase.NewTableService(teamRepo, matchRepo, standingRepo, solkoffSvc, logger)

	handler := httpapi.NewHandler(tableSvc, solkoffSvc, syncSvc, httpLogger)
	router := httpapi.NewRouter(handler, httpLogger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:    server,
		Scheduler: scheduler.New(syncSvc, cfg.UpdateInterval, logger),
		DB:        db,
	}, nil
}

// Close releases resources owned by the app. The HTTP server and the
// scheduler are shut down by main before this is called.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
