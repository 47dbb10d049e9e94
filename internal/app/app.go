package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/config"
	"github.com/riskibarqy/matchday/internal/domain/country"
	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/league"
	"github.com/riskibarqy/matchday/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/possession"
	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
	"github.com/riskibarqy/matchday/internal/domain/teamstats"
	"github.com/riskibarqy/matchday/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/matchday/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchday/internal/infrastructure/searchindex"
	"github.com/riskibarqy/matchday/internal/interfaces/httpapi"
	"github.com/riskibarqy/matchday/internal/observability"
	basecache "github.com/riskibarqy/matchday/internal/platform/cache"
	idgen "github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/platform/resilience"
	"github.com/riskibarqy/matchday/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// repositories is the storage set one process runs on, backed either by the
// in-memory store or by Postgres.
type repositories struct {
	countries   country.Repository
	leagues     league.Repository
	seasons     season.Repository
	teams       team.Repository
	players     player.Repository
	matches     match.Repository
	events      matchevent.Repository
	possessions possession.Repository
	stats       teamstats.Repository
	standings   leaguestanding.Repository
	ingestions  ingestion.Repository
	dispatch    jobscheduler.Repository
	tx          usecase.TxManager
}

// App owns the HTTP server and the background loops that run next to it.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	server *http.Server
	clock  *usecase.Clock
	worker *usecase.RecomputeWorker
	queue  *jobqueue.MemoryQueue
	db     *sqlx.DB

	workerDone chan error
	stopWorker context.CancelFunc
	closeOnce  sync.Once
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}

	repos, err := a.openRepositories(ctx)
	if err != nil {
		return nil, err
	}
	repos = withCatalogCache(repos, cfg.CatalogCacheTTL)

	var metrics *observability.Metrics
	var appMetrics usecase.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		appMetrics = metrics
	}

	ids := idgen.NewUUIDGenerator()
	queue, err := a.buildQueue()
	if err != nil {
		a.closeDB()
		return nil, err
	}
	jobs := usecase.NewJobDispatcher(queue, repos.dispatch, ids, appMetrics, logger)

	matchService := usecase.NewMatchService(repos.matches, repos.events, jobs, ids, appMetrics, logger)
	possessionService := usecase.NewPossessionService(repos.matches, repos.possessions, jobs, ids, logger)
	statsService := usecase.NewStatsService(repos.matches, repos.events, repos.possessions, repos.stats, jobs)
	standingsService := usecase.NewStandingsService(repos.seasons, repos.teams, repos.matches, repos.standings)
	resolvers := usecase.NewResolvers(usecase.CatalogRepositories{
		Countries: repos.countries,
		Leagues:   repos.leagues,
		Seasons:   repos.seasons,
		Teams:     repos.teams,
		Players:   repos.players,
		Matches:   repos.matches,
	}, usecase.ResolverPolicy{DefaultCountryID: cfg.IngestDefaultCountry}, ids, nil)
	ingestionService := usecase.NewIngestionService(repos.ingestions, repos.tx, resolvers, jobs, ids, logger)
	recompute := usecase.NewRecomputeHandler(statsService, standingsService, searchindex.NewLogIndexer(logger))

	if cfg.ClockEnabled {
		a.clock = usecase.NewClock(matchService, usecase.ClockConfig{
			Interval: cfg.ClockTickInterval,
			Rules: match.ClockRules{
				FirstHalfEnd:  cfg.ClockFirstHalfEnd,
				SecondHalfEnd: cfg.ClockSecondHalfEnd,
			},
			MaxConcurrency: cfg.ClockMaxConcurrency,
		}, logger)
	}
	if a.queue != nil {
		a.worker = usecase.NewRecomputeWorker(recompute, repos.dispatch, usecase.RecomputeWorkerConfig{
			Workers:         cfg.RecomputeWorkers,
			MaxRetries:      cfg.RecomputeMaxRetries,
			InitialInterval: cfg.RecomputeRetryInitial,
			MaxInterval:     cfg.RecomputeRetryMax,
		}, appMetrics, logger)
	}

	verifier := anubis.NewClient(nil, anubis.Config{
		BaseURL:         cfg.AnubisBaseURL,
		IntrospectPath:  cfg.AnubisIntrospectPath,
		AdminKey:        cfg.AnubisAdminKey,
		Timeout:         cfg.AnubisTimeout,
		CacheTTL:        cfg.AnubisCacheTTL,
		CacheMaxEntries: cfg.AnubisCacheMaxEntries,
		CircuitBreaker:  circuitConfig(cfg.AnubisCircuit),
	}, logger)

	handler := httpapi.NewHandler(
		matchService,
		possessionService,
		statsService,
		standingsService,
		ingestionService,
		recompute,
		repos.dispatch,
		logger,
	)
	routerCfg := httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		IngestLimiter:      httpapi.NewClientRateLimiter(cfg.IngestRateLimit, cfg.IngestRateBurst),
		Trace: httpapi.TraceOptions{
			ServiceName:         cfg.ServiceName,
			CaptureRequestBody:  cfg.UptraceEnabled && cfg.UptraceCaptureRequestBody,
			RequestBodyMaxBytes: cfg.UptraceRequestBodyMaxBytes,
		},
	}
	if metrics != nil {
		routerCfg.Metrics = metrics.Handler()
	}

	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, verifier, logger, routerCfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return a, nil
}

func (a *App) openRepositories(ctx context.Context) (repositories, error) {
	switch a.cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := openPostgres(ctx, a.cfg)
		if err != nil {
			return repositories{}, err
		}
		a.db = db
		if a.cfg.SeedDemoData {
			if err := postgres.BootstrapSeed(ctx, db); err != nil {
				a.closeDB()
				return repositories{}, fmt.Errorf("seed demo data: %w", err)
			}
		}
		a.logger.Info("store ready", "driver", config.StoreDriverPostgres, "db", dbNameFromURL(a.cfg.DBURL))
		return postgresRepositories(db), nil
	default:
		store := memory.NewStore()
		if a.cfg.SeedDemoData {
			store.Seed()
		}
		a.logger.Info("store ready", "driver", config.StoreDriverMemory, "seeded", a.cfg.SeedDemoData)
		return memoryRepositories(store), nil
	}
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBBinaryParameters),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns / 2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func memoryRepositories(store *memory.Store) repositories {
	return repositories{
		countries:   memory.NewCountryRepository(store),
		leagues:     memory.NewLeagueRepository(store),
		seasons:     memory.NewSeasonRepository(store),
		teams:       memory.NewTeamRepository(store),
		players:     memory.NewPlayerRepository(store),
		matches:     memory.NewMatchRepository(store),
		events:      memory.NewMatchEventRepository(store),
		possessions: memory.NewPossessionRepository(store),
		stats:       memory.NewTeamStatsRepository(store),
		standings:   memory.NewLeagueStandingRepository(store),
		ingestions:  memory.NewIngestionRepository(store),
		dispatch:    memory.NewJobDispatchRepository(store),
		tx:          store,
	}
}

func postgresRepositories(db *sqlx.DB) repositories {
	return repositories{
		countries:   postgres.NewCountryRepository(db),
		leagues:     postgres.NewLeagueRepository(db),
		seasons:     postgres.NewSeasonRepository(db),
		teams:       postgres.NewTeamRepository(db),
		players:     postgres.NewPlayerRepository(db),
		matches:     postgres.NewMatchRepository(db),
		events:      postgres.NewMatchEventRepository(db),
		possessions: postgres.NewPossessionRepository(db),
		stats:       postgres.NewTeamStatsRepository(db),
		standings:   postgres.NewLeagueStandingRepository(db),
		ingestions:  postgres.NewIngestionRepository(db),
		dispatch:    postgres.NewJobDispatchRepository(db),
		tx:          postgres.NewTxManager(db),
	}
}

// withCatalogCache fronts the hot catalog lookups with a TTL cache. A zero
// ttl disables it.
func withCatalogCache(repos repositories, ttl time.Duration) repositories {
	if ttl <= 0 {
		return repos
	}
	repos.teams = cache.NewTeamRepository(repos.teams, basecache.NewStore[team.Team](ttl, 0))
	repos.seasons = cache.NewSeasonRepository(repos.seasons, basecache.NewStore[season.Season](ttl, 0))
	return repos
}

func (a *App) buildQueue() (usecase.JobQueue, error) {
	switch a.cfg.JobQueueDriver {
	case config.QueueDriverQStash:
		return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          a.cfg.QStashBaseURL,
			Token:            a.cfg.QStashToken,
			TargetBaseURL:    a.cfg.QStashTargetBaseURL,
			Retries:          a.cfg.QStashRetries,
			InternalJobToken: a.cfg.InternalJobToken,
			CircuitBreaker:   circuitConfig(a.cfg.QStashCircuit),
		}, a.logger), nil
	case config.QueueDriverMemory, "":
		a.queue = jobqueue.NewMemoryQueue(a.cfg.RecomputeQueueSize)
		return a.queue, nil
	default:
		return nil, fmt.Errorf("unsupported job queue driver %q", a.cfg.JobQueueDriver)
	}
}

func circuitConfig(c config.CircuitConfig) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          c.Enabled,
		FailureThreshold: c.FailureThreshold,
		OpenTimeout:      c.OpenTimeout,
		HalfOpenMaxReq:   c.HalfOpenMaxReq,
	}
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Start launches the clock and the in-process recompute worker. The HTTP
// server is started separately by ListenAndServe. The worker does not stop
// with ctx; Shutdown drains it.
func (a *App) Start(ctx context.Context) error {
	if a.worker != nil {
		workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.stopWorker = cancel
		a.workerDone = make(chan error, 1)
		go func() {
			a.workerDone <- a.worker.Run(workerCtx, a.queue)
		}()
	}
	if a.clock != nil {
		if err := a.clock.Start(ctx); err != nil {
			return fmt.Errorf("start match clock: %w", err)
		}
	}
	return nil
}

func (a *App) ListenAndServe() error {
	a.logger.Info("http server starting", "addr", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, stops the clock and drains queued jobs.
// Jobs still queued when ctx expires are parked, not dropped.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if a.clock != nil {
		a.clock.Stop()
	}
	if a.queue != nil {
		a.queue.Close()
	}
	if a.workerDone != nil {
		if err := a.drainWorker(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closeDB()
	return errors.Join(errs...)
}

// workerParkTimeout bounds the wait for the worker to park its backlog once
// the drain deadline passed.
const workerParkTimeout = 5 * time.Second

// drainWorker waits for the worker to finish the closed queue. When ctx
// expires first the worker is cancelled and parks what is left.
func (a *App) drainWorker(ctx context.Context) error {
	defer a.stopWorker()

	select {
	case err := <-a.workerDone:
		if err != nil {
			return fmt.Errorf("recompute worker: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Warn("recompute worker drain deadline passed, parking queued jobs", "queued", a.queue.Len())
	a.stopWorker()
	select {
	case err := <-a.workerDone:
		if err != nil {
			return fmt.Errorf("recompute worker: %w", err)
		}
		return fmt.Errorf("recompute worker drain: %w", ctx.Err())
	case <-time.After(workerParkTimeout):
		return fmt.Errorf("recompute worker park: %w", ctx.Err())
	}
}

func (a *App) closeDB() {
	a.closeOnce.Do(func() {
		if a.db == nil {
			return
		}
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close postgres failed", "error", err)
		}
	})
}
