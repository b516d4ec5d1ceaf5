// @title         NewsLens Automation API
// @version       0.1.0
// @description   Workflow control surface and read only thread endpoints
// @BasePath      /api/v1
// @securityDefinitions.apikey BearerAuth
// @in            header
// @name          Authorization

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/automaxprocs/maxprocs"

	"newslens/internal/adapters/llm"
	"newslens/internal/adapters/news"
	"newslens/internal/core/version"
	"newslens/internal/modkit"
	"newslens/internal/modkit/module"
	"newslens/internal/modkit/repokit"
	"newslens/internal/platform/config"
	"newslens/internal/platform/logger"
	phttp "newslens/internal/platform/net/http"
	"newslens/internal/platform/store"

	"newslens/internal/services/api"
	articlesmod "newslens/internal/services/articles/module"
	harvestmod "newslens/internal/services/factharvest/module"
	factsmod "newslens/internal/services/facts/module"
	orchdom "newslens/internal/services/orchestrator/domain"
	orchmod "newslens/internal/services/orchestrator/module"
	linkermod "newslens/internal/services/threadlinker/module"
)

func main() {
	// bring up logging early
	l := logger.Get()

	root, err := config.Load(os.Getenv("NEWSLENS_CONFIG"))
	if err != nil {
		l.Panic().Err(err).Msg("config")
	}
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // postgres lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // run history lives under SERVICE_CLICKHOUSE_*
	rdsCfg := root.Prefix("SERVICE_REDIS_")     // url dedup lives under SERVICE_REDIS_*

	if _, err := maxprocs.Set(maxprocs.Logger(func(f string, a ...any) { l.Debug().Msgf(f, a...) })); err != nil {
		l.Warn().Err(err).Msg("GOMAXPROCS not adjusted")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scfg := store.Config{
		AppName: version.Service,
		PG: store.PGConfig{
			Enabled:        pgCfg.MayBool("ENABLED", true),
			MaxConns:       int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs:    pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:         pgCfg.MayBool("LOG_SQL", false),
			ConnectRetries: pgCfg.MayInt("CONNECT_RETRIES", 6),
		},
		CH: store.CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			ClientName: "newslens",
			ClientTag:  "automation",
		},
		RDS: store.RedisConfig{
			Enabled:  rdsCfg.MayBool("ENABLED", false),
			Password: rdsCfg.MayString("PASSWORD", ""),
			DB:       rdsCfg.MayInt("DB", 0),
		},
	}
	if scfg.PG.Enabled {
		scfg.PG.URL = pgCfg.MustString("DBURL")
	}
	if scfg.CH.Enabled {
		scfg.CH.URL = chCfg.MustString("DBURL")
	}
	if scfg.RDS.Enabled {
		scfg.RDS.Addr = rdsCfg.MayString("ADDR", "localhost:6379")
	}

	// open the platform store (postgres, optional CH history and redis dedup)
	st, err := store.Open(ctx, scfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// open already retried the connects, a failure here starts degraded and shows on /meta/ready
	_ = repokit.Guard(ctx, *l, st, 5*time.Second)

	deps := modkit.FromStore(*l, root, st)

	// fact store and dedup backends
	facts, err := factsmod.New(deps, factsmod.FromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("facts module")
	}
	if err := facts.Start(ctx); err != nil {
		l.Panic().Err(err).Msg("facts schema migration failed")
	}
	fp := module.MustPortsOf[factsmod.Ports](facts)

	// llm collaborators
	lc := llm.FromConfig(root)
	steps, err := llm.LoadSteps(lc.Steps)
	if err != nil {
		l.Panic().Err(err).Msg("load harvest instructions")
	}
	harvestClient, err := llm.NewClient(lc.Harvest)
	if err != nil {
		l.Panic().Err(err).Msg("harvest llm client")
	}
	extractor, err := llm.NewFactExtractor(harvestClient, steps)
	if err != nil {
		l.Panic().Err(err).Msg("fact extractor")
	}
	instruction, err := llm.LoadInstruction(lc.WriterInstruction)
	if err != nil {
		l.Panic().Err(err).Msg("load writer instruction")
	}
	writerClient, err := llm.NewClient(lc.Writer)
	if err != nil {
		l.Panic().Err(err).Msg("writer llm client")
	}
	writer, err := llm.NewArticleWriter(writerClient, instruction)
	if err != nil {
		l.Panic().Err(err).Msg("article writer")
	}

	// news providers
	providers, err := news.Build(news.FromConfig(root), time.Now())
	if err != nil {
		l.Panic().Err(err).Msg("news providers")
	}

	// workflows, registered with the orchestrator in this order
	harvest := harvestmod.New(deps, harvestmod.FromConfig(root), providers, fp.Dedup, extractor, fp.Repo)
	linker, err := linkermod.New(deps, linkermod.FromConfig(root), fp.Repo)
	if err != nil {
		l.Panic().Err(err).Msg("thread linker module")
	}
	articles := articlesmod.New(deps, articlesmod.FromConfig(root), fp.Repo, writer)

	workflows := []orchdom.Workflow{
		module.MustPortsOf[harvestmod.Ports](harvest).Workflow,
		module.MustPortsOf[articlesmod.Ports](articles).Workflow,
		module.MustPortsOf[linkermod.Ports](linker).Workflow,
	}
	orch, err := orchmod.New(deps, orchmod.FromConfig(root), workflows)
	if err != nil {
		l.Panic().Err(err).Msg("orchestrator registry")
	}

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Deps:           deps,
		Logger:         l,
		ServiceName:    version.Service,
		Modules:        []module.Module{facts, harvest, linker, articles, orch},
		RequestTimeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 15*time.Minute),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	if err := orch.Start(ctx); err != nil {
		l.Panic().Err(err).Msg("orchestrator start")
	}

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run(ctx) }()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		l.Warn().Err(err).Msg("systemd notify failed")
	} else if ok {
		l.Debug().Msg("systemd notified ready")
	}
	l.Info().Str("version", version.Info().Version).Msg("automation running")

	select {
	case <-ctx.Done():
		l.Info().Msg("shutdown requested")
	case err := <-srvErr:
		if err != nil {
			l.Error().Err(err).Msg("http server stopped")
		}
	}
	stop()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// orchestrator first so in flight runs finish against open stores
	if err := orch.Shutdown(context.Background()); err != nil {
		l.Error().Err(err).Msg("orchestrator shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("http shutdown")
	}
	l.Info().Msg("automation stopped")
}
