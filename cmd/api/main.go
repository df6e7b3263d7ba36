package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callsync/internal/audit"
	"callsync/internal/auth"
	"callsync/internal/closecrm"
	"callsync/internal/config"
	"callsync/internal/dedupe"
	"callsync/internal/directory"
	"callsync/internal/poller"
	"callsync/internal/presence"
	"callsync/internal/reporting"
	"callsync/internal/routing"
	"callsync/internal/syncer"
	"callsync/internal/taskrouter"
	"callsync/pkg/logger"
	"callsync/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	startupCtx, cancelStartup := context.WithTimeout(rootCtx, 60*time.Second)
	defer cancelStartup()

	// CRM client; the organization id can be resolved from the API key.
	crm := closecrm.NewHTTPClient(cfg.Close.BaseURL, cfg.Close.APIKey)
	orgID := cfg.Close.OrganizationID
	if orgID == "" {
		orgID, err = crm.ResolveOrganization(startupCtx)
		if err != nil {
			log.Error("organization resolution failed", "err", err)
			os.Exit(1)
		}
		log.Info("organization resolved", "org_id", orgID)
	}

	tr := taskrouter.NewHTTPClient(cfg.Twilio.BaseURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WorkspaceSID)

	// The canonical statuses must each have a workspace activity, or
	// every status write would fail. Refuse to start without them.
	activities, err := tr.ListActivities(startupCtx)
	if err != nil {
		log.Error("activity discovery failed", "err", err)
		os.Exit(1)
	}
	for _, st := range []presence.Status{presence.StatusOffline, presence.StatusOnline, presence.StatusOnCall} {
		if _, ok := activities.SIDFor(st.String()); !ok {
			log.Error("workspace is missing a required activity", "activity", st.String())
			os.Exit(1)
		}
	}

	// Webhook dedup: shared via Redis when configured, per-process otherwise.
	var dedupeStore dedupe.Store = dedupe.NewMemoryStore(24 * time.Hour)
	if cfg.Redis.Addr != "" {
		rdb, err := utils.OpenRedis(startupCtx, utils.RedisConfig{Addr: cfg.Redis.Addr})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		dedupeStore = dedupe.NewRedisStore(rdb, 24*time.Hour)
	}

	// Audit trail: durable when a DSN is configured, in-memory otherwise.
	var auditRepo audit.Repository = audit.NewMemoryRepo()
	if cfg.Audit.DSN != "" {
		db, err := utils.OpenPostgres(startupCtx, "pgx", cfg.Audit.DSN, utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		auditRepo = audit.NewPostgresRepo(db)
	}
	auditSvc := audit.NewService(auditRepo, log)

	reports := reporting.NewService(reporting.NewMemoryRepo(0))

	groupIDs := make([]string, 0, len(cfg.Queues))
	for _, q := range cfg.Queues {
		groupIDs = append(groupIDs, q.GroupID)
	}
	fetcher := directory.NewFetcher(crm, tr, orgID, groupIDs, log)

	sync := syncer.New(syncer.Deps{
		CRM:        crm,
		TaskRouter: tr,
		Fetcher:    fetcher,
		Activities: activities,
		Queues:     cfg.Queues,
		OrgID:      orgID,
		Audit:      auditSvc,
		Log:        log,
	})

	// Converge before accepting traffic: every membership gets a worker
	// and all three reconcilers run once.
	startupReport := sync.Startup(startupCtx)
	if err := reports.Record(startupCtx, reporting.TriggerStartup, startupReport); err != nil {
		log.Warn("startup report archive failed", "err", err)
	}
	if !startupReport.Clean() {
		log.Warn("startup pass finished with failures",
			"fetch_errors", len(startupReport.FetchErrors),
			"errors", len(startupReport.Errors),
		)
	}
	log.Info("startup pass finished",
		"workers_created", startupReport.WorkersCreated,
		"writes", startupReport.TotalWrites(),
	)

	engine := routing.NewEngine(routing.EngineDeps{
		Queues:         cfg.Queues,
		FallbackNumber: cfg.Twilio.FallbackNumber,
		BaseURL:        cfg.App.BaseURL,
		Predicate:      presence.QueuePredicate{OnCallBlocks: cfg.Sync.OnCallBlocksQueueEligibility},
		Workers:        fetcher,
		Tasks:          tr,
		Audit:          auditSvc,
		Log:            log,
	})

	// Ops API auth is optional outside production.
	var authManager *auth.Manager
	if cfg.Auth.JWTSecret != "" {
		authManager, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:     cfg,
		auth:    authManager,
		engine:  engine,
		syncer:  sync,
		dedupe:  dedupeStore,
		reports: reports,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go poller.New(sync, reports, cfg.Sync.Interval, log).Run(rootCtx)

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
