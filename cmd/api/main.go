package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/auth"
	"github.com/welleazyhts/p360-callcenter/internal/billing"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
	"github.com/welleazyhts/p360-callcenter/internal/config"
	"github.com/welleazyhts/p360-callcenter/internal/crmclient"
	"github.com/welleazyhts/p360-callcenter/internal/dialer"
	"github.com/welleazyhts/p360-callcenter/internal/directory"
	"github.com/welleazyhts/p360-callcenter/internal/followup"
	"github.com/welleazyhts/p360-callcenter/internal/httpapi"
	"github.com/welleazyhts/p360-callcenter/internal/reporting"
	"github.com/welleazyhts/p360-callcenter/internal/session"
	"github.com/welleazyhts/p360-callcenter/internal/tagging"
	"github.com/welleazyhts/p360-callcenter/pkg/logger"
	"github.com/welleazyhts/p360-callcenter/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

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

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Postgres and Redis are optional; without them everything runs on the
	// in-memory repositories.
	var db *sql.DB
	if cfg.DB.Host != "" {
		db, err = utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var crm *crmclient.Client
	if cfg.CRM.BaseURL != "" {
		crm = crmclient.New(cfg.CRM.BaseURL, log,
			crmclient.WithTimeout(cfg.CRM.RequestTimeout),
			crmclient.WithRetryMaxElapsed(cfg.CRM.RetryMaxElapsed),
		)
	}

	// Directory: remote customer database first, seeded memory fallback.
	seed := directory.NewMemoryRepo(directory.SeedPeople())
	var dirRepo directory.Repository = seed
	if crm != nil {
		dirRepo = directory.NewFallbackRepo(crm.Directory(), seed, log)
	}
	dir := directory.NewService(dirRepo, log)

	sessions := session.NewManager()

	var recRepo callrecord.Repository = callrecord.NewMemoryRepo()
	if db != nil {
		recRepo = callrecord.NewPostgresRepo(db)
	}

	var reminderStore followup.Store = followup.NewMemoryStore()
	if rdb != nil {
		reminderStore = followup.NewRedisStore(rdb)
	}
	scheduler := followup.NewScheduler(reminderStore)

	storeOpts := []callrecord.StoreOption{
		callrecord.WithDurationSource(sessions.DurationSoFar),
	}
	if crm != nil {
		storeOpts = append(storeOpts, callrecord.WithRemote(crm))
	}
	records := callrecord.NewStore(recRepo, scheduler, log, storeOpts...)

	auditSvc := audit.NewService(audit.NewMemoryRepo())

	loc := time.Local
	if cfg.Dialer.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Dialer.Timezone); err == nil {
			loc = l
		}
	}
	policy := dialer.NewPolicy(cfg.Dialer.WindowStartHour, cfg.Dialer.WindowEndHour, loc)
	dialOpts := []dialer.Option{
		dialer.WithPolicy(policy),
		dialer.WithMockDelays(cfg.Dialer.QueuedDelay, cfg.Dialer.ProgressDelay),
	}
	if crm != nil {
		dialOpts = append(dialOpts, dialer.WithProvider(crm))
	}
	dial := dialer.New(log, dialOpts...)

	workflow := tagging.NewWorkflow(sessions, dir, records, auditSvc, log, tagging.Config{
		SurfaceSaveFailure: cfg.Tagging.SurfaceSaveFailure,
	})

	var billingRepo billing.Repository = billing.NewMemoryRepo()
	if db != nil {
		billingRepo = billing.NewPostgresRepo(db)
	}
	billingSvc := billing.NewService(billingRepo)
	if cfg.Billing.LateFeeBps > 0 {
		billingSvc.WithFeeSchedules(&billing.FeeMemoryRepo{Schedules: []billing.FeeSchedule{{
			ID:                    "default",
			Currency:              cfg.Billing.Currency,
			GraceDays:             cfg.Billing.LateFeeGraceDays,
			RatePerDayBasisPoints: int64(cfg.Billing.LateFeeBps),
			CapMinor:              int64(cfg.Billing.LateFeeCapMinor),
			EffectiveFrom:         time.Unix(0, 0).UTC(),
			Status:                billing.ScheduleStatusActive,
		}}})
	}

	reports := reporting.NewService(&reporting.SourceRepo{
		Records: recRepo,
		Events:  auditSvc,
		Billing: billingRepo,
	})

	h := httpapi.Handlers{
		Auth:             authManager,
		Workflow:         workflow,
		Records:          records,
		Dialer:           dial,
		Reminders:        reminderStore,
		Billing:          billingSvc,
		Reports:          reports,
		Directory:        seed,
		Audit:            auditSvc,
		Redis:            rdb,
		DialCapPerMinute: cfg.Dialer.DialCapPerMinute,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

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
