package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/config"
	"github.com/kailas-cloud/smartdesk/internal/db"
	"github.com/kailas-cloud/smartdesk/internal/db/memory"
	dbRedis "github.com/kailas-cloud/smartdesk/internal/db/redis"
	"github.com/kailas-cloud/smartdesk/internal/domain"
	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
	logpkg "github.com/kailas-cloud/smartdesk/internal/logger"
	"github.com/kailas-cloud/smartdesk/internal/metrics"
	accountrepo "github.com/kailas-cloud/smartdesk/internal/repository/account"
	budgetrepo "github.com/kailas-cloud/smartdesk/internal/repository/budget"
	"github.com/kailas-cloud/smartdesk/internal/repository/embcache"
	knowledgerepo "github.com/kailas-cloud/smartdesk/internal/repository/knowledge"
	chiTransport "github.com/kailas-cloud/smartdesk/internal/transport/chi"
	localEmb "github.com/kailas-cloud/smartdesk/internal/transport/local"
	openaiEmb "github.com/kailas-cloud/smartdesk/internal/transport/openai"
	accountuc "github.com/kailas-cloud/smartdesk/internal/usecase/account"
	embeddinguc "github.com/kailas-cloud/smartdesk/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/smartdesk/internal/usecase/health"
	knowledgeuc "github.com/kailas-cloud/smartdesk/internal/usecase/knowledge"
	triageuc "github.com/kailas-cloud/smartdesk/internal/usecase/triage"
	usageuc "github.com/kailas-cloud/smartdesk/internal/usecase/usage"
	"github.com/kailas-cloud/smartdesk/internal/version"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting smartdesk server",
		zap.String("version", version.Version),
		zap.String("commit", version.Revision()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	store, err := newStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.Register()

	embedder, tracker := buildEmbedder(ctx, cfg, store, logger)

	// Knowledge base: load, embed, index
	entries, err := config.LoadKnowledge(cfg.Knowledge.File)
	if err != nil {
		logger.Fatal("Failed to load knowledge base", zap.Error(err))
	}
	knowledgeSvc := knowledgeuc.New(knowledgerepo.New(store, cfg.Storage.KeyPrefix), embedder, logger)
	if err := knowledgeSvc.Build(ctx, entries); err != nil {
		logger.Fatal("Failed to index knowledge base", zap.Error(err))
	}

	// Account store with seed accounts
	accountSvc := accountuc.New(accountrepo.New(store, cfg.Storage.KeyPrefix))
	seeded, err := accountSvc.Seed(ctx, seedAccounts(cfg.Accounts))
	if err != nil {
		logger.Fatal("Failed to seed accounts", zap.Error(err))
	}
	logger.Info("Accounts seeded", zap.Int("written", seeded), zap.Int("configured", len(cfg.Accounts)))

	triageSvc := triageuc.New(knowledgeSvc, accountSvc, triageuc.Config{
		MaxDistance: cfg.Triage.MaxDistance,
		UpgradePlan: cfg.Triage.UpgradePlan,
	}, logger)
	healthSvc := healthuc.New(store, embedder, knowledgeSvc)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetReader usageuc.BudgetReader
	if tracker != nil {
		budgetReader = tracker
	}
	usageSvc := usageuc.New(budgetReader, embedder.Provider())

	server := chiTransport.NewServer(
		triageSvc, accountSvc, knowledgeSvc, healthSvc, usageSvc, cfg.Triage.DefaultUserID, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newStore creates the database store for the configured driver.
// Valkey speaks the Redis protocol and search module commands, so both use the rueidis store.
func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverRedis, config.DriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: provider -> cache (openai only) -> instrumented.
// The tracker is nil when no token limit is configured.
func buildEmbedder(
	ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger,
) (*embeddinguc.InstrumentedEmbedder, *embeddinguc.BudgetTracker) {
	embCfg := cfg.Embedding

	var (
		embedder domain.Embedder
		provider string
		model    string
	)
	switch embCfg.Provider {
	case config.ProviderOpenAI:
		provider, model = config.ProviderOpenAI, embCfg.Model
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     embCfg.APIKey,
			BaseURL:    embCfg.BaseURL,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			Provider:   provider,
			Timeout:    time.Duration(embCfg.TimeoutSec) * time.Second,
			Logger:     logger,
		})
		embedder = base
		// TF-IDF vectors depend on the corpus, so only remote providers are cached.
		if embCfg.Cache.Enabled {
			embedder = embcache.New(base, store, embcache.Config{
				KeyPrefix:  cfg.Storage.KeyPrefix,
				Model:      embCfg.Model,
				Dim:        embCfg.Dimensions,
				TTL:        time.Duration(embCfg.Cache.TTLSec) * time.Second,
				CacheTotal: metrics.EmbeddingCacheTotal,
				Logger:     logger,
			})
		}
	default:
		provider, model = localEmb.Name, localEmb.Model
		embedder = localEmb.NewEmbedder()
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var (
		budgetChecker embeddinguc.BudgetChecker
		tracker       *embeddinguc.BudgetTracker
	)
	b := embCfg.Budget
	if b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if b.Action == string(embeddinguc.BudgetActionReject) {
			action = embeddinguc.BudgetActionReject
		}
		tracker = embeddinguc.NewBudgetTracker(embeddinguc.BudgetConfig{
			KeyPrefix:    cfg.Storage.KeyPrefix,
			Provider:     provider,
			DailyLimit:   b.DailyTokenLimit,
			MonthlyLimit: b.MonthlyTokenLimit,
			Action:       action,
		}, logger)
		// Connect persistence store, loads current counters from DB.
		tracker.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
		budgetChecker = tracker
	}

	logger.Info("Embedder created",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.Int("dimensions", embCfg.Dimensions),
		zap.Bool("budget", budgetChecker != nil),
	)

	return embeddinguc.NewInstrumentedEmbedder(embedder, provider, model, budgetChecker, logger), tracker
}

func seedAccounts(in map[string]config.AccountConfig) map[string]domacct.Settings {
	out := make(map[string]domacct.Settings, len(in))
	for id, a := range in {
		out[id] = domacct.Settings{Plan: a.Plan, Email: a.Email}
	}
	return out
}
