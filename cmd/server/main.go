package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accessapp "github.com/backoffice/backend/internal/application/access"
	"github.com/backoffice/backend/internal/application/importer"
	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/infrastructure/auth"
	"github.com/backoffice/backend/internal/infrastructure/cache"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/extsource"
	"github.com/backoffice/backend/internal/infrastructure/logger"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
	"github.com/backoffice/backend/internal/infrastructure/scheduler"
	"github.com/backoffice/backend/internal/interfaces/http/handler"
	"github.com/backoffice/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting backoffice backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env))

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Access resolution chain: graph resolver behind the configured cache.
	graph := access.DefaultRelationGraph()
	grantRepo := persistence.NewGormGrantRepository(db.DB)
	idSource, err := persistence.NewGormEntityIDSource(db.DB)
	if err != nil {
		log.Fatal("Failed to build entity ID source", zap.Error(err))
	}

	cacheFactory := cache.NewAccessCacheFactory(cfg.AccessCache, cfg.Redis, cache.WithLogger(log))
	accessCache, err := cacheFactory.Create()
	if err != nil {
		log.Fatal("Failed to create access cache", zap.Error(err))
	}

	resolver := accessapp.NewCachedResolver(
		accessapp.NewGraphResolver(graph, grantRepo, idSource),
		accessCache, graph, cacheFactory.DisabledKinds(), log)
	gate := accessapp.NewGate(resolver, auth.NewClaimsPermissionChecker(), grantRepo, idSource, log)
	grantService := accessapp.NewGrantService(grantRepo, resolver, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	r := router.NewRouter(engine, jwtService)
	r.RegisterPublic(handler.NewSystemHandler(db))
	r.Register(handler.NewGrantHandler(grantService))
	r.Register(handler.NewCatalogHandler(gate, resolver,
		persistence.NewGormBrandRepository(db.DB),
		persistence.NewGormProductRepository(db.DB)))
	r.Register(handler.NewOrderHandler(gate, resolver,
		persistence.NewGormOrderRepository(db.DB)))
	r.Register(handler.NewExpenseHandler(gate, resolver,
		persistence.NewGormExpenseRepository(db.DB)))

	var importScheduler *scheduler.ImportCronScheduler
	if cfg.Import.Enabled {
		source, err := extsource.NewAdapter(cfg.ExternalSource, log)
		if err != nil {
			log.Fatal("Failed to connect to external source", zap.Error(err))
		}
		orchestrator := importer.NewOrchestrator(
			source,
			persistence.NewGormUnitOfWork(db.DB),
			persistence.NewGormSyncStateRepository(db.DB),
			persistence.NewAdvisoryRunLocker(db.DB),
			importer.OrchestratorConfig{
				Policy:          importsync.ReferencePolicy(cfg.Import.Policy),
				ChunkSize:       cfg.Import.ChunkSize,
				CheckpointEvery: cfg.Import.CheckpointEvery,
			},
			log)
		r.Register(handler.NewImportHandler(orchestrator,
			persistence.NewGormSyncStateRepository(db.DB)))

		if cfg.Import.SchedulerEnabled {
			importScheduler = scheduler.NewImportCronScheduler(orchestrator, cfg.Import.CronSchedule, log)
			if err := importScheduler.Start(); err != nil {
				log.Fatal("Failed to start import scheduler", zap.Error(err))
			}
		}
	}

	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if importScheduler != nil {
		if err := importScheduler.Stop(ctx); err != nil {
			log.Warn("Import scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
