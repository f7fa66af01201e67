package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/backoffice/internal/application/services"
	"github.com/nexuscrm/backoffice/internal/bootstrap"
	"github.com/nexuscrm/backoffice/internal/config"
	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/internal/infrastructure/database"
	"github.com/nexuscrm/backoffice/internal/infrastructure/persistence"
	"github.com/nexuscrm/backoffice/internal/interfaces/middleware"
	"github.com/nexuscrm/backoffice/internal/interfaces/rest"
	"github.com/nexuscrm/backoffice/pkg/auth"
	"github.com/nexuscrm/backoffice/pkg/logging"
)

// openStores selects the document and key-value stores for the configured
// driver. The returned closers are released on shutdown.
func openStores(cfg *config.Config) (ports.DocumentStore, ports.KeyValueStore, []io.Closer, error) {
	log := logging.For("server")

	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("⚠️ Using in-memory storage, nothing survives a restart")
		return persistence.NewMemoryDocumentStore(), persistence.NewMemoryKVStore(), nil, nil
	}

	conn, err := database.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	closers := []io.Closer{conn}

	repo := persistence.NewDocumentRepository(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	log.Infof("✅ Document store ready (%s)", conn.Dialect())

	kv, err := persistence.OpenBadgerKVStore(cfg.ColumnsDir)
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	closers = append(closers, kv)
	log.Infof("✅ View preferences stored in %s", cfg.ColumnsDir)

	return repo, kv, closers, nil
}

func main() {
	cfg := config.Load()
	logging.Configure(cfg.LogLevel, cfg.LogFormat)
	log := logging.For("server")
	gin.SetMode(cfg.GinMode)

	defaults, err := bootstrap.LoadDefaults(cfg.DefaultsFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load module defaults")
	}

	docs, kv, closers, err := openStores(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}

	svcMgr := services.NewServiceManager(docs, kv, defaults, middleware.Identity)
	log.Infof("🔧 Service manager initialized (%d modules)", len(svcMgr.Configs.Modules()))

	// Load every module configuration up front so fallbacks show in the log
	for _, module := range svcMgr.Configs.Modules() {
		store, err := svcMgr.Configs.Store(module)
		if err != nil {
			continue
		}
		if status := store.Initialize(context.Background()); status.LoadedWithDefaults {
			log.WithError(status.Warning).Warnf("⚠️ Module %s is running on built-in defaults", module)
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := gin.New()
	router.Use(gin.Recovery())
	rest.SetupRoutes(router, svcMgr, tokens, limiter)

	log.Infof("🚀 Backoffice started on http://localhost:%s", cfg.Port)
	log.Infof("💚 Health check: http://localhost:%s/health", cfg.Port)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("⚠️ Failed to close store")
		}
	}

	log.Info("Server exiting")
}
