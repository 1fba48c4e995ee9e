package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookvine/cart-service/internal/application/use_cases"
	"github.com/bookvine/cart-service/internal/config"
	"github.com/bookvine/cart-service/internal/domain/cart"
	"github.com/bookvine/cart-service/internal/infrastructure/gateway/cartapi"
	"github.com/bookvine/cart-service/internal/infrastructure/gateway/catalogapi"
	"github.com/bookvine/cart-service/internal/infrastructure/http/server"
	"github.com/bookvine/cart-service/internal/infrastructure/persistence/redis"
	"github.com/bookvine/cart-service/internal/infrastructure/scheduler"
	"github.com/bookvine/cart-service/internal/pkg/clock"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	log := logger.NewLogger()
	log.Info("Starting Cart Session Service")

	cfg, configErr := config.LoadConfig(*configPath)
	if configErr != nil {
		log.Fatal("Failed to load configuration", "error", configErr)
	}

	redisConn, redisErr := redis.NewConnection(cfg.Redis)
	if redisErr != nil {
		log.Fatal("Failed to connect to Redis", "error", redisErr)
	}
	defer redisConn.Close()

	cartGateway := cartapi.NewClient(cfg.CartAPI.BaseURL, cfg.CartAPI.Timeout())
	catalogClient := catalogapi.NewClient(cfg.CatalogAPI.BaseURL, cfg.CatalogAPI.Timeout())
	catalogCache := redis.NewCatalogCache(redisConn, catalogClient, cfg.Cart.CatalogCacheTTL(), log)

	sessionFactory := func() *use_cases.CartSyncUseCase {
		return use_cases.NewCartSyncUseCase(
			cart.NewStore(cfg.Cart.AllowOverOrdering),
			cartGateway,
			catalogCache,
			log,
			cfg.CartAPI.Timeout(),
		)
	}
	sessions := use_cases.NewSessionRegistry(sessionFactory, clock.NewRealClock(), cfg.Cart.SessionTTL(), log)

	reconciler := scheduler.NewDriftReconciler(sessions, log, cfg.Cart.ReconcileInterval())

	httpServer := server.NewServer(cfg, sessions, redisConn.GetClient(), log)

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	go reconciler.Start(serverCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigChan
		shutdownCtx, shutdownCancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer shutdownCancel()

		log.Info("Shutting down server...")
		reconciler.Stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}

		serverStopCtx()
	}()

	log.Info("Server starting", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed", "error", err)
	}

	<-serverCtx.Done()
	log.Info("Server stopped")
}
