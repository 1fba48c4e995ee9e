package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bookvine/cart-service/internal/application/commands"
	"github.com/bookvine/cart-service/internal/application/use_cases"
	"github.com/bookvine/cart-service/internal/config"
	"github.com/bookvine/cart-service/internal/infrastructure/http/handlers"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

type Server struct {
	server         *http.Server
	logger         *logger.Logger
	healthHandler  *handlers.HealthHandler
	cartHandler    *handlers.CartHandler
	sessionHandler *handlers.SessionHandler
}

func NewServer(
	cfg *config.Config,
	sessions *use_cases.SessionRegistry,
	redisClient *goredis.Client,
	log *logger.Logger,
) *Server {
	addItemHandler := commands.NewAddItemHandler(sessions, log)
	loginHandler := commands.NewLoginHandler(sessions, log)

	cartHandler := handlers.NewCartHandler(sessions, addItemHandler, log)
	sessionHandler := handlers.NewSessionHandler(sessions, loginHandler, log)
	healthHandler := handlers.NewHealthHandler(redisClient, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		server:         server,
		logger:         log,
		healthHandler:  healthHandler,
		cartHandler:    cartHandler,
		sessionHandler: sessionHandler,
	}
}

func (s *Server) ListenAndServe() error {
	s.server.Handler = s.setupRoutes()

	s.logger.Info("Starting HTTP server", "address", s.server.Addr)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
