package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/grachmannico95/payments-ledger/internal/config"
	"github.com/grachmannico95/payments-ledger/internal/handler"
	"github.com/grachmannico95/payments-ledger/internal/middleware"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo          *echo.Echo
	cfg           *config.Config
	logger        *logger.Logger
	batchHandler  *handler.BatchHandler
	healthHandler *handler.HealthHandler
	setupOnce     sync.Once
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	batchHandler *handler.BatchHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Server{
		echo:          e,
		cfg:           cfg,
		logger:        log,
		batchHandler:  batchHandler,
		healthHandler: healthHandler,
	}
}

func (s *Server) Start() error {
	s.setup()

	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setup() {
	s.setupOnce.Do(func() {
		s.setupMiddleware()
		s.setupRoutes()
	})
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler.Check)

	batches := s.echo.Group("/batches")
	batches.POST("", s.batchHandler.Upload)
	batches.GET("/:id", s.batchHandler.GetBatch)
	batches.GET("/:id/accounts", s.batchHandler.GetAccounts)
	batches.GET("/:id/accounts/:client", s.batchHandler.GetAccount)
	batches.GET("/:id/failures", s.batchHandler.GetFailures)
}

// Handler returns the configured router, for tests and embedding.
func (s *Server) Handler() *echo.Echo {
	s.setup()
	return s.echo
}
