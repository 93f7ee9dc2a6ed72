package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wervio/wervio/internal/db"
	"github.com/wervio/wervio/internal/handlers"
	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/repository/postgres"
	"github.com/wervio/wervio/internal/service/checkout"
	"github.com/wervio/wervio/internal/service/employer"
	"github.com/wervio/wervio/internal/service/sweeper"
	"github.com/wervio/wervio/internal/service/vacancy"
	"github.com/wervio/wervio/internal/service/wallet"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	sweeper *sweeper.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	employerService := employer.NewService(storage)
	walletService := wallet.NewService(storage)
	vacancyService := vacancy.NewService(storage, logger)
	checkoutService := checkout.NewService(storage, logger)

	mux := handlers.NewRouter(
		employerService,
		walletService,
		vacancyService,
		checkoutService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     logger,
		sweeper:    sweeper.New(storage, logger, c.SweepInterval),
	}, nil
}

// Run starts the http server and the background sweeper and closes both
// gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}
