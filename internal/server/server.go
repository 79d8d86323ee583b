package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/bootstrap"
	"github.com/yigit/classroom/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Server holds the state for the HTTP server.
type Server struct {
	kind   config.ServiceKind
	config *config.Config
	router *gin.Engine
	stores *bootstrap.Stores
	relay  *services.CascadeRelay
	logger zerolog.Logger
	http   *http.Server
	cancel context.CancelFunc
}

// NewServer creates and initializes the server of one service by calling bootstrap functions.
func NewServer(kind config.ServiceKind) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores, err := bootstrap.SetupStores(ctx, cfg, kind, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup stores: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, kind, stores, lgr)
	if err != nil {
		_ = stores.Close(context.Background())
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		kind:   kind,
		config: cfg,
		router: bootstrap.SetupRouter(cfg, deps, lgr),
		stores: stores,
		relay:  deps.Relay,
		logger: lgr,
	}, nil
}

// Run starts the HTTP server and background workers and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("service", string(s.kind)).Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.startWorkers()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return errors.Join(runErr, s.Shutdown(context.Background()))
}

// startWorkers runs the background workers until Shutdown.
func (s *Server) startWorkers() {
	var workerCtx context.Context
	workerCtx, s.cancel = context.WithCancel(context.Background())
	if s.relay != nil {
		go s.relay.Run(workerCtx)
	}
}

// Shutdown drains HTTP, stops workers and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var shutdownErr error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownErr = errors.Join(shutdownErr, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	// Cancel first so a sweep blocked on a downstream call returns promptly.
	if s.cancel != nil {
		s.cancel()
	}
	if s.relay != nil {
		s.logger.Info().Msg("Stopping cascade relay...")
		s.relay.Stop(ctx)
	}

	if s.stores != nil {
		s.logger.Info().Msg("Closing stores...")
		if err := s.stores.Close(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Store close error")
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown completed with errors: %w", shutdownErr)
	}
	return nil
}
