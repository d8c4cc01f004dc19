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

	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/bootstrap"
	"github.com/deptcms/portal/internal/config"
	"github.com/deptcms/portal/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server holds the state for the HTTP server.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	database   *db.PostgresDB
	reconciler *attachment.Reconciler
	logger     zerolog.Logger
	http       *http.Server
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(ctx context.Context, configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(ctx, cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		config:     cfg,
		router:     bootstrap.SetupRouter(cfg, deps, lgr),
		database:   database,
		reconciler: deps.Attachments.Reconciler,
		logger:     lgr,
	}, nil
}

// Run starts the HTTP server and the cleanup reconciler, then blocks until
// a signal or a listener error and shuts everything down.
func (s *Server) Run() error {
	if s.config.Reconciler.Enabled {
		if err := s.reconciler.Start(); err != nil {
			return fmt.Errorf("error starting reconciler: %w", err)
		}
	} else {
		s.logger.Warn().Msg("Attachment cleanup reconciler disabled")
	}

	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	// Uploads to the remote store happen inside the request, so writes get
	// a generous deadline
	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	shutdownError := false

	if s.reconciler != nil {
		s.logger.Info().Msg("Stopping attachment reconciler...")
		s.reconciler.Stop()
	}

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if s.database != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.database.Close()
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownError {
		return errors.New("server shutdown completed with errors")
	}
	return nil
}
