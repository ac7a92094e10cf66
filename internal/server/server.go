// =============================================================================
// Plan of Study Converter - HTTP API
// =============================================================================
//
// This module exposes parsing and the plan store over HTTP.
//
// ROUTES:
//   GET    /healthz                     Liveness probe
//   POST   /api/plans/preview           Parse an uploaded sheet, store nothing
//   POST   /api/plans                   Parse an upload or decode a JSON plan,
//                                       check it and store it
//   GET    /api/plans                   List stored plans
//   GET    /api/plans/:departmentId     Fetch one stored plan
//   DELETE /api/plans/:departmentId     Remove a stored plan
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ginjaninja78/plan-of-study-converter/internal/config"
	"github.com/ginjaninja78/plan-of-study-converter/internal/logging"
	"github.com/ginjaninja78/plan-of-study-converter/internal/store"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Server represents the HTTP API.
type Server struct {
	router   *gin.Engine
	store    store.PlanStore
	config   *config.MainConfig
	profiles []*config.DepartmentProfile
	logger   logging.Logger
}

// New creates a server backed by the given store.
//
// PARAMETERS:
//   - mainConfig: Supplies the parser settings, strictness and upload limit.
//   - profiles: Department profiles matched against uploaded file names.
//   - plans: Where accepted plans are kept.
//   - logger: Request and error logging.
func New(mainConfig *config.MainConfig, profiles []*config.DepartmentProfile, plans store.PlanStore, logger logging.Logger) *Server {
	router := gin.New()
	router.MaxMultipartMemory = uploadLimit(mainConfig)

	s := &Server{
		router:   router,
		store:    plans,
		config:   mainConfig,
		profiles: profiles,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api/plans")
	api.POST("/preview", s.limitBody, s.handlePreview)
	api.POST("", s.limitBody, s.handleCreate)
	api.GET("", s.handleList)
	api.GET("/:departmentId", s.handleGet)
	api.DELETE("/:departmentId", s.handleDelete)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func uploadLimit(mainConfig *config.MainConfig) int64 {
	return int64(mainConfig.Server.MaxUploadMB) << 20
}
