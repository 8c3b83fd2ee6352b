// Package server exposes the indexer, translator and fine-tune store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantmind-br/docstranslate/internal/config"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/finetune"
	"github.com/quantmind-br/docstranslate/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Server is the HTTP front end
type Server struct {
	engine          *gin.Engine
	httpServer      *http.Server
	logger          *utils.Logger
	shutdownTimeout time.Duration
}

// Options contains options for creating a Server
type Options struct {
	Config      config.ServerConfig
	ServiceName string
	Parser      domain.RepositoryParser
	Translator  domain.Translator
	Store       finetune.Store
	Logger      *utils.Logger
}

// New builds the router and its middleware chain
func New(opts Options) (*Server, error) {
	if opts.Parser == nil || opts.Translator == nil || opts.Store == nil {
		return nil, errors.New("server: parser, translator and store are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	logger = logger.WithComponent("server")

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = config.DefaultServiceName
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(logger), cors(), otelgin.Middleware(serviceName))

	if opts.Config.ValidateRequests {
		validator, err := NewValidator(OpenAPISpec)
		if err != nil {
			return nil, fmt.Errorf("openapi validation middleware init failed: %w", err)
		}
		engine.Use(validator)
	}

	h := &handlers{
		parser:     opts.Parser,
		translator: opts.Translator,
		store:      opts.Store,
		logger:     logger,
	}
	engine.GET("/", h.index)
	engine.GET("/v1/healthz", h.healthz)
	engine.GET("/parse", h.parse)
	engine.POST("/translate", h.translate)
	engine.POST("/finetune", h.finetune)
	engine.NoRoute(h.notFound)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:         opts.Config.Addr(),
			Handler:      engine,
			ReadTimeout:  opts.Config.ReadTimeout,
			WriteTimeout: opts.Config.WriteTimeout,
		},
		logger:          logger,
		shutdownTimeout: opts.Config.ShutdownTimeout,
	}, nil
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Dur("timeout", timeout).Msg("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
