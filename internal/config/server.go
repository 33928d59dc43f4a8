package config

import (
	"context"
	"fmt"
	"time"

	demoHandler "HelmetGuard/internal/api/demo/handler"
	demoService "HelmetGuard/internal/api/demo/service"
	pagesHandler "HelmetGuard/internal/api/pages/handler"
	pagesService "HelmetGuard/internal/api/pages/service"
	"HelmetGuard/internal/middleware"
	"HelmetGuard/internal/views"
	"HelmetGuard/pkg/content"
	"HelmetGuard/pkg/detector"
	"HelmetGuard/pkg/metrics"
	"HelmetGuard/pkg/redis"
	"HelmetGuard/pkg/utils"
	websocketPkg "HelmetGuard/pkg/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	cfg         *AppConfig
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	content     *content.Content
	detector    detector.IDetector
	resultStore redis.IResultStore
	metrics     *metrics.Metrics
	demo        demoService.IDemoService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.cfg == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithConfig(cfg *AppConfig) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		secure := s.cfg != nil && s.cfg.IsProduction()
		s.middleware = middleware.New(s.log, middleware.Config{SecureCookie: secure})
		return nil
	}
}

func WithContent(path string) ServerOption {
	return func(s *Server) error {
		c, err := content.Load(path)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to load site content: %v", err)
			}
			return fmt.Errorf("failed to load content: %w", err)
		}
		s.content = c
		return nil
	}
}

func WithDetector(d detector.IDetector) ServerOption {
	return func(s *Server) error {
		s.detector = d
		return nil
	}
}

func WithResultStore(store redis.IResultStore) ServerOption {
	return func(s *Server) error {
		s.resultStore = store
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		if s.cfg != nil {
			s.utils = utils.NewWithLimits(s.cfg.MaxImageSize, s.cfg.MaxVideoSize)
			return nil
		}
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	if s.content == nil {
		s.content = content.MustDefault()
	}
	if s.resultStore == nil {
		s.resultStore = redis.NewMemoryStore(s.cfg.ResultTTL)
	}
	if s.detector == nil {
		s.detector = detector.New(detector.Config{
			BaseURL: s.cfg.BackendAPIURL,
			Timeout: s.cfg.BackendTimeout,
		}, s.log)
	}

	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewSessionMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.engine.Use("/static", filesystem.New(filesystem.Config{
		Root:   views.Static(),
		MaxAge: 3600,
	}))

	// Pages
	pagesServices := pagesService.New(s.log, s.content, s.metrics)
	pagesHandlers := pagesHandler.New(s.log, s.validator, s.middleware, pagesServices)

	// Demo
	s.demo = demoService.New(s.log, s.detector, s.resultStore, s.metrics, demoService.StreamConfig{
		BaseURL:   s.cfg.BackendWSURL,
		Endpoints: websocketPkg.DefaultEndpoints(),
		MaxFPS:    s.cfg.StreamMaxFPS,
	})
	demoHandlers := demoHandler.New(s.log, s.validator, s.middleware, s.demo, s.utils, s.content)

	s.setupHealthCheck()
	s.setupMetrics()
	s.handlers = append(s.handlers, pagesHandlers, demoHandlers)
}

func (s *Server) Run() error {
	s.mount()

	if err := s.engine.Listen(fmt.Sprintf(":%s", s.cfg.Port)); err != nil {
		return err
	}

	return nil
}

func (s *Server) mount() {
	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

// Shutdown closes live relay sessions before draining HTTP connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.demo != nil {
		s.demo.CloseStreams()
	}

	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		return err
	}

	if s.resultStore != nil {
		if err := s.resultStore.Close(); err != nil {
			s.log.Warnf("Failed to close result store: %v", err)
		}
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func (s *Server) setupMetrics() {
	if s.metrics == nil {
		return
	}
	s.engine.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
}
