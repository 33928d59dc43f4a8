package pagesHandler

import (
	pagesService "HelmetGuard/internal/api/pages/service"
	"HelmetGuard/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type PagesHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	pagesService pagesService.IPagesService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ps pagesService.IPagesService,
) *PagesHandler {
	return &PagesHandler{
		log:          log,
		validator:    validator,
		middleware:   middleware,
		pagesService: ps,
	}
}

func (h *PagesHandler) Start(srv fiber.Router) {
	srv.Get("/", h.Home)
	srv.Get("/about", h.About)

	srv.Get("/statistics", h.Statistics)
	srv.Get("/statistics/chart.png", h.middleware.NewRateLimiter, h.Chart)

	api := srv.Group("/api/v1")
	api.Get("/statistics", h.StatisticsJSON)
}
