package demoHandler

import (
	"HelmetGuard/internal/api/demo"
	demoService "HelmetGuard/internal/api/demo/service"
	"HelmetGuard/internal/middleware"
	"HelmetGuard/pkg/content"
	"HelmetGuard/pkg/handlerUtil"
	"HelmetGuard/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type DemoHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	demoService demoService.IDemoService
	utils       utils.IUtils
	content     *content.Content
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ds demoService.IDemoService,
	utils utils.IUtils,
	content *content.Content,
) *DemoHandler {
	return &DemoHandler{
		demoService: ds,
		log:         log,
		validator:   validator,
		middleware:  middleware,
		utils:       utils,
		content:     content,
	}
}

func (h *DemoHandler) Start(srv fiber.Router) {
	srv.Get("/demo", h.Page)
	srv.Post("/demo/detect", h.middleware.NewRateLimiter, h.DetectForm)

	srv.Get("/demo/ws/:endpoint", h.streamUpgrade, websocket.New(h.handleRelay))

	api := srv.Group("/api/v1")
	api.Post("/detect", h.middleware.NewRateLimiter, h.Detect)
	api.Post("/process-video", h.middleware.NewRateLimiter, h.ProcessVideo)
	api.Get("/result/*", h.Result)
}

// streamUpgrade admits websocket upgrades for known relay endpoints only.
func (h *DemoHandler) streamUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	errHandler := handlerUtil.New(h.log)
	requestID := h.middleware.GetRequestID(c)

	var params demo.StreamParams
	if err := c.ParamsParser(&params); err != nil {
		return errHandler.HandleValidationError(c, requestID, err, c.Path())
	}
	if err := h.validator.Struct(params); err != nil {
		return errHandler.HandleValidationError(c, requestID, err, c.Path())
	}

	if _, ok := h.demoService.Endpoint(params.Endpoint); !ok {
		return errHandler.Handle(c, requestID, demo.ErrUnknownEndpoint, c.Path(), "stream_upgrade")
	}

	return c.Next()
}
