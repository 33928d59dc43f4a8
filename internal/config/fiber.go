package config

import (
	"HelmetGuard/internal/views"
	"HelmetGuard/pkg/handlerUtil"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger, cfg *AppConfig) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               "HelmetGuard",
			BodyLimit:             int(cfg.MaxVideoSize) + 1024*1024,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			EnablePrintRoutes:     !cfg.IsProduction() && cfg.Env != "test",
			DisableStartupMessage: cfg.Env == "test",
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			Views:                 views.NewEngine(),
			ErrorHandler:          handlerUtil.New(logger).HandleFiberError,
		})

	return app
}
