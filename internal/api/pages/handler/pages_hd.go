package pagesHandler

import (
	"HelmetGuard/internal/api/pages"
	"HelmetGuard/internal/views"
	"HelmetGuard/pkg/handlerUtil"
	"HelmetGuard/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *PagesHandler) Home(ctx *fiber.Ctx) error {
	c := h.pagesService.Content()

	return ctx.Render("home", pages.HomePage{
		Page: views.NewPage(c, "/", c.Home.Title, h.middleware.GetRequestID(ctx)),
		Home: c.Home,
	}, views.Layout)
}

func (h *PagesHandler) About(ctx *fiber.Ctx) error {
	c := h.pagesService.Content()

	return ctx.Render("about", pages.AboutPage{
		Page:  views.NewPage(c, "/about", c.About.Title, h.middleware.GetRequestID(ctx)),
		About: c.About,
	}, views.Layout)
}

func (h *PagesHandler) Statistics(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var query pages.StatisticsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	stats, err := h.pagesService.Statistics(query.Range)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "statistics_page")
	}

	c := h.pagesService.Content()
	return ctx.Render("statistics", pages.StatisticsPage{
		Page:       views.NewPage(c, "/statistics", c.Statistics.Title, requestID),
		Statistics: c.Statistics,
		Summary:    stats.Summary,
		Range:      stats.Range,
		Ranges:     h.pagesService.Ranges(),
	}, views.Layout)
}

func (h *PagesHandler) Chart(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var query pages.ChartQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	png, err := h.pagesService.Chart(query.Range, query.Width, query.Height)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "render_chart")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"range":      query.Range,
		"width":      query.Width,
		"height":     query.Height,
		"size":       len(png),
	}).Debug("Rendered statistics chart")

	ctx.Set(fiber.HeaderCacheControl, "public, max-age=300")
	ctx.Type("png")
	return ctx.Send(png)
}

func (h *PagesHandler) StatisticsJSON(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var query pages.StatisticsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	stats, err := h.pagesService.Statistics(query.Range)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "statistics")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, stats)
}
