package demoHandler

import (
	"context"
	"io"
	"time"

	"HelmetGuard/internal/api/demo"
	"HelmetGuard/internal/entity"
	"HelmetGuard/internal/views"
	contextPkg "HelmetGuard/pkg/context"
	"HelmetGuard/pkg/handlerUtil"
	"HelmetGuard/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *DemoHandler) Page(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var query demo.PageQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	return h.renderPage(ctx, fiber.StatusOK, query.Tab, nil, "")
}

// DetectForm is the form post behind the image tab. Errors are shown as a
// banner above the previously stored result.
func (h *DemoHandler) DetectForm(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	result, err := h.detect(c, ctx)
	if err != nil {
		status, message := errHandler.Resolve(err)
		errHandler.Log(requestID, status, err, ctx.Path(), "detect_form")
		return h.renderPage(ctx, status, demo.TabImage, nil, message)
	}

	return h.renderPage(ctx, fiber.StatusOK, demo.TabImage, result, "")
}

func (h *DemoHandler) Detect(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	result, err := h.detect(c, ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, demo.DetectResponse{
			Result:  result,
			Summary: demo.NewSummary(result, h.content.Demo.WarningPrefix, h.content.Demo.SafePrefix),
		})
	}
}

func (h *DemoHandler) detect(c context.Context, ctx *fiber.Ctx) (*entity.DetectionResult, error) {
	file, err := ctx.FormFile("file")
	if err != nil {
		file = nil
	}

	if err := h.utils.ValidateImageFile(file); err != nil {
		return nil, err
	}

	h.log.WithFields(log.Fields{
		"request_id": h.middleware.GetRequestID(ctx),
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing image upload")

	return h.demoService.Detect(c, h.middleware.GetSessionID(ctx), file)
}

func (h *DemoHandler) ProcessVideo(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Minute)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	file, err := ctx.FormFile("file")
	if err != nil {
		file = nil
	}
	if err := h.utils.ValidateVideoFile(file); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_video_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing video upload")

	status, err := h.demoService.ProcessVideo(c, h.middleware.GetSessionID(ctx), file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_video")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, status)
}

// Result streams a processed video from the backend. The backend request
// lives until the body has been sent.
func (h *DemoHandler) Result(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithCancel(contextPkg.FromFiberCtx(ctx))

	errHandler := handlerUtil.New(h.log)

	file, err := h.demoService.FetchResult(c, ctx.Params("*"))
	if err != nil {
		cancel()
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "fetch_result")
	}

	if file.ContentType != "" {
		ctx.Set(fiber.HeaderContentType, file.ContentType)
	}

	size := -1
	if file.ContentLength >= 0 {
		size = int(file.ContentLength)
	}
	return ctx.SendStream(&cancelOnClose{ReadCloser: file.Body, cancel: cancel}, size)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func (h *DemoHandler) renderPage(ctx *fiber.Ctx, status int, tab string, result *entity.DetectionResult, errMessage string) error {
	if tab == "" {
		tab = demo.TabImage
	}

	if result == nil && tab == demo.TabImage {
		latest, err := h.demoService.Latest(contextPkg.FromFiberCtx(ctx), h.middleware.GetSessionID(ctx))
		if err != nil {
			h.log.WithFields(log.Fields{
				"request_id": h.middleware.GetRequestID(ctx),
				"error":      err.Error(),
			}).Warn("Failed to load latest detection result")
		}
		result = latest
	}

	page := demo.DemoPage{
		Page:    views.NewPage(h.content, "/demo", h.content.Demo.Title, h.middleware.GetRequestID(ctx)),
		Demo:    h.content.Demo,
		Tabs:    demo.Tabs(),
		Tab:     tab,
		Error:   errMessage,
		Result:  result,
		Summary: demo.NewSummary(result, h.content.Demo.WarningPrefix, h.content.Demo.SafePrefix),
		Stream:  h.streamView(tab),
	}

	return ctx.Status(status).Render("demo", page, views.Layout)
}

func (h *DemoHandler) streamView(tab string) *demo.StreamView {
	var name string
	switch tab {
	case demo.TabWebcam:
		name = "detect"
	case demo.TabStream:
		name = "stream"
	default:
		return nil
	}

	ep, ok := h.demoService.Endpoint(name)
	if !ok {
		return nil
	}
	return &demo.StreamView{
		Socket: "/demo/ws/" + ep.Name,
		Push:   ep.PushFrames,
	}
}
