package handlerUtil

import (
	"context"
	"errors"
	"net/http"

	"HelmetGuard/pkg/detector"
	"HelmetGuard/pkg/log"
	"HelmetGuard/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Resolve maps an error to the status code and the text shown to the user.
// Backend failures keep the backend's own body text.
func (h *ErrorHandler) Resolve(err error) (int, string) {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return respErr.Code, respErr.Error()
	}

	var backendErr *detector.BackendError
	if errors.As(err, &backendErr) {
		status := backendErr.StatusCode
		if status < 400 || status >= 500 {
			status = fiber.StatusBadGateway
		}
		return status, backendErr.Error()
	}

	if errors.Is(err, detector.ErrInvalidResultPath) {
		return fiber.StatusBadRequest, err.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout, "detection backend timed out"
	}

	if errors.Is(err, detector.ErrUnreachable) {
		return fiber.StatusBadGateway, detector.ErrUnreachable.Error()
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	return fiber.StatusInternalServerError, "An unexpected error occurred"
}

// Log writes err with request context and returns the trace id for 5xx errors.
func (h *ErrorHandler) Log(requestID string, status int, err error, path string, operation string) string {
	fields := log.Fields{
		log.RequestIDKey: requestID,
		"error":      err.Error(),
		"code":       status,
		"path":       path,
		"operation":  operation,
	}

	if status >= 500 && status != fiber.StatusBadGateway && status != fiber.StatusGatewayTimeout {
		return log.ErrorWithTraceID(h.logger, fields, "Unexpected error")
	}

	h.logger.WithFields(fields).Warn("Operation failed with error response")
	return ""
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	status, message := h.Resolve(err)
	traceID := h.Log(requestID, status, err, path, operation)

	return c.Status(status).JSON(ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(ErrorResponse{
		Error: utils.StatusMessage(fiber.StatusRequestTimeout),
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}

// HandleFiberError is installed as the app-wide fiber ErrorHandler.
func (h *ErrorHandler) HandleFiberError(c *fiber.Ctx, err error) error {
	status, message := h.Resolve(err)
	if status == http.StatusInternalServerError {
		h.Log(requestIDFrom(c), status, err, c.Path(), "unhandled")
	}
	return c.Status(status).JSON(ErrorResponse{Error: message})
}

func requestIDFrom(c *fiber.Ctx) string {
	if id, ok := c.Locals("X-Request-ID").(string); ok && id != "" {
		return id
	}
	return "unknown"
}
