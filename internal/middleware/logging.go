package middleware

import (
	"strings"
	"time"

	"HelmetGuard/pkg/handlerUtil"
	"HelmetGuard/pkg/log"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type loggingMiddleware struct {
	logger *logrus.Logger
}

func newLoggingMiddleware(logger *logrus.Logger) *loggingMiddleware {
	return &loggingMiddleware{
		logger: logger,
	}
}

func (m *loggingMiddleware) handle(c *fiber.Ctx) error {
	start := time.Now()

	requestID, ok := c.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		requestID = "unknown"
	}

	err := c.Next()

	latency := time.Since(start)
	status := c.Response().StatusCode()
	if err != nil {
		// The app error handler has not written the response yet.
		status, _ = handlerUtil.New(m.logger).Resolve(err)
	}

	logFields := log.Fields{
		"request_id":    requestID,
		"method":        c.Method(),
		"path":          c.Path(),
		"status":        status,
		"latency_ms":    latency.Milliseconds(),
		"ip":            c.IP(),
		"user_agent":    c.Get("User-Agent"),
		"response_size": len(c.Response().Body()),
	}

	if sessionID, ok := c.Locals(SessionIDKey).(string); ok && sessionID != "" {
		logFields["session_id"] = sessionID
	}

	if body := c.Request().Body(); len(body) > 0 {
		logFields["request_body"] = summarizeRequestBody(string(c.Request().Header.ContentType()), body)
	}

	entry := m.logger.WithFields(logFields)
	if err != nil {
		entry = entry.WithField("error", err.Error())
	}
	switch {
	case status >= 500:
		entry.Error("Server error")
	case status >= 400:
		entry.Warn("Client error")
	default:
		entry.Info("Success")
	}

	return err
}

// summarizeRequestBody never logs uploaded media; small JSON bodies are kept.
func summarizeRequestBody(contentType string, body []byte) string {
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		return "[multipart upload]"
	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		if len(body) > 2048 {
			return "[large JSON body]"
		}
		if !jsoniter.Valid(body) {
			return "[invalid JSON body]"
		}
		return string(body)
	default:
		return "[non-JSON body]"
	}
}
