package middleware

import (
	"time"

	contextPkg "HelmetGuard/pkg/context"
	"HelmetGuard/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const (
	SessionCookie = "hg_session"
	SessionIDKey  = contextPkg.SessionIDKey

	sessionMaxAge = 24 * time.Hour
)

// NewSessionMiddleware gives every browser a ULID session id in a cookie.
// The id scopes the latest detection result, the upload guard and stream tabs.
func NewSessionMiddleware(secure bool) fiber.Handler {
	utilsInstance := utils.New()

	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookie)

		if _, err := ulid.ParseStrict(sessionID); err != nil {
			sessionID, _ = utilsInstance.NewULIDFromTimestamp(time.Now())

			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(sessionMaxAge.Seconds()),
				Secure:   secure,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		c.Locals(SessionIDKey, sessionID)

		return c.Next()
	}
}
