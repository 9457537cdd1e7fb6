package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/solatis/fieldkeeper/internal/core/auth"
)

// APIKeyMiddleware authenticates X-Api-Key and stores the key ID in the
// request's user context.
func APIKeyMiddleware(authenticator *auth.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(auth.HeaderName)
		if key == "" {
			return UnauthorizedError(auth.ErrMissingKey.Error())
		}
		keyID, err := authenticator.Authenticate(c.UserContext(), key)
		if err != nil {
			return authError(err)
		}
		c.SetUserContext(auth.WithAPIKeyID(c.UserContext(), keyID))
		return c.Next()
	}
}

// timeoutMiddleware bounds the user context of every request. Zero
// disables it.
func timeoutMiddleware(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func (h *Handler) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	h.logger.DebugContext(c.UserContext(), "http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start))
	return err
}
