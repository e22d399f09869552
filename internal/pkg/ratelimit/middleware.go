package ratelimit

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bragfeed/bragfeed/internal/pkg/usercontext"
)

// Middleware returns a fiber handler enforcing the given limits for the
// authenticated user. Limits are evaluated in order and short-circuit on the
// first rejection, so a route can chain a daily cap with a short burst cap.
//
// Panics at install time on a malformed config so a misconfigured route
// fails at boot instead of permanently rejecting callers.
func Middleware(limiter *Limiter, configs ...Config) fiber.Handler {
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			panic(err)
		}
	}
	return func(c *fiber.Ctx) error {
		userID := usercontext.GetUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Authentication required",
			})
		}

		for _, cfg := range configs {
			decision := limiter.Admit(userID, cfg)
			if !decision.Allowed() {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":      "Rate limit exceeded",
					"message":    RejectionMessage(cfg),
					"retryAfter": decision.RetryAfterSeconds(),
				})
			}
		}

		return c.Next()
	}
}
