package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bragfeed/bragfeed/internal/pkg/usercontext"
)

func newSubscriptionTestApp(ctx *usercontext.UserContext) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if ctx != nil {
			c.Locals("USER_CONTEXT", *ctx)
		}
		return c.Next()
	})
	app.Get("/gated", RequireActiveSubscription, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestRequireActiveSubscriptionAllowsSubscriber(t *testing.T) {
	app := newSubscriptionTestApp(&usercontext.UserContext{
		UserID: 1, IsLoggedIn: true, HasActiveSubscription: true,
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireActiveSubscriptionRejectsNonSubscriber(t *testing.T) {
	app := newSubscriptionTestApp(&usercontext.UserContext{
		UserID: 1, IsLoggedIn: true, HasActiveSubscription: false,
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireActiveSubscriptionRejectsAnonymous(t *testing.T) {
	app := newSubscriptionTestApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
