package ratelimit

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bragfeed/bragfeed/internal/pkg/usercontext"
)

func newTestApp(limiter *Limiter, configs ...Config) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{UserID: 42, IsLoggedIn: true})
		return c.Next()
	})
	app.Post("/limited", Middleware(limiter, configs...), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	limiter := NewLimiter(&memStore{})
	cfg := Config{EventType: "fetch_reviews", MaxRequests: 1, Window: time.Minute}
	app := newTestApp(limiter, cfg)

	resp, err := app.Test(httptest.NewRequest("POST", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "Rate limit exceeded", payload.Error)
	assert.Equal(t, 60, payload.RetryAfter)
	assert.Contains(t, payload.Message, "fetch_reviews")
}

func TestMiddlewareShortCircuitsOnFirstRejection(t *testing.T) {
	store := &memStore{}
	limiter := NewLimiter(store)
	daily := Config{EventType: "fetch_reviews", MaxRequests: 1, Window: 24 * time.Hour}
	burst := Config{EventType: "update_reviews", MaxRequests: 5, Window: 15 * time.Minute}
	// Exhaust the daily limit before the request arrives.
	store.events = append(store.events, memEvent{userID: 42, eventType: "fetch_reviews", ts: time.Now()})
	app := newTestApp(limiter, daily, burst)

	resp, err := app.Test(httptest.NewRequest("POST", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	// The second limit must not have been evaluated or recorded.
	for _, e := range store.events {
		assert.NotEqual(t, "update_reviews", e.eventType)
	}
}

func TestMiddlewarePanicsOnMisconfiguredLimit(t *testing.T) {
	limiter := NewLimiter(&memStore{})

	assert.Panics(t, func() {
		Middleware(limiter, Config{EventType: "fetch_reviews", MaxRequests: 0, Window: time.Minute})
	})
	assert.Panics(t, func() {
		Middleware(limiter, Config{EventType: "fetch_reviews", MaxRequests: 1})
	})
	assert.Panics(t, func() {
		Middleware(limiter, Config{MaxRequests: 1, Window: time.Minute})
	})
}

func TestMiddlewareRequiresUser(t *testing.T) {
	limiter := NewLimiter(&memStore{})
	app := fiber.New()
	app.Post("/limited", Middleware(limiter, Config{EventType: "fetch_reviews", MaxRequests: 1, Window: time.Minute}), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
