package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/bragfeed/bragfeed/internal/api/v1"
	"github.com/bragfeed/bragfeed/internal/pkg/database"
	"github.com/bragfeed/bragfeed/internal/pkg/middleware"
	"github.com/bragfeed/bragfeed/internal/pkg/ratelimit"
)

// Per-user admission limits for the review endpoints. These are durable
// sliding windows counted in the database, independent of the IP-level
// fiber limiter on the group.
var (
	fetchReviewsLimit = ratelimit.Config{
		EventType:   "fetch_reviews",
		MaxRequests: 100,
		Window:      24 * time.Hour,
	}
	updateReviewsLimit = ratelimit.Config{
		EventType:   "update_reviews",
		MaxRequests: 1,
		Window:      15 * time.Minute,
	}
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes; authenticated by user API key.
	v1 := api.Group("/v1")
	v1.Use(middleware.APIKeyAuthMiddleware())

	rateLimiter := ratelimit.NewLimiter(ratelimit.NewStore(database.GetDB()))
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer, rateLimiter, fetchReviewsLimit, updateReviewsLimit)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
