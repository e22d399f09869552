package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/bragfeed/bragfeed/app/controllers"
	"github.com/bragfeed/bragfeed/internal/pkg/middleware"
	"github.com/bragfeed/bragfeed/internal/pkg/ratelimit"
)

// APIServer implements the public v1 API surface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ping": "pong",
	})
}

// GetUserProfile returns account information for the authenticated user (API key).
// Security is enforced via API key middleware attached in the router.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// GetBusiness returns one business with its latest stats snapshot.
func (s *APIServer) GetBusiness(c *fiber.Ctx) error {
	return controllers.HandleGetBusiness(c)
}

// GetBusinessReviews serves the stored reviews for a business. The per-user
// daily admission limit is enforced by the route chain.
func (s *APIServer) GetBusinessReviews(c *fiber.Ctx) error {
	return controllers.HandleFetchReviews(c)
}

// PostBusinessRefresh schedules a fresh review pull for a business. The
// per-user refresh admission limit is enforced by the route chain.
func (s *APIServer) PostBusinessRefresh(c *fiber.Ctx) error {
	return controllers.HandleUpdateReviews(c)
}

// GetJobStatus reports the state of a background job scheduled through the
// refresh endpoint.
func (s *APIServer) GetJobStatus(c *fiber.Ctx) error {
	return controllers.HandleGetJobStatus(c)
}

// RegisterHandlers wires the v1 routes onto the given router group. Ping and
// profile only need a valid API key; the business data routes additionally
// require an active subscription.
func RegisterHandlers(r fiber.Router, s *APIServer, limiter *ratelimit.Limiter, fetchLimit, updateLimit ratelimit.Config) {
	r.Get("/ping", s.GetPing)
	r.Get("/user/profile", s.GetUserProfile)

	businesses := r.Group("/businesses", middleware.RequireActiveSubscription)
	businesses.Get("/:uuid", s.GetBusiness)
	businesses.Get("/:uuid/reviews", ratelimit.Middleware(limiter, fetchLimit), s.GetBusinessReviews)
	businesses.Post("/:uuid/refresh", ratelimit.Middleware(limiter, updateLimit), s.PostBusinessRefresh)

	r.Get("/jobs/:id", middleware.RequireActiveSubscription, s.GetJobStatus)
}
