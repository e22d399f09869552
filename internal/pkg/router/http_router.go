package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bragfeed/bragfeed/app/controllers"
	"github.com/bragfeed/bragfeed/internal/pkg/middleware"
	"github.com/bragfeed/bragfeed/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Stripe calls this directly; signature verification replaces session auth.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	auth := app.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/logout", controllers.HandleLogout)

	// Dashboard routes require a logged-in web session.
	dashboard := app.Group("/dashboard", middleware.RequireAPISessionAuth)
	dashboard.Get("/account", controllers.HandleGetUserAccount)
	dashboard.Get("/api-stats", controllers.HandleAPIStats)
	dashboard.Get("/billing", controllers.HandleGetBillingStatus)
	dashboard.Post("/api-key", controllers.HandleIssueAPIKey)
	dashboard.Delete("/api-key", controllers.HandleRevokeAPIKey)

	dashboard.Get("/businesses", controllers.HandleListBusinesses)
	dashboard.Post("/businesses", controllers.HandleCreateBusiness)
	dashboard.Get("/businesses/:uuid", controllers.HandleGetBusiness)
	dashboard.Delete("/businesses/:uuid", controllers.HandleDeleteBusiness)
	dashboard.Patch("/businesses/:uuid/minimum-score", controllers.HandleUpdateMinimumScore)
	dashboard.Post("/businesses/:uuid/refresh-details", controllers.HandleRefreshBusinessDetails)

	dashboard.Get("/jobs/:id", controllers.HandleGetJobStatus)
	dashboard.Get("/queue", controllers.HandleQueueStatus)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
