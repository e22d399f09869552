package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/bragfeed/bragfeed/internal/pkg/statistics"
	"github.com/bragfeed/bragfeed/internal/pkg/usercontext"
)

// HandleAPIStats returns the caller's API usage statistics for the dashboard.
func HandleAPIStats(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	stats, err := statistics.GetAPIStats(getRepositories(), userCtx.UserID)
	if err != nil {
		log.Printf("failed to compute api stats for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load statistics"})
	}

	return c.JSON(stats)
}

// HandleListBusinesses returns all businesses for the caller with usage
// counts and latest stats.
func HandleListBusinesses(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	overviews, err := statistics.GetBusinessOverviews(getRepositories(), userCtx.UserID)
	if err != nil {
		log.Printf("failed to load businesses for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load businesses"})
	}

	return c.JSON(fiber.Map{"businesses": overviews})
}
