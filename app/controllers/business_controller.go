package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bragfeed/bragfeed/app/models"
	"github.com/bragfeed/bragfeed/internal/pkg/jobqueue"
	"github.com/bragfeed/bragfeed/internal/pkg/metrics/counter"
	"github.com/bragfeed/bragfeed/internal/pkg/places"
	"github.com/bragfeed/bragfeed/internal/pkg/statistics"
	"github.com/bragfeed/bragfeed/internal/pkg/usercontext"
)

type createBusinessRequest struct {
	PlaceID string `json:"place_id"`
}

type updateMinimumScoreRequest struct {
	MinimumScore *int `json:"minimum_score"`
}

// HandleCreateBusiness connects a Google Business Profile to the caller's
// account. The profile is fetched synchronously so the caller immediately
// sees the resolved name; the initial review import runs in the background.
func HandleCreateBusiness(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createBusinessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Invalid request body"})
	}
	req.PlaceID = strings.TrimSpace(req.PlaceID)
	if req.PlaceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "place_id is required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	details, err := places.NewClientFromEnv().GetBusinessDetails(ctx, req.PlaceID)
	if err != nil {
		log.Printf("business details fetch failed for place %s: %v", req.PlaceID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_error", "message": "Could not fetch business details"})
	}

	business := &models.Business{
		UserID:  userCtx.UserID,
		Name:    details.Name,
		PlaceID: req.PlaceID,
		Address: details.Address,
	}
	if err := getRepositories().Business.Create(business); err != nil {
		log.Printf("failed to create business for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create business"})
	}

	if err := getRepositories().Business.CreateStatsSnapshot(&models.BusinessStats{
		BusinessID:  business.ID,
		ReviewCount: details.ReviewCount,
		ReviewScore: details.Rating,
	}); err != nil {
		log.Printf("failed to record initial stats for business %d: %v", business.ID, err)
	}

	enqueueRefresh(business)

	return c.Status(fiber.StatusCreated).JSON(business)
}

// HandleGetBusiness returns one business with its latest stats snapshot.
func HandleGetBusiness(c *fiber.Ctx) error {
	business, err := ownedBusinessFromParam(c)
	if business == nil {
		return err
	}

	resp := fiber.Map{"business": business}
	if stats, err := getRepositories().Business.LatestStats(business.ID); err == nil && stats != nil {
		resp["stats"] = fiber.Map{
			"review_count": stats.ReviewCount,
			"review_score": stats.ReviewScore,
			"recorded_at":  stats.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	// Provider stats above reflect the profile; these reflect what we have
	// actually imported so far.
	if stored, err := getRepositories().Business.CountReviews(business.ID); err == nil {
		resp["stored_review_count"] = stored
	}
	if latest, err := getRepositories().Business.LatestReviewTime(business.ID); err == nil {
		resp["last_imported_at"] = formatTimePtr(latest)
	}
	return c.JSON(resp)
}

// HandleFetchReviews serves the stored reviews for a business, filtered by
// the business's minimum score. Admission control runs in the route chain
// before this handler.
func HandleFetchReviews(c *fiber.Ctx) error {
	business, err := ownedBusinessFromParam(c)
	if business == nil {
		return err
	}

	reviews, err := getRepositories().Business.ListReviews(business.ID, business.MinimumScore)
	if err != nil {
		log.Printf("failed to list reviews for business %d: %v", business.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load reviews"})
	}

	userCtx := usercontext.GetUserContext(c)
	if err := getRepositories().Usage.Record(userCtx.UserID, models.EventAPIResponse, business.ID); err != nil {
		log.Printf("failed to record usage event for user %d: %v", userCtx.UserID, err)
	}
	if err := counter.AddAPICall(business.ID); err != nil {
		log.Printf("failed to count api call for business %d: %v", business.ID, err)
	}
	statistics.InvalidateAPIStats(userCtx.UserID)

	resp := fiber.Map{
		"business": fiber.Map{
			"uuid":    business.UUID,
			"name":    business.Name,
			"address": business.Address,
		},
		"reviews": reviews,
	}
	if stats, err := getRepositories().Business.LatestStats(business.ID); err == nil && stats != nil {
		resp["review_count"] = stats.ReviewCount
		resp["review_score"] = stats.ReviewScore
	}
	return c.JSON(resp)
}

// HandleUpdateReviews schedules a fresh pull from the review provider for
// one business. Admission control runs in the route chain before this
// handler.
func HandleUpdateReviews(c *fiber.Ctx) error {
	business, err := ownedBusinessFromParam(c)
	if business == nil {
		return err
	}

	payload := jobqueue.RefreshReviewsJobPayload{
		BusinessID:   business.ID,
		BusinessUUID: business.UUID,
		PlaceID:      business.PlaceID,
	}
	job, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeRefreshReviews, payload.ToMap())
	if err != nil {
		log.Printf("failed to enqueue review refresh for business %d: %v", business.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to schedule refresh"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// HandleRefreshBusinessDetails schedules a profile refresh from the provider.
func HandleRefreshBusinessDetails(c *fiber.Ctx) error {
	business, err := ownedBusinessFromParam(c)
	if business == nil {
		return err
	}

	payload := jobqueue.RefreshDetailsJobPayload{
		BusinessID:   business.ID,
		BusinessUUID: business.UUID,
		PlaceID:      business.PlaceID,
	}
	job, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeRefreshDetails, payload.ToMap())
	if err != nil {
		log.Printf("failed to enqueue detail refresh for business %d: %v", business.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to schedule refresh"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// HandleUpdateMinimumScore changes the review score filter for a business.
func HandleUpdateMinimumScore(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateMinimumScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Invalid request body"})
	}
	if req.MinimumScore == nil || *req.MinimumScore < 0 || *req.MinimumScore > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "minimum_score must be between 0 and 5"})
	}

	business, err := ownedBusinessFromParam(c)
	if business == nil {
		return err
	}

	updated, err := getRepositories().Business.UpdateMinimumScore(business.ID, userCtx.UserID, *req.MinimumScore)
	if err != nil {
		log.Printf("failed to update minimum score for business %d: %v", business.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update minimum score"})
	}
	if !updated {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Business not found"})
	}

	return c.JSON(fiber.Map{"ok": true, "minimum_score": *req.MinimumScore})
}

// HandleDeleteBusiness disconnects a business from the caller's account.
func HandleDeleteBusiness(c *fiber.Ctx) error {
	business, err := ownedBusinessFromParam(c)
	if business == nil {
		return err
	}

	if err := getRepositories().Business.Delete(business.ID); err != nil {
		log.Printf("failed to delete business %d: %v", business.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete business"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ownedBusinessFromParam resolves the :uuid route parameter to a business
// owned by the caller. Foreign and unknown UUIDs are both reported as 404 so
// existence is not leaked across accounts.
func ownedBusinessFromParam(c *fiber.Ctx) (*models.Business, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	uuid := strings.TrimSpace(c.Params("uuid"))
	if uuid == "" {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "business uuid is required"})
	}

	business, err := getRepositories().Business.GetOwned(uuid, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Business not found"})
		}
		log.Printf("business lookup failed for uuid %s: %v", uuid, err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load business"})
	}
	return business, nil
}

func enqueueRefresh(business *models.Business) {
	payload := jobqueue.RefreshReviewsJobPayload{
		BusinessID:   business.ID,
		BusinessUUID: business.UUID,
		PlaceID:      business.PlaceID,
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeRefreshReviews, payload.ToMap()); err != nil {
		log.Printf("failed to enqueue initial refresh for business %d: %v", business.ID, err)
	}
}
