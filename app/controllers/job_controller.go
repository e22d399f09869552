package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bragfeed/bragfeed/internal/pkg/jobqueue"
)

// HandleGetJobStatus reports the state of one background job. Job IDs are
// random UUIDs handed out by the refresh endpoints; completed jobs are purged
// from Redis, so a missing job after a 202 usually means it finished.
func HandleGetJobStatus(c *fiber.Ctx) error {
	jobID := strings.TrimSpace(c.Params("id"))
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "job id is required"})
	}

	job, err := jobqueue.GetManager().GetQueue().GetJob(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Job not found"})
		}
		log.Printf("job lookup failed for %s: %v", jobID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load job"})
	}

	return c.JSON(fiber.Map{
		"job_id":       job.ID,
		"type":         string(job.Type),
		"status":       string(job.Status),
		"retry_count":  job.RetryCount,
		"error":        job.ErrorMsg,
		"created_at":   job.CreatedAt.UTC().Format(time.RFC3339),
		"processed_at": formatTimePtr(job.ProcessedAt),
		"completed_at": formatTimePtr(job.CompletedAt),
	})
}

// HandleQueueStatus reports queue depth and per-status job counters for the
// background refresh queue.
func HandleQueueStatus(c *fiber.Ctx) error {
	q := jobqueue.GetManager().GetQueue()
	ctx := c.Context()

	pending, err := q.GetQueueSize(ctx)
	if err != nil {
		log.Printf("queue size lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load queue status"})
	}
	processing, err := q.GetProcessingSize(ctx)
	if err != nil {
		log.Printf("processing size lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load queue status"})
	}
	stats, err := q.GetJobStats(ctx)
	if err != nil {
		log.Printf("job stats lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load queue status"})
	}

	return c.JSON(fiber.Map{
		"pending":    pending,
		"processing": processing,
		"job_stats":  stats,
	})
}
