package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/bragfeed/bragfeed/app/models"
)

// processRefreshReviewsJob fetches the current reviews for a business from the
// external source, upserts them and records a fresh stats snapshot.
func (q *Queue) processRefreshReviewsJob(ctx context.Context, job *Job) error {
	payload, err := RefreshReviewsJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid refresh_reviews payload: %w", err)
	}

	business, err := q.repos.Business.GetByID(payload.BusinessID)
	if err != nil {
		return fmt.Errorf("business %d not found: %w", payload.BusinessID, err)
	}

	placeID := payload.PlaceID
	if placeID == "" {
		placeID = business.PlaceID
	}

	records, err := q.source.GetReviews(ctx, placeID)
	if err != nil {
		return fmt.Errorf("fetching reviews for business %d: %w", business.ID, err)
	}

	reviews := make([]models.Review, 0, len(records))
	for _, r := range records {
		review := models.Review{
			BusinessID:  business.ID,
			AuthorName:  r.AuthorName,
			AuthorImage: r.AuthorImage,
			Link:        r.Link,
			Rating:      r.Rating,
			Comments:    r.Text,
		}
		if r.Time > 0 {
			t := time.Unix(r.Time, 0).UTC()
			review.Datetime = &t
		}
		reviews = append(reviews, review)
	}

	if len(reviews) > 0 {
		if err := q.repos.Business.UpsertReviews(business.ID, reviews); err != nil {
			return fmt.Errorf("storing reviews for business %d: %w", business.ID, err)
		}
	}

	if err := q.snapshotStats(ctx, business, placeID); err != nil {
		return err
	}

	log.Infof("[JobQueue] Refreshed %d reviews for business %s", len(reviews), business.UUID)
	return nil
}

// processRefreshDetailsJob updates the stored business profile from the
// external source and records a fresh stats snapshot.
func (q *Queue) processRefreshDetailsJob(ctx context.Context, job *Job) error {
	payload, err := RefreshDetailsJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid refresh_details payload: %w", err)
	}

	business, err := q.repos.Business.GetByID(payload.BusinessID)
	if err != nil {
		return fmt.Errorf("business %d not found: %w", payload.BusinessID, err)
	}

	placeID := payload.PlaceID
	if placeID == "" {
		placeID = business.PlaceID
	}

	details, err := q.source.GetBusinessDetails(ctx, placeID)
	if err != nil {
		return fmt.Errorf("fetching details for business %d: %w", business.ID, err)
	}

	business.Name = details.Name
	business.Address = details.Address
	if err := q.repos.Business.Update(business); err != nil {
		return fmt.Errorf("updating business %d: %w", business.ID, err)
	}

	if err := q.repos.Business.CreateStatsSnapshot(&models.BusinessStats{
		BusinessID:  business.ID,
		ReviewCount: details.ReviewCount,
		ReviewScore: details.Rating,
	}); err != nil {
		return fmt.Errorf("recording stats for business %d: %w", business.ID, err)
	}

	log.Infof("[JobQueue] Refreshed details for business %s", business.UUID)
	return nil
}

// snapshotStats pulls the aggregate figures from the source and appends a
// stats row. Failures here fail the job so the retry path picks it up.
func (q *Queue) snapshotStats(ctx context.Context, business *models.Business, placeID string) error {
	details, err := q.source.GetBusinessDetails(ctx, placeID)
	if err != nil {
		return fmt.Errorf("fetching details for business %d: %w", business.ID, err)
	}

	if err := q.repos.Business.CreateStatsSnapshot(&models.BusinessStats{
		BusinessID:  business.ID,
		ReviewCount: details.ReviewCount,
		ReviewScore: details.Rating,
	}); err != nil {
		return fmt.Errorf("recording stats for business %d: %w", business.ID, err)
	}
	return nil
}
