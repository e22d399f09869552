package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType(t *testing.T) {
	assert.Equal(t, "refresh_reviews", string(JobTypeRefreshReviews))
	assert.Equal(t, "refresh_details", string(JobTypeRefreshDetails))
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		job       *Job
		retryable bool
	}{
		{
			name: "Failed job with retries remaining",
			job: &Job{
				Status:     JobStatusFailed,
				RetryCount: 1,
				MaxRetries: 3,
			},
			retryable: true,
		},
		{
			name: "Failed job with no retries remaining",
			job: &Job{
				Status:     JobStatusFailed,
				RetryCount: 3,
				MaxRetries: 3,
			},
			retryable: false,
		},
		{
			name: "Completed job",
			job: &Job{
				Status:     JobStatusCompleted,
				RetryCount: 1,
				MaxRetries: 3,
			},
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
		})
	}
}

func TestJob_StatusTransitions(t *testing.T) {
	job := &Job{Status: JobStatusPending}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("provider unavailable")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "provider unavailable", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)
}

func TestRefreshReviewsJobPayloadRoundTrip(t *testing.T) {
	original := RefreshReviewsJobPayload{
		BusinessID:   42,
		BusinessUUID: "9f2c7f4e-58a1-4a3b-9a57-3a2da7c3d111",
		PlaceID:      "ChIJN1t_tDeuEmsRUsoyG83frY4",
	}

	result, err := RefreshReviewsJobPayloadFromMap(original.ToMap())
	require.NoError(t, err)
	assert.Equal(t, &original, result)
}

func TestRefreshReviewsJobPayloadFromMap_JSONNumbers(t *testing.T) {
	// Payloads read back from Redis carry JSON numbers as float64
	data := map[string]interface{}{
		"business_id":   float64(7),
		"business_uuid": "uuid-7",
		"place_id":      "place-7",
	}

	payload, err := RefreshReviewsJobPayloadFromMap(data)
	require.NoError(t, err)
	assert.Equal(t, uint(7), payload.BusinessID)
	assert.Equal(t, "uuid-7", payload.BusinessUUID)
	assert.Equal(t, "place-7", payload.PlaceID)
}
