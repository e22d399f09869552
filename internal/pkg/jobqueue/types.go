package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeRefreshReviews JobType = "refresh_reviews"
	JobTypeRefreshDetails JobType = "refresh_details"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// RefreshReviewsJobPayload contains the payload for review refresh jobs
type RefreshReviewsJobPayload struct {
	BusinessID   uint   `json:"business_id"`
	BusinessUUID string `json:"business_uuid"`
	PlaceID      string `json:"place_id"`
}

// ToMap converts the payload to a map for storage
func (p RefreshReviewsJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"business_id":   p.BusinessID,
		"business_uuid": p.BusinessUUID,
		"place_id":      p.PlaceID,
	}
}

// FromMap creates a payload from a map
func RefreshReviewsJobPayloadFromMap(data map[string]interface{}) (*RefreshReviewsJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload RefreshReviewsJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// RefreshDetailsJobPayload contains the payload for business detail refresh jobs
type RefreshDetailsJobPayload struct {
	BusinessID   uint   `json:"business_id"`
	BusinessUUID string `json:"business_uuid"`
	PlaceID      string `json:"place_id"`
}

// ToMap converts the payload to a map for storage
func (p RefreshDetailsJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"business_id":   p.BusinessID,
		"business_uuid": p.BusinessUUID,
		"place_id":      p.PlaceID,
	}
}

// FromMap creates a payload from a map
func RefreshDetailsJobPayloadFromMap(data map[string]interface{}) (*RefreshDetailsJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload RefreshDetailsJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
