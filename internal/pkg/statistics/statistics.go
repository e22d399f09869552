package statistics

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/bragfeed/bragfeed/app/models"
	"github.com/bragfeed/bragfeed/app/repository"
	"github.com/bragfeed/bragfeed/internal/pkg/cache"
)

const (
	cacheKeyAPIStats = "statistics:apistats:%d" // Format with user ID
	cacheExpiration  = 5 * time.Minute
)

// LatestAPICall describes the most recent served API response.
type LatestAPICall struct {
	Timestamp    time.Time `json:"timestamp"`
	BusinessName string    `json:"businessName"`
}

// APIStats aggregates a user's public API usage for the dashboard.
type APIStats struct {
	TotalAPICalls        int64          `json:"totalApiCalls"`
	MonthlyAPICalls      int64          `json:"monthlyApiCalls"`
	DailyAverageAPICalls int64          `json:"dailyAverageApiCalls"`
	LatestAPICall        *LatestAPICall `json:"latestApiCall"`
}

// BusinessOverview combines a business with its usage count and newest stats
// snapshot for the dashboard grid.
type BusinessOverview struct {
	Business    models.Business `json:"business"`
	APICalls    int64           `json:"apiCalls"`
	ReviewCount int             `json:"reviewCount"`
	ReviewScore float64         `json:"reviewScore"`
}

// GetAPIStats returns the user's API usage statistics, served from the cache
// when a fresh entry exists.
func GetAPIStats(repos *repository.Repositories, userID uint) (*APIStats, error) {
	key := fmt.Sprintf(cacheKeyAPIStats, userID)
	if cached, err := cache.Get(key); err == nil && cached != "" {
		var stats APIStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := ComputeAPIStats(repos, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := cache.Set(key, string(data), cacheExpiration); err != nil {
			log.Printf("failed to cache api stats for user %d: %v", userID, err)
		}
	}
	return stats, nil
}

// InvalidateAPIStats drops the cached entry, e.g. after new usage was recorded.
func InvalidateAPIStats(userID uint) {
	if err := cache.Delete(fmt.Sprintf(cacheKeyAPIStats, userID)); err != nil {
		log.Printf("failed to invalidate api stats cache for user %d: %v", userID, err)
	}
}

// ComputeAPIStats aggregates usage events straight from the database.
func ComputeAPIStats(repos *repository.Repositories, userID uint) (*APIStats, error) {
	total, err := repos.Usage.CountByUserAndEvent(userID, models.EventAPIResponse)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthly, err := repos.Usage.CountByUserAndEventSince(userID, models.EventAPIResponse, monthStart)
	if err != nil {
		return nil, err
	}

	stats := &APIStats{
		TotalAPICalls:   total,
		MonthlyAPICalls: monthly,
	}

	first, err := repos.Usage.FirstTimestamp(userID, models.EventAPIResponse)
	if err != nil {
		return nil, err
	}
	if first != nil && total > 0 {
		days := int64(now.Sub(*first).Hours() / 24)
		if days < 1 {
			days = 1
		}
		stats.DailyAverageAPICalls = total / days
	}

	latest, err := repos.Usage.Latest(userID, models.EventAPIResponse)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		call := &LatestAPICall{Timestamp: latest.Timestamp}
		if latest.BusinessID != 0 {
			if business, err := repos.Business.GetByID(latest.BusinessID); err == nil {
				call.BusinessName = business.Name
			}
		}
		stats.LatestAPICall = call
	}

	return stats, nil
}

// GetBusinessOverviews returns all of the user's businesses with per-business
// usage counts and the latest stats snapshot.
func GetBusinessOverviews(repos *repository.Repositories, userID uint) ([]BusinessOverview, error) {
	businesses, err := repos.Business.ListByUserID(userID)
	if err != nil {
		return nil, err
	}

	counts, err := repos.Usage.CountPerBusiness(userID, models.EventAPIResponse)
	if err != nil {
		return nil, err
	}

	out := make([]BusinessOverview, 0, len(businesses))
	for _, business := range businesses {
		overview := BusinessOverview{
			Business: business,
			APICalls: counts[business.ID],
		}
		if stats, err := repos.Business.LatestStats(business.ID); err == nil && stats != nil {
			overview.ReviewCount = stats.ReviewCount
			overview.ReviewScore = stats.ReviewScore
		}
		out = append(out, overview)
	}
	return out, nil
}
