package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bragfeed/bragfeed/app/models"
	"github.com/bragfeed/bragfeed/app/repository"
)

type fakeUsageRepo struct {
	repository.UsageEventRepository

	total     int64
	monthly   int64
	first     *time.Time
	latest    *models.UsageEvent
	perBiz    map[uint]int64
	returnErr error
}

func (f *fakeUsageRepo) CountByUserAndEvent(userID uint, event string) (int64, error) {
	return f.total, f.returnErr
}

func (f *fakeUsageRepo) CountByUserAndEventSince(userID uint, event string, since time.Time) (int64, error) {
	return f.monthly, f.returnErr
}

func (f *fakeUsageRepo) FirstTimestamp(userID uint, event string) (*time.Time, error) {
	return f.first, f.returnErr
}

func (f *fakeUsageRepo) Latest(userID uint, event string) (*models.UsageEvent, error) {
	return f.latest, f.returnErr
}

func (f *fakeUsageRepo) CountPerBusiness(userID uint, event string) (map[uint]int64, error) {
	return f.perBiz, f.returnErr
}

type fakeBusinessRepo struct {
	repository.BusinessRepository

	businesses []models.Business
	stats      map[uint]*models.BusinessStats
}

func (f *fakeBusinessRepo) GetByID(id uint) (*models.Business, error) {
	for i := range f.businesses {
		if f.businesses[i].ID == id {
			return &f.businesses[i], nil
		}
	}
	return nil, assert.AnError
}

func (f *fakeBusinessRepo) ListByUserID(userID uint) ([]models.Business, error) {
	return f.businesses, nil
}

func (f *fakeBusinessRepo) LatestStats(businessID uint) (*models.BusinessStats, error) {
	return f.stats[businessID], nil
}

func TestComputeAPIStats(t *testing.T) {
	firstUse := time.Now().Add(-10 * 24 * time.Hour)
	latestCall := time.Now().Add(-time.Hour)

	repos := &repository.Repositories{
		Usage: &fakeUsageRepo{
			total:   50,
			monthly: 12,
			first:   &firstUse,
			latest:  &models.UsageEvent{UserID: 1, BusinessID: 3, Timestamp: latestCall},
		},
		Business: &fakeBusinessRepo{
			businesses: []models.Business{{ID: 3, Name: "Mario's Pizzeria"}},
		},
	}

	stats, err := ComputeAPIStats(repos, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(50), stats.TotalAPICalls)
	assert.Equal(t, int64(12), stats.MonthlyAPICalls)
	assert.Equal(t, int64(5), stats.DailyAverageAPICalls)
	require.NotNil(t, stats.LatestAPICall)
	assert.Equal(t, "Mario's Pizzeria", stats.LatestAPICall.BusinessName)
	assert.WithinDuration(t, latestCall, stats.LatestAPICall.Timestamp, time.Second)
}

func TestComputeAPIStatsNoUsage(t *testing.T) {
	repos := &repository.Repositories{
		Usage:    &fakeUsageRepo{},
		Business: &fakeBusinessRepo{},
	}

	stats, err := ComputeAPIStats(repos, 1)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalAPICalls)
	assert.Zero(t, stats.DailyAverageAPICalls)
	assert.Nil(t, stats.LatestAPICall)
}

func TestGetBusinessOverviews(t *testing.T) {
	repos := &repository.Repositories{
		Usage: &fakeUsageRepo{
			perBiz: map[uint]int64{1: 7, 2: 0},
		},
		Business: &fakeBusinessRepo{
			businesses: []models.Business{
				{ID: 1, Name: "First"},
				{ID: 2, Name: "Second"},
			},
			stats: map[uint]*models.BusinessStats{
				1: {BusinessID: 1, ReviewCount: 25, ReviewScore: 4.6},
			},
		},
	}

	overviews, err := GetBusinessOverviews(repos, 1)
	require.NoError(t, err)
	require.Len(t, overviews, 2)

	assert.Equal(t, int64(7), overviews[0].APICalls)
	assert.Equal(t, 25, overviews[0].ReviewCount)
	assert.Equal(t, 4.6, overviews[0].ReviewScore)

	assert.Zero(t, overviews[1].APICalls)
	assert.Zero(t, overviews[1].ReviewCount)
}
