package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/bragfeed/bragfeed/app/repository"
	"github.com/bragfeed/bragfeed/internal/pkg/env"
	metrics "github.com/bragfeed/bragfeed/internal/pkg/metrics/counter"
	"github.com/bragfeed/bragfeed/internal/pkg/places"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	refreshTicker      *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "3")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount, places.NewClientFromEnv(), repository.GetGlobalRepositories()),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Schedule periodic review refreshes for all businesses
	refreshInterval := 6 * time.Hour
	if v, err := strconv.Atoi(env.GetEnv("REVIEW_REFRESH_INTERVAL_HOURS", "6")); err == nil && v > 0 {
		refreshInterval = time.Duration(v) * time.Hour
	}
	m.refreshTicker = time.NewTicker(refreshInterval)
	m.wg.Add(1)
	go m.refreshWorker(refreshInterval)

	// Start counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.refreshTicker != nil {
		m.refreshTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// Signal workers to stop. The channel must stay set to the closed
	// instance; a worker re-entering its select while it is nil would block
	// forever and deadlock the Wait below. Start replaces it on restart.
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// refreshWorker periodically enqueues a review refresh job for every business
func (m *Manager) refreshWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started review refresh worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Review refresh worker stopping")
			return
		case <-m.refreshTicker.C:
			if err := m.EnqueueRefreshForAllBusinesses(); err != nil {
				log.Errorf("[JobQueue Manager] Error scheduling review refreshes: %v", err)
			}
		}
	}
}

// EnqueueRefreshForAllBusinesses schedules one refresh_reviews job per business
func (m *Manager) EnqueueRefreshForAllBusinesses() error {
	businesses, err := m.queue.repos.Business.ListAll()
	if err != nil {
		return err
	}
	for _, business := range businesses {
		payload := RefreshReviewsJobPayload{
			BusinessID:   business.ID,
			BusinessUUID: business.UUID,
			PlaceID:      business.PlaceID,
		}
		if _, err := m.queue.EnqueueJob(JobTypeRefreshReviews, payload.ToMap()); err != nil {
			log.Errorf("[JobQueue Manager] Failed to enqueue refresh for business %s: %v", business.UUID, err)
		}
	}
	log.Infof("[JobQueue Manager] Scheduled review refresh for %d businesses", len(businesses))
	return nil
}

// counterFlushWorker periodically flushes in-memory counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
