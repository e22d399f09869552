package jobqueue

import (
	"testing"
	"time"

	"github.com/bragfeed/bragfeed/app/models"
	"github.com/bragfeed/bragfeed/app/repository"
)

type stubBusinessRepo struct {
	repository.BusinessRepository
}

func (stubBusinessRepo) ListAll() ([]models.Business, error) { return nil, nil }

func TestManagerStopUnblocksWorkersMidTick(t *testing.T) {
	m := &Manager{
		queue:  &Queue{repos: &repository.Repositories{Business: stubBusinessRepo{}}},
		stopCh: make(chan struct{}),
	}
	m.running = true
	// Fast refresh ticks keep the worker cycling through its select while
	// Stop runs, the situation where a cleared stop channel would hang it.
	m.refreshTicker = time.NewTicker(time.Millisecond)
	m.counterFlushTicker = time.NewTicker(time.Hour)
	m.wg.Add(2)
	go m.refreshWorker(time.Millisecond)
	go m.counterFlushWorker()

	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return; a worker never observed the stop signal")
	}
	if m.IsRunning() {
		t.Fatal("expected manager stopped")
	}
}
