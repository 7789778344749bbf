package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CryptoPulse/internal/domain/models"
	applogger "CryptoPulse/pkg/logger"
)

// ErrBatchRunning is returned when a batch start overlaps an active run.
var ErrBatchRunning = errors.New("batch collection already running")

// BatchRunner executes a server-side collection loop: count ingest
// cycles spaced by a delay, with observable progress and graceful
// stop. At most one loop runs at a time.
type BatchRunner struct {
	ingestor *SampleIngestor
	logger   *applogger.Logger

	mu        sync.Mutex
	running   bool
	done      int
	failed    int
	target    int
	delay     time.Duration
	startedAt time.Time
	updatedAt time.Time
	lastErr   string
	cancel    context.CancelFunc
}

// NewBatchRunner creates a BatchRunner.
func NewBatchRunner(ingestor *SampleIngestor, logger *applogger.Logger) *BatchRunner {
	return &BatchRunner{ingestor: ingestor, logger: logger}
}

// Start launches the collection loop in the background. It fails with
// ErrBatchRunning when a loop is already active. The loop outlives the
// request that started it, so its context derives from the process,
// not the caller; Stop is the only way to cancel it early.
func (b *BatchRunner) Start(count int, delay time.Duration) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrBatchRunning
	}
	runCtx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC()
	b.running = true
	b.done = 0
	b.failed = 0
	b.target = count
	b.delay = delay
	b.startedAt = now
	b.updatedAt = now
	b.lastErr = ""
	b.cancel = cancel
	b.mu.Unlock()

	go b.run(runCtx, count, delay)
	return nil
}

func (b *BatchRunner) run(ctx context.Context, count int, delay time.Duration) {
	defer func() {
		b.mu.Lock()
		b.running = false
		b.updatedAt = time.Now().UTC()
		b.mu.Unlock()
	}()

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, stored, err := b.ingestor.IngestOnce(ctx)
		b.mu.Lock()
		if err != nil {
			b.failed++
			b.lastErr = err.Error()
		} else {
			b.done++
			if !stored && b.logger != nil {
				b.logger.Debug("batch sample skipped as duplicate")
			}
		}
		b.updatedAt = time.Now().UTC()
		b.mu.Unlock()

		if err != nil && b.logger != nil {
			b.logger.Warn("batch ingest failed", applogger.Error(err), applogger.Int("cycle", i))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// Stop requests a graceful stop of the active loop, if any.
func (b *BatchRunner) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	b.updatedAt = time.Now().UTC()
}

// Reset clears counters. Only allowed while no loop is running.
func (b *BatchRunner) Reset() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}
	b.done = 0
	b.failed = 0
	b.target = 0
	b.delay = 0
	b.startedAt = time.Time{}
	b.lastErr = ""
	b.updatedAt = time.Now().UTC()
	return true
}

// Status returns a snapshot of the loop state with a naive ETA.
func (b *BatchRunner) Status() models.BatchStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := models.BatchStatus{
		Running:   b.running,
		Done:      b.done,
		Failed:    b.failed,
		Target:    b.target,
		Delay:     b.delay.Seconds(),
		StartedAt: b.startedAt,
		UpdatedAt: b.updatedAt,
		LastError: b.lastErr,
	}
	if b.running && b.delay > 0 {
		remaining := b.target - b.done
		if remaining < 0 {
			remaining = 0
		}
		st.ETASeconds = int(float64(remaining) * b.delay.Seconds())
	}
	return st
}
