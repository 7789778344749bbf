package usecase

import (
	"testing"
	"time"
)

func waitIdle(t *testing.T, b *BatchRunner) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !b.Status().Running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("batch did not finish in time")
}

func TestBatchRunsToCompletion(t *testing.T) {
	ing := NewSampleIngestor(&fakeSource{}, &memSeriesStore{}, nopPublisher{}, nopMetrics{})
	b := NewBatchRunner(ing, testLogger(t))

	if err := b.Start(3, time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitIdle(t, b)

	st := b.Status()
	if st.Done != 3 || st.Failed != 0 {
		t.Fatalf("expected 3 done 0 failed, got %+v", st)
	}
	if st.Target != 3 {
		t.Fatalf("target: got %d", st.Target)
	}
}

func TestBatchRejectsOverlap(t *testing.T) {
	ing := NewSampleIngestor(&fakeSource{}, &memSeriesStore{}, nopPublisher{}, nopMetrics{})
	b := NewBatchRunner(ing, testLogger(t))

	if err := b.Start(50, 20*time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := b.Start(1, time.Millisecond); err != ErrBatchRunning {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}

	b.Stop()
	waitIdle(t, b)
}

func TestBatchStopAndReset(t *testing.T) {
	ing := NewSampleIngestor(&fakeSource{}, &memSeriesStore{}, nopPublisher{}, nopMetrics{})
	b := NewBatchRunner(ing, testLogger(t))

	if err := b.Start(1000, 10*time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}
	if b.Reset() {
		t.Fatalf("reset must be refused while running")
	}

	b.Stop()
	waitIdle(t, b)

	st := b.Status()
	if st.Done >= 1000 {
		t.Fatalf("stop should interrupt the loop, done=%d", st.Done)
	}

	if !b.Reset() {
		t.Fatalf("reset must succeed while idle")
	}
	st = b.Status()
	if st.Done != 0 || st.Target != 0 || st.LastError != "" {
		t.Fatalf("reset must clear counters, got %+v", st)
	}
}
