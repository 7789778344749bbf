package middleware

import (
	"context"
	"sync"
	"time"

	"CryptoPulse/internal/domain/models"
	domrepo "CryptoPulse/internal/domain/repository"
)

// Sink is the minimal consumer interface the pipeline feeds.
type Sink interface {
	Store(ctx context.Context, s *models.Sample) error
}

// StreamPipeline sits between the live WebSocket feed and the series
// store. It throttles bursty trade streams down to the sampling rate
// the nowcast series wants and buffers when the store is briefly
// unavailable.
type StreamPipeline struct {
	sink    Sink
	metrics domrepo.Metrics

	minGap  time.Duration // minimum spacing between accepted samples
	bufSize int
	bufCh   chan *models.Sample
	stopCh  chan struct{}

	mu           sync.Mutex
	started      bool
	lastAccepted time.Time
}

type PipelineOption func(*StreamPipeline)

// WithMaxRPS caps accepted samples per second.
func WithMaxRPS(n int) PipelineOption {
	return func(p *StreamPipeline) {
		if n > 0 {
			p.minGap = time.Second / time.Duration(n)
		}
	}
}

// WithBufferSize sets the buffer used while the store is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *StreamPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewStreamPipeline creates a pipeline with sane defaults.
func NewStreamPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *StreamPipeline {
	p := &StreamPipeline{
		sink:    sink,
		metrics: metrics,
		minGap:  time.Second,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Sample, p.bufSize)
	return p
}

// Start launches background flushing of buffered samples.
func (p *StreamPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.sink.Store(ctx, s); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- s:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Process accepts one sample from the stream, dropping those arriving
// faster than the configured rate.
func (p *StreamPipeline) Process(ctx context.Context, s *models.Sample) error {
	if s == nil {
		return nil
	}

	p.mu.Lock()
	if time.Since(p.lastAccepted) < p.minGap {
		p.mu.Unlock()
		return nil // throttled, not an error
	}
	p.lastAccepted = time.Now()
	p.mu.Unlock()

	select {
	case p.bufCh <- s:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return nil
	}
}

// Stop halts the background flusher.
func (p *StreamPipeline) Stop() {
	close(p.stopCh)
}
