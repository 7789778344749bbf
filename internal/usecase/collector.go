package usecase

import (
	"context"
	"sync"
	"time"

	drepo "CryptoPulse/internal/domain/repository"
	"CryptoPulse/internal/middleware"
	applogger "CryptoPulse/pkg/logger"
)

// StreamCollector drives the optional live WebSocket ingestion path:
// it connects the stream, feeds samples through the throttling
// pipeline and reconnects with a delay when the feed drops.
type StreamCollector struct {
	stream   drepo.PriceStream
	pipeline *middleware.StreamPipeline
	logger   *applogger.Logger

	reconnectDelay time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewStreamCollector creates a collector. reconnectDelay <= 0 selects
// five seconds.
func NewStreamCollector(
	stream drepo.PriceStream,
	pipeline *middleware.StreamPipeline,
	logger *applogger.Logger,
	reconnectDelay time.Duration,
) *StreamCollector {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &StreamCollector{
		stream:         stream,
		pipeline:       pipeline,
		logger:         logger,
		reconnectDelay: reconnectDelay,
	}
}

// Start connects and begins consuming in the background.
func (c *StreamCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	if err := c.stream.Connect(runCtx); err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		cancel()
		return err
	}
	if err := c.stream.Subscribe(runCtx); err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		cancel()
		_ = c.stream.Close()
		return err
	}

	c.pipeline.Start(runCtx)

	c.wg.Add(1)
	go c.consume(runCtx)
	return nil
}

func (c *StreamCollector) consume(ctx context.Context) {
	defer c.wg.Done()

	samples, errs := c.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				if !c.reconnect(ctx) {
					return
				}
				samples, errs = c.stream.Read(ctx)
				continue
			}
			if err := c.pipeline.Process(ctx, s); err != nil {
				c.logger.Warn("stream sample dropped", applogger.Error(err))
			}
		case err, ok := <-errs:
			if !ok {
				continue
			}
			c.logger.Warn("stream read error", applogger.Error(err))
			if !c.reconnect(ctx) {
				return
			}
			samples, errs = c.stream.Read(ctx)
		}
	}
}

func (c *StreamCollector) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.reconnectDelay):
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.logger.Warn("stream reconnect failed", applogger.Error(err))
			continue
		}
		if err := c.stream.Subscribe(ctx); err != nil {
			c.logger.Warn("stream resubscribe failed", applogger.Error(err))
			continue
		}
		c.logger.Info("stream reconnected")
		return true
	}
}

// Stop halts consumption and closes the stream.
func (c *StreamCollector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.pipeline.Stop()
	_ = c.stream.Close()
}
