// Package worker provides the asynchronous pool that records chat turns
// off the relay's HTTP hot path. Recording must never block or fail a
// request: jobs are enqueued without blocking and dropped (with an error
// log) when the queue is saturated.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d-wern/stella-relay/pkg/eventstream"
	"github.com/d-wern/stella-relay/pkg/eventstream/nop"
	"github.com/d-wern/stella-relay/pkg/transcript"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute.
type Job struct {
	Turn *transcript.Turn
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Store persists recorded turns. Required.
	Store transcript.Store

	// Publisher publishes turn events after a successful save.
	// Defaults to the nop publisher.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel.
	QueueSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Pool records turns asynchronously via a fixed set of workers.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("worker pool requires a transcript store")
	}

	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue was full and the job dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("turn queued",
			zap.String("turn_id", job.Turn.ID),
			zap.String("session_id", job.Turn.SessionID),
		)
		return true
	default:
		p.logger.Error("turn dropped, queue full",
			zap.String("turn_id", job.Turn.ID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("transcript worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("transcript worker stopped", zap.Uint("worker_id", id))
}

// processJob saves the turn and, on success, publishes a turn event.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if err := p.config.Store.Save(ctx, job.Turn); err != nil {
		p.logger.Error("async transcript save failed",
			zap.String("turn_id", job.Turn.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("turn recorded",
		zap.String("turn_id", job.Turn.ID),
		zap.String("session_id", job.Turn.SessionID),
		zap.Bool("streaming", job.Turn.Streaming),
		zap.Int64("duration_ms", job.Turn.DurationMs),
	)

	event := &eventstream.TurnRecordedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnRecorded,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Turn:          *job.Turn,
	}

	if err := p.config.Publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Warn("turn event publish failed",
			zap.String("turn_id", job.Turn.ID),
			zap.Error(err),
		)
	}
}
