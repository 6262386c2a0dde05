package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alloc33/market/pkg/logger"
)

// MemoryQueue is a bounded in-process queue drained by a fixed-size worker
// pool. Overflow fails fast with ErrQueueFull rather than blocking the
// producer. Process shutdown abandons queued and in-flight messages; that
// loss is accepted and logged, never masked.
type MemoryQueue struct {
	logger *logger.Logger
	config *QueueConfig

	mu        sync.RWMutex
	jobs      map[string]Job
	isRunning bool

	ch     chan Message
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMemoryQueue creates an in-process queue.
func NewMemoryQueue(lgr *logger.Logger, config *QueueConfig) *MemoryQueue {
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryQueue{
		logger: lgr,
		config: config,
		jobs:   make(map[string]Job),
		ch:     make(chan Message, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterJobs registers multiple jobs.
func (q *MemoryQueue) RegisterJobs(jobs []Job) {
	for _, job := range jobs {
		q.RegisterJob(job)
	}
}

// RegisterJob registers a single job.
func (q *MemoryQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.jobs[job.Type()]; exists {
		q.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
	q.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start launches the worker pool.
func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isRunning {
		return fmt.Errorf("queue already running")
	}
	q.isRunning = true

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.Info("memory queue started",
		logger.Int("workers", q.config.Workers),
		logger.Int("capacity", q.config.QueueSize))
	return nil
}

// Stop cancels workers and waits for them up to ctx's deadline. Messages
// still queued or mid-flight are abandoned.
func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	q.mu.Unlock()

	q.cancel()

	doneCh := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		if n := len(q.ch); n > 0 {
			q.logger.Warn("abandoning queued messages on shutdown", logger.Int("count", n))
		}
		q.logger.Info("memory queue stopped")
		return nil
	}
}

// PublishMessage enqueues a message (implements QueueService).
func (q *MemoryQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.isRunning {
		return fmt.Errorf("queue not running")
	}
	if _, exists := q.jobs[msgType]; !exists {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}

	msg := Message{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Depth reports the number of queued messages.
func (q *MemoryQueue) Depth() int { return len(q.ch) }

func (q *MemoryQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case msg := <-q.ch:
			q.process(msg)
		}
	}
}

func (q *MemoryQueue) process(msg Message) {
	q.mu.RLock()
	job, exists := q.jobs[msg.Type]
	q.mu.RUnlock()
	if !exists {
		q.logger.Error("no job found",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID))
		return
	}

	start := time.Now()
	if err := job.Handle(q.ctx, msg.Payload); err != nil {
		// Jobs own their own retry policy; a returned error is terminal.
		q.logger.Error("message processing error",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
	}
}
