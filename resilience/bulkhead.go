package resilience

import (
	"sync"
)

// BulkheadConfig configures the worker-pool bulkhead.
type BulkheadConfig struct {
	// Workers is the number of worker goroutines owned by the pool.
	// Default: 10
	Workers int

	// QueueDepth is the number of admitted tasks that may wait for a free
	// worker. A submission beyond Workers in-flight plus QueueDepth waiting
	// is rejected immediately; the pool never blocks the submitter.
	// Default: 0 (no waiting room)
	QueueDepth int
}

// Bulkhead is a bounded worker pool dedicated to one endpoint. Submitted
// tasks run on pool-owned goroutines, never on the submitter's goroutine,
// and a task that has been admitted always runs to completion.
type Bulkhead struct {
	config   BulkheadConfig
	capacity int
	tasks    chan func()
	wg       sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	inFlight  int
	active    int
	maxActive int
	rejected  int64
	completed int64
}

// NewBulkhead creates a bulkhead and starts its workers.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.Workers <= 0 {
		config.Workers = 10
	}
	if config.QueueDepth < 0 {
		config.QueueDepth = 0
	}

	b := &Bulkhead{
		config:   config,
		capacity: config.Workers + config.QueueDepth,
	}
	// The buffer holds every admitted task, so the send in Submit can
	// never block.
	b.tasks = make(chan func(), b.capacity)

	b.wg.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go b.worker()
	}
	return b
}

func (b *Bulkhead) worker() {
	defer b.wg.Done()
	for fn := range b.tasks {
		b.mu.Lock()
		b.active++
		if b.active > b.maxActive {
			b.maxActive = b.active
		}
		b.mu.Unlock()

		fn()

		b.mu.Lock()
		b.active--
		b.inFlight--
		b.completed++
		b.mu.Unlock()
	}
}

// Submit hands fn to the pool. It returns ErrBulkheadFull without running fn
// when no worker is free and the queue is full, and ErrBulkheadClosed after
// Close. On success fn will be executed exactly once by a pool worker.
func (b *Bulkhead) Submit(fn func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBulkheadClosed
	}
	if b.inFlight >= b.capacity {
		b.rejected++
		return ErrBulkheadFull
	}
	b.inFlight++

	// Sent under the mutex so the send is ordered before any close of the
	// channel; the buffer holds every admitted task, so it cannot block.
	b.tasks <- fn
	return nil
}

// Close stops accepting work and waits for queued and in-flight tasks to
// finish. It is safe to call more than once; subsequent Submits fail.
func (b *Bulkhead) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.tasks)
	b.wg.Wait()
}

// Metrics returns a snapshot of pool statistics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Workers:   b.config.Workers,
		Capacity:  b.capacity,
		Active:    b.active,
		MaxActive: b.maxActive,
		Queued:    b.inFlight - b.active,
		Rejected:  b.rejected,
		Completed: b.completed,
	}
}

// BulkheadMetrics contains worker-pool statistics.
type BulkheadMetrics struct {
	Workers   int
	Capacity  int
	Active    int
	MaxActive int
	Queued    int
	Rejected  int64
	Completed int64
}
