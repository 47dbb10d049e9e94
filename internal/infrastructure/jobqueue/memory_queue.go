package jobqueue

import (
	"context"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
)

var (
	ErrQueueFull   = crerr.New("job queue is full")
	ErrQueueClosed = crerr.New("job queue is closed")
)

// MemoryQueue is a bounded in-process queue. Enqueue never blocks; a full
// queue rejects the job and the dispatcher records the failure.
type MemoryQueue struct {
	mu     sync.RWMutex
	jobs   chan jobscheduler.Job
	closed bool
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{jobs: make(chan jobscheduler.Job, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job jobscheduler.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return crerr.Wrapf(ErrQueueFull, "capacity=%d", cap(q.jobs))
	}
}

func (q *MemoryQueue) Jobs() <-chan jobscheduler.Job {
	return q.jobs
}

func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Close stops accepting jobs. Jobs already queued are still delivered.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.jobs)
}
