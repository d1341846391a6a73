package process

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrQueueFull is returned when enqueuing into a full ready queue.
var ErrQueueFull = errors.New("ready queue full")

// A ReadyQueue holds processes waiting to run. Dequeue returns the process
// with the highest priority; among equal priorities, the one enqueued first.
type ReadyQueue struct {
	mu       sync.Mutex
	capacity int
	procs    []*Process
}

// NewReadyQueue creates a queue that holds at most capacity processes.
func NewReadyQueue(capacity int) *ReadyQueue {
	return &ReadyQueue{capacity: capacity}
}

// Enqueue adds a process at the back.
func (q *ReadyQueue) Enqueue(p *Process) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.procs) >= q.capacity {
		return errors.Wrapf(ErrQueueFull, "pid %d", p.PID)
	}

	q.procs = append(q.procs, p)

	return nil
}

// Dequeue removes and returns the next process, or nil if the queue is
// empty.
func (q *ReadyQueue) Dequeue() *Process {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.procs) == 0 {
		return nil
	}

	best := 0
	for i, p := range q.procs {
		if p.Priority > q.procs[best].Priority {
			best = i
		}
	}

	p := q.procs[best]
	q.procs = append(q.procs[:best], q.procs[best+1:]...)

	return p
}

// Len returns the number of queued processes.
func (q *ReadyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.procs)
}

// Full tells if the queue cannot take another process.
func (q *ReadyQueue) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.procs) >= q.capacity
}

// Empty tells if no process is queued.
func (q *ReadyQueue) Empty() bool {
	return q.Len() == 0
}
