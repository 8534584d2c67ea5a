// Thread-safe aviso queue shared by producers and the Primus communicator
package queue

import (
	"context"
	"fmt"
	"servus/internal/aviso"
	"servus/internal/global"
	"servus/internal/logctx"
	"time"
)

func New(namespace []string) (new *Queue) {
	new = &Queue{
		Namespace: append(append([]string(nil), namespace...), global.NSQueue),
		avisos:    make([]aviso.Aviso, 0),
		notEmpty:  make(chan struct{}),
	}
	return
}

// Assigns the next id, appends the aviso and wakes every waiter
func (queue *Queue) Enqueue(ctx context.Context, item aviso.Aviso) (id uint64) {
	queue.mutex.Lock()
	queue.lastID++
	id = queue.lastID
	item.SetID(id)
	queue.avisos = append(queue.avisos, item)
	queue.Metrics.Depth.Store(uint64(len(queue.avisos)))

	close(queue.notEmpty)
	queue.notEmpty = make(chan struct{})
	queue.mutex.Unlock()

	queue.Metrics.Enqueued.Add(1)

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Enqueued aviso #%d (%s)\n", id, item.Summary())
	return
}

// Returns the head without removing it. Never blocks.
func (queue *Queue) FetchFirst() (item aviso.Aviso, err error) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	queue.Metrics.Fetches.Add(1)
	if len(queue.avisos) == 0 {
		err = ErrQueueEmpty
		return
	}
	item = queue.avisos[0]
	return
}

// Removes the head only if it carries the acknowledged id
func (queue *Queue) Dequeue(ctx context.Context, id uint64) (err error) {
	queue.mutex.Lock()
	if len(queue.avisos) == 0 {
		queue.mutex.Unlock()
		err = ErrQueueEmpty
		return
	}

	headID := queue.avisos[0].ID()
	if headID != id {
		queue.mutex.Unlock()
		queue.Metrics.Mismatches.Add(1)
		err = fmt.Errorf("%w: acknowledged #%d, head is #%d", ErrIDMismatch, id, headID)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Refusing to dequeue: Primus acknowledged aviso #%d but #%d is in flight\n", id, headID)
		return
	}

	queue.avisos[0] = nil
	queue.avisos = queue.avisos[1:]
	queue.Metrics.Depth.Store(uint64(len(queue.avisos)))
	queue.mutex.Unlock()

	queue.Metrics.Dequeued.Add(1)

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Dequeued aviso #%d\n", id)
	return
}

func (queue *Queue) Pending() (pending bool) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()
	pending = len(queue.avisos) > 0
	return
}

func (queue *Queue) Len() (length int) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()
	length = len(queue.avisos)
	return
}

// Blocks until an aviso is enqueued, the timeout passes or ctx is done.
// Returns signaled immediately when avisos are already pending.
func (queue *Queue) Wait(ctx context.Context, timeout time.Duration) (signaled bool) {
	queue.mutex.Lock()
	if len(queue.avisos) > 0 {
		queue.mutex.Unlock()
		signaled = true
		return
	}
	notEmpty := queue.notEmpty
	queue.mutex.Unlock()

	if timeout <= 0 {
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-notEmpty:
		signaled = true
	case <-timer.C:
	case <-ctx.Done():
	}
	return
}

// Copy of pending avisos in delivery order
func (queue *Queue) Snapshot() (pending []Summary) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	pending = make([]Summary, 0, len(queue.avisos))
	for _, item := range queue.avisos {
		pending = append(pending, Summary{
			ID:          item.ID(),
			Type:        string(item.Type()),
			Timestamp:   item.Timestamp(),
			Description: item.Summary(),
		})
	}
	return
}
