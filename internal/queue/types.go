package queue

import (
	"servus/internal/aviso"
	"sync"
	"sync/atomic"
	"time"
)

// FIFO of avisos waiting for Primus. The head is in flight until acknowledged by id.
type Queue struct {
	Namespace []string
	mutex     sync.Mutex
	avisos    []aviso.Aviso
	lastID    uint64
	notEmpty  chan struct{} // closed on enqueue then replaced
	Metrics   MetricStorage
}

type MetricStorage struct {
	Depth      atomic.Uint64 // Current avisos in queue
	Enqueued   atomic.Uint64
	Dequeued   atomic.Uint64
	Mismatches atomic.Uint64 // acknowledgements naming another aviso than the head
	Fetches    atomic.Uint64
}

// Pending aviso as shown by the status page
type Summary struct {
	ID          uint64    `json:"id"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}
