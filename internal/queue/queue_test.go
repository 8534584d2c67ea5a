package queue

import (
	"context"
	"errors"
	"servus/internal/aviso"
	"servus/internal/global"
	"sort"
	"sync"
	"testing"
	"time"
)

func newTestQueue() *Queue {
	return New([]string{global.NSTest})
}

func newFabula(msg string) aviso.Aviso {
	return aviso.NewFabula(time.Time{}, "test", 1, false, []byte(msg))
}

func TestEnqueueAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue()

	const producers = 8
	const perProducer = 50

	var mu sync.Mutex
	var ids []uint64

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				id := queue.Enqueue(ctx, newFabula("x"))
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
			}
		}()
	}

	// Concurrent consumer acknowledging whatever is at the head
	stop := make(chan struct{})
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			head, err := queue.FetchFirst()
			if err == nil {
				_ = queue.Dequeue(ctx, head.ID())
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-consumerDone

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("expected id %d at position %d, got %d", i+1, i, id)
		}
	}
}

func TestFetchFirst(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue()

	if _, err := queue.FetchFirst(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}

	first := queue.Enqueue(ctx, newFabula("a"))
	queue.Enqueue(ctx, newFabula("b"))

	for i := 0; i < 2; i++ {
		head, err := queue.FetchFirst()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if head.ID() != first {
			t.Fatalf("expected head #%d to stay in place, got #%d", first, head.ID())
		}
	}
	if queue.Len() != 2 {
		t.Fatalf("expected fetch to keep both avisos, got %d", queue.Len())
	}
}

func TestDequeue(t *testing.T) {
	tests := []struct {
		name      string
		enqueue   int
		ackID     uint64
		wantErr   error
		wantHead  uint64
		wantDepth int
	}{
		{"matching id advances head", 2, 1, nil, 2, 1},
		{"last aviso empties queue", 1, 1, nil, 0, 0},
		{"mismatched id keeps head", 3, 2, ErrIDMismatch, 1, 3},
		{"empty queue", 0, 1, ErrQueueEmpty, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			queue := newTestQueue()
			for i := 0; i < tt.enqueue; i++ {
				queue.Enqueue(ctx, newFabula("x"))
			}

			err := queue.Dequeue(ctx, tt.ackID)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if queue.Len() != tt.wantDepth {
				t.Fatalf("expected depth %d, got %d", tt.wantDepth, queue.Len())
			}
			if tt.wantHead != 0 {
				head, err := queue.FetchFirst()
				if err != nil || head.ID() != tt.wantHead {
					t.Fatalf("expected head #%d, got %v (%v)", tt.wantHead, head, err)
				}
			}
			if int(queue.Metrics.Depth.Load()) != tt.wantDepth {
				t.Fatalf("expected depth metric %d, got %d", tt.wantDepth, queue.Metrics.Depth.Load())
			}
		})
	}
}

func TestWait(t *testing.T) {
	ctx := context.Background()

	t.Run("pending returns signaled even with zero timeout", func(t *testing.T) {
		queue := newTestQueue()
		queue.Enqueue(ctx, newFabula("x"))
		if !queue.Wait(ctx, 0) {
			t.Fatalf("expected signaled for non-empty queue")
		}
	})

	t.Run("empty queue times out", func(t *testing.T) {
		queue := newTestQueue()
		start := time.Now()
		if queue.Wait(ctx, 30*time.Millisecond) {
			t.Fatalf("expected timeout")
		}
		if time.Since(start) < 25*time.Millisecond {
			t.Fatalf("returned before timeout elapsed")
		}
	})

	t.Run("enqueue releases waiter", func(t *testing.T) {
		queue := newTestQueue()
		result := make(chan bool, 1)
		go func() {
			result <- queue.Wait(ctx, time.Minute)
		}()

		time.Sleep(20 * time.Millisecond)
		queue.Enqueue(ctx, newFabula("x"))

		select {
		case signaled := <-result:
			if !signaled {
				t.Fatalf("expected signaled after enqueue")
			}
		case <-time.After(time.Second):
			t.Fatalf("waiter was not released by enqueue")
		}
	})

	t.Run("cancellation releases waiter", func(t *testing.T) {
		queue := newTestQueue()
		cancelCtx, cancel := context.WithCancel(ctx)
		result := make(chan bool, 1)
		go func() {
			result <- queue.Wait(cancelCtx, time.Minute)
		}()

		cancel()
		select {
		case signaled := <-result:
			if signaled {
				t.Fatalf("expected not signaled on cancellation")
			}
		case <-time.After(time.Second):
			t.Fatalf("waiter ignored cancellation")
		}
	})
}

func TestSnapshotAndMetrics(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue()
	queue.Enqueue(ctx, aviso.NewDSTemperature("T1", 20))
	queue.Enqueue(ctx, newFabula("x"))

	snapshot := queue.Snapshot()
	if len(snapshot) != 2 || snapshot[0].ID != 1 || snapshot[0].Type != string(aviso.TypeDSTemperature) {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	collected := queue.CollectMetrics(time.Second)
	values := make(map[string]any)
	for _, metric := range collected {
		values[metric.Name] = metric.Value.Raw
	}
	if values["enqueued"] != uint64(2) || values["depth"] != uint64(2) {
		t.Fatalf("unexpected metric values %v", values)
	}
	if again := queue.CollectMetrics(time.Second); again[1].Value.Raw != uint64(0) {
		t.Fatalf("expected counters reset after collection, got %v", again[1].Value.Raw)
	}
}

func TestDepthGaugeUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue()
	const total = 500

	stop := make(chan struct{})
	maxSeen := make(chan uint64, 1)
	go func() {
		var highest uint64
		for {
			select {
			case <-stop:
				maxSeen <- highest
				return
			default:
			}
			if depth := queue.Metrics.Depth.Load(); depth > highest {
				highest = depth
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			queue.Enqueue(ctx, newFabula("tick"))
		}
	}()

	dequeued := 0
	deadline := time.Now().Add(5 * time.Second)
	for dequeued < total {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d dequeues, got %d", total, dequeued)
		}
		head, err := queue.FetchFirst()
		if err != nil {
			queue.Wait(ctx, 10*time.Millisecond)
			continue
		}
		if err := queue.Dequeue(ctx, head.ID()); err != nil {
			t.Fatalf("unexpected dequeue error: %v", err)
		}
		dequeued++
	}
	wg.Wait()
	close(stop)

	if highest := <-maxSeen; highest > total {
		t.Fatalf("expected depth gauge never above %d, got %d", total, highest)
	}
	if got := queue.Metrics.Depth.Load(); got != 0 {
		t.Fatalf("expected depth 0 after draining, got %d", got)
	}
}
