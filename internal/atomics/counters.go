// Helpers for atomic counters shared between worker goroutines
package atomics

import (
	"context"
	"sync/atomic"
	"time"
)

// Polls until value reads 0 on consecutive checks, the timeout passes or ctx is done
func WaitUntilZero(ctx context.Context, value *atomic.Uint64, timeout time.Duration) (reachedZero bool, lastValue uint64) {
	const successfulStreakCount = 2

	backoff := 20 * time.Millisecond
	maxBackoff := 500 * time.Millisecond

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	zeroStreak := 0
	for {
		lastValue = value.Load()
		if lastValue == 0 {
			zeroStreak++
			if zeroStreak >= successfulStreakCount {
				reachedZero = true
				return
			}
		} else {
			zeroStreak = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-time.After(backoff):
		}

		if backoff < maxBackoff {
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

// Subtracts one unless already 0
func DecrementFloor(value *atomic.Uint64) (newValue uint64) {
	for {
		current := value.Load()
		if current == 0 {
			return
		}
		newValue = current - 1
		if value.CompareAndSwap(current, newValue) {
			return
		}
	}
}

// Raises value to candidate if candidate is larger
func StoreMax(value *atomic.Uint64, candidate uint64) {
	for {
		current := value.Load()
		if candidate <= current {
			return
		}
		if value.CompareAndSwap(current, candidate) {
			return
		}
	}
}
