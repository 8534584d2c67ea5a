package metrics

import (
	"context"
	"runtime/debug"
	"servus/internal/global"
	"servus/internal/logctx"
	"time"
)

const pruneEveryTicks int = 30

func NewGatherer(sources CollectorSource, interval time.Duration, retention time.Duration) (new *Gatherer) {
	new = &Gatherer{
		Registry:  New(),
		Interval:  interval,
		Retention: retention,
		sources:   sources,
	}
	return
}

// Collects every interval until ctx is done
func (gatherer *Gatherer) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSMetric)

	lastRun := time.Now()

	// Poll at half the record interval
	ticker := time.NewTicker(gatherer.Interval / 2)
	defer ticker.Stop()

	var tickCount int
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Sub(lastRun) >= gatherer.Interval {
				lastRun = now
				gatherer.CollectOnce(ctx, now)
			}

			tickCount++
			if tickCount >= pruneEveryTicks {
				gatherer.Registry.Prune(now, gatherer.Retention)
				tickCount = 0
			}
		}
	}
}

// Reads all collectors into the time slice of now
func (gatherer *Gatherer) CollectOnce(ctx context.Context, now time.Time) {
	// Record panics and continue on next interval
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in metric collector: %v\n%s", fatalError, stack)
		}
	}()

	timeSlice := gatherer.Registry.NewTimeSlice(now, gatherer.Interval)
	for _, collector := range gatherer.sources() {
		if collector == nil {
			continue
		}
		gatherer.Registry.Add(timeSlice, collector.CollectMetrics(gatherer.Interval))
	}
}
