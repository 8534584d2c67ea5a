package queue

import (
	"servus/internal/metrics"
	"time"
)

func (queue *Queue) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw any, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   queue.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("depth", queue.Metrics.Depth.Load(), "count", metrics.Gauge, "Avisos waiting for acknowledgement by Primus")
	add("enqueued", queue.Metrics.Enqueued.Swap(0), "count", metrics.Counter, "Avisos added in the interval")
	add("dequeued", queue.Metrics.Dequeued.Swap(0), "count", metrics.Counter, "Avisos acknowledged and removed in the interval")
	add("id_mismatches", queue.Metrics.Mismatches.Swap(0), "count", metrics.Counter, "Acknowledgements refused because they named another aviso")
	add("fetches", queue.Metrics.Fetches.Swap(0), "count", metrics.Counter, "Head lookups in the interval")
	return
}
