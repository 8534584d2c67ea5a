package archive

import (
	"servus/internal/metrics"
	"time"
)

func (mirror *Mirror) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw any, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   mirror.Namespace,
			Type:        metrics.Counter,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     "count",
				Interval: interval,
			},
		})
	}

	add("events_sent", mirror.Metrics.EventsSent.Swap(0), "Avisos mirrored to the beats server")
	add("send_failures", mirror.Metrics.SendFailures.Swap(0), "Mirror attempts that failed")
	add("connects", mirror.Metrics.Reconnects.Swap(0), "Connections opened to the beats server")
	add("dropped", mirror.Metrics.Dropped.Swap(0), "Avisos not mirrored because the backlog was full")
	return
}
