package peripherique

import (
	"servus/internal/metrics"
	"time"
)

func (storage *MetricStorage) collect(namespace []string, interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw any, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("readings", storage.Readings.Swap(0), "count", metrics.Counter, "Successful sensor reads in the interval")
	add("read_failures", storage.ReadFailures.Swap(0), "count", metrics.Counter, "Sensor reads that failed in the interval")
	add("changes_queued", storage.ChangesQueued.Swap(0), "count", metrics.Counter, "Avisos enqueued because a value crossed its edge")
	add("refresh_time_ns", storage.RefreshElapsed.Load(), "ns", metrics.Gauge, "Duration of the last refresh round")
	return
}

func (station *ThermiqueStation) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	collection = station.Metrics.collect(station.Namespace, interval)
	return
}

func (station *HumidityStation) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	collection = station.Metrics.collect(station.Namespace, interval)
	return
}
