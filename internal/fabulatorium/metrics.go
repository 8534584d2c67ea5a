package fabulatorium

import (
	"servus/internal/metrics"
	"time"
)

func (listener *Listener) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw any, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   listener.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	active := listener.Metrics.ActiveSessions.Load()

	add("active_sessions", active, "count", metrics.Gauge, "Fabulator connections currently open")
	add("peak_sessions", max(listener.Metrics.PeakSessions.Swap(active), active), "count", metrics.Gauge, "Highest number of concurrent sessions in the interval")
	add("sessions_opened", listener.Metrics.SessionsOpened.Swap(0), "count", metrics.Counter, "Connections accepted in the interval")
	add("sessions_refused", listener.Metrics.SessionsRefused.Swap(0), "count", metrics.Counter, "Connections closed because the session limit was reached")
	add("received_fabulas", listener.Metrics.ReceivedFabulas.Swap(0), "count", metrics.Counter, "Fabulas accepted and enqueued in the interval")
	add("received_bytes", listener.Metrics.ReceivedBytes.Swap(0), "bytes", metrics.Counter, "Bytes read from fabulators in the interval")
	add("rejected_datagrams", listener.Metrics.RejectedDatagrams.Swap(0), "count", metrics.Counter, "Datagrams answered with an error status in the interval")
	return
}
