package dispatcher

import (
	"servus/internal/metrics"
	"time"
)

func (communicator *Communicator) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw any, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   communicator.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     "count",
				Interval: interval,
			},
		})
	}

	var playing uint64
	if communicator.State() == StatePlaying {
		playing = 1
	}

	add("playing", playing, metrics.Gauge, "Whether the session with Primus is streaming")
	add("connects", communicator.Metrics.Connects.Swap(0), metrics.Counter, "Connections established to Primus")
	add("rejections", communicator.Metrics.Rejections.Swap(0), metrics.Counter, "Sessions refused by Primus with 401/403")
	add("session_failures", communicator.Metrics.SessionFailures.Swap(0), metrics.Counter, "Sessions ended by transport or protocol errors")
	add("datagrams_sent", communicator.Metrics.DatagramsSent.Swap(0), metrics.Counter, "Requests written to Primus")
	add("neutrinos_sent", communicator.Metrics.NeutrinosSent.Swap(0), metrics.Counter, "Heartbeats sent while the queue was idle")
	add("avisos_sent", communicator.Metrics.AvisosSent.Swap(0), metrics.Counter, "Aviso transmissions, retransmissions included")
	add("avisos_acknowledged", communicator.Metrics.AvisosAcked.Swap(0), metrics.Counter, "Avisos confirmed by Primus and removed from the queue")
	return
}
