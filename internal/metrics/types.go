package metrics

import (
	"sync"
	"time"
)

type Registry struct {
	mu      sync.RWMutex
	metrics map[time.Time]map[string]map[string]Metric // key0=timestamp, key1=namespace, key2=name
}

type MetricType string

const (
	Counter MetricType = "counter" // reset every interval
	Gauge   MetricType = "gauge"   // can go up/down
)

// Container for a metric and associated data
type Metric struct {
	Name        string // e.g. depth, avisos_sent
	Description string
	Namespace   []string // e.g. "Servus/Fabulatorium/Listener/kitchen"
	Value       MetricValue
	Type        MetricType
	Timestamp   time.Time // time when the metric was recorded
}

// Specific value of a metric
type MetricValue struct {
	Raw      any           // uint64, int64, float64
	Unit     string        // e.g. "count", "bytes"
	Interval time.Duration // measurement window
}

// JSON version
type JMetric struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Namespace   string       `json:"namespace"`
	Value       JMetricValue `json:"value"`
	Type        string       `json:"type"`
	Timestamp   string       `json:"timestamp"`
}

type JMetricValue struct {
	Raw      string `json:"raw"`
	Unit     string `json:"unit"`
	Interval string `json:"interval"`
}

// Any component able to report its counters for one interval
type Collector interface {
	CollectMetrics(interval time.Duration) []Metric
}

// Supplies the current set of collectors (components come and go at runtime)
type CollectorSource func() []Collector

// Periodically stores collector output in the registry
type Gatherer struct {
	Interval  time.Duration // Polling interval to gather metrics at
	Retention time.Duration // Maximum time to maintain metrics for
	Registry  *Registry     // Storage for metric data
	sources   CollectorSource
}
