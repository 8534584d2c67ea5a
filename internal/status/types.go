package status

import (
	"context"
	"servus/internal/dispatcher"
	"servus/internal/fabulatorium"
	"servus/internal/metrics"
	"servus/internal/peripherique"
	"servus/internal/queue"
	"time"
)

type httpLogWriter struct {
	ctx context.Context
}

type Jerror struct {
	Msg string `json:"error"`
}

type DataSearcher func(name string, namespacePrefix []string, start, end time.Time) []metrics.Metric
type Discoverer func(name, description string, namespacePrefix []string, unit string, metricType metrics.MetricType) []metrics.Metric

// Live view of the gateway filled in by the daemon
type Reporter func() Report

// Pending avisos in delivery order
type QueueLister func() []queue.Summary

// Everything the status server can query
type Sources struct {
	Search   DataSearcher
	Discover Discoverer
	Report   Reporter
	Queue    QueueLister
}

// JSON body of the status page
type Report struct {
	Version        string                 `json:"version"`
	Hostname       string                 `json:"hostname"`
	SystemTitle    string                 `json:"systemTitle"`
	Started        time.Time              `json:"started"`
	Uptime         string                 `json:"uptime"`
	Communicator   string                 `json:"communicator"`
	SetupDone      bool                   `json:"setupDone"`
	PendingAvisos  int                    `json:"pendingAvisos"`
	Topology       *dispatcher.Topology   `json:"topology,omitempty"`
	Listeners      []fabulatorium.Stats   `json:"listeners"`
	Readings       []peripherique.Reading `json:"readings"`
	MemoryTotal    uint64                 `json:"memoryTotal"`
	MemoryFree     uint64                 `json:"memoryFree"`
	RecentMessages []string               `json:"recentMessages,omitempty"`
}
