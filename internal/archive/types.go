package archive

import (
	"servus/internal/aviso"
	"sync"
	"sync/atomic"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Mirrors acknowledged avisos to a Logstash/beats endpoint
type Mirror struct {
	Namespace []string
	endpoint  string
	timeout   time.Duration
	mutex     sync.Mutex
	sink      *lumberjack.SyncClient // nil until connected or after a failure
	backlog   chan aviso.Aviso       // delivered avisos waiting for the writer
	Metrics   MetricStorage
}

type MetricStorage struct {
	EventsSent   atomic.Uint64
	SendFailures atomic.Uint64
	Reconnects   atomic.Uint64
	Dropped      atomic.Uint64 // backlog full
}
