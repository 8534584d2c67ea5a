package fabulatorium

import (
	"context"
	"net"
	"servus/internal/aviso"
	"servus/internal/network"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	Name                          string
	Interface                     string // IP address or interface name, empty for all
	Port                          int
	WaitForFirstTransmission      time.Duration
	WaitForTransmissionCompletion time.Duration
	WaitBeforeNetworkRetry        time.Duration
	MaxSessions                   int // 0 is unlimited
}

// Destination of accepted fabulas
type Enqueuer interface {
	Enqueue(ctx context.Context, item aviso.Aviso) (id uint64)
}

// Known reporting agent and the values assumed when it omits them
type Fabulator struct {
	Name                string
	DefaultSeverity     uint16
	DefaultNotification bool
}

// Read-only after construction
type Registry struct {
	mutex      sync.RWMutex
	fabulators map[string]Fabulator
}

// Accepts fabulator connections on one address
type Listener struct {
	Namespace  []string
	cfg        Config
	queue      Enqueuer
	fabulators *Registry

	mutex    sync.Mutex
	socket   net.Listener
	sessions map[string]*Session
	closing  atomic.Bool
	wg       sync.WaitGroup

	Metrics MetricStorage // interval counters
	totals  MetricStorage // since start, for the status page
}

// One fabulator connection
type Session struct {
	ID            string
	conn          *network.Conn
	listener      *Listener
	expectedCSeq  uint64
	receiveBuffer []byte
	leftover      []byte
}

type MetricStorage struct {
	ReceivedFabulas   atomic.Uint64
	ReceivedBytes     atomic.Uint64
	RejectedDatagrams atomic.Uint64
	SessionsOpened    atomic.Uint64
	SessionsRefused   atomic.Uint64
	ActiveSessions    atomic.Uint64 // gauge
	PeakSessions      atomic.Uint64 // highest concurrent sessions in the interval
}

// Snapshot for the status server
type Stats struct {
	Name              string `json:"name"`
	Address           string `json:"address"`
	Listening         bool   `json:"listening"`
	ActiveSessions    uint64 `json:"activeSessions"`
	TotalSessions     uint64 `json:"totalSessions"`
	RefusedSessions   uint64 `json:"refusedSessions"`
	ReceivedFabulas   uint64 `json:"receivedFabulas"`
	ReceivedBytes     uint64 `json:"receivedBytes"`
	RejectedDatagrams uint64 `json:"rejectedDatagrams"`
}
