package dispatcher

import (
	"context"
	"servus/internal/aviso"
	"servus/internal/network"
	"servus/internal/queue"
	"sync/atomic"
	"time"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateConfiguring
	StatePlaying
)

func (state State) String() (text string) {
	switch state {
	case StateDisconnected:
		text = "disconnected"
	case StateConnecting:
		text = "connecting"
	case StateAuthenticating:
		text = "authenticating"
	case StateConfiguring:
		text = "configuring"
	case StatePlaying:
		text = "playing"
	default:
		text = "unknown"
	}
	return
}

// Primus endpoint and session timing
type Config struct {
	Address                   string
	Port                      int
	Authenticator             string
	SleepIfRejected           time.Duration // backoff after 401/403
	ReconnectInterval         time.Duration // backoff after any other failure
	WaitForResponse           time.Duration // dial timeout and first poll for AUTH/SETUP responses
	WaitForDatagramCompletion time.Duration // poll between chunks of one datagram
}

// Consumes the JSON document Primus returns to SETUP
type ConfigurationProcessor interface {
	ProcessConfiguration(ctx context.Context, body []byte) (err error)
}

type dialFunc func(ctx context.Context, address string, port int, timeout time.Duration) (*network.Conn, error)

// Returns false when ctx ended before the duration passed
type sleepFunc func(ctx context.Context, duration time.Duration) (completed bool)

// Outbound session with Primus
type Communicator struct {
	Namespace []string
	cfg       Config
	queue     *queue.Queue
	processor ConfigurationProcessor

	// Called after Primus acknowledged an aviso, before the next one is sent
	OnDelivered func(ctx context.Context, item aviso.Aviso)

	dial  dialFunc
	sleep sleepFunc

	receiveBuffer []byte
	state         atomic.Int32
	setupDone     atomic.Bool // survives reconnects

	Metrics MetricStorage
}

// Per connection
type session struct {
	conn     *network.Conn
	cseq     uint64 // CSeq of the next request
	leftover []byte // bytes received past the last response
}

type MetricStorage struct {
	Connects        atomic.Uint64
	Rejections      atomic.Uint64
	SessionFailures atomic.Uint64
	DatagramsSent   atomic.Uint64
	NeutrinosSent   atomic.Uint64
	AvisosSent      atomic.Uint64
	AvisosAcked     atomic.Uint64
}
