package daemon

import (
	"context"
	"net/http"
	"servus/internal/archive"
	"servus/internal/dispatcher"
	"servus/internal/fabulatorium"
	"servus/internal/metrics"
	"servus/internal/peripherique"
	"servus/internal/queue"
	"sync"
	"time"
)

type JSONConfig struct {
	Primus struct {
		Address                   string `json:"address"`
		Port                      int    `json:"port,omitempty"`
		Authenticator             string `json:"authenticator,omitempty"`
		AuthenticatorSeed         string `json:"authenticatorSeed,omitempty"`
		ReconnectInterval         string `json:"reconnectInterval,omitempty"`
		SleepIfRejected           string `json:"sleepIfRejectedByPrimus,omitempty"`
		WaitForResponse           string `json:"waitForResponse,omitempty"`
		WaitForDatagramCompletion string `json:"waitForDatagramCompletion,omitempty"`
	} `json:"primus"`
	Fabulatorium struct {
		Listeners                     []JSONListener  `json:"listeners"`
		WaitForFirstTransmission      string          `json:"waitForFirstTransmission,omitempty"`
		WaitForTransmissionCompletion string          `json:"waitForTransmissionCompletion,omitempty"`
		WaitBeforeNetworkRetry        string          `json:"waitBeforeNetworkRetry,omitempty"`
		Fabulators                    []JSONFabulator `json:"fabulators,omitempty"`
	} `json:"fabulatorium"`
	Stations struct {
		Thermique struct {
			Enabled    bool   `json:"enabled"`
			Interval   string `json:"interval,omitempty"`
			DevicePath string `json:"devicePath,omitempty"`
			Discover   bool   `json:"discoverProbes,omitempty"`
		} `json:"thermique"`
		Humidity struct {
			Enabled    bool   `json:"enabled"`
			Interval   string `json:"interval,omitempty"`
			DevicePath string `json:"devicePath,omitempty"`
		} `json:"humidity"`
	} `json:"stations"`
	Archive struct {
		BeatsAddress string `json:"beatsAddress,omitempty"`
	} `json:"archive"`
	Metrics struct {
		Interval          string `json:"collectionInterval,omitempty"`
		MaxAge            string `json:"maximumRetention,omitempty"`
		EnableQueryServer bool   `json:"enableHTTPQueryServer"`
		QueryServerPort   int    `json:"HTTPQueryServerPort,omitempty"`
	} `json:"metrics"`
}

type JSONListener struct {
	Name        string `json:"name"`
	Interface   string `json:"interface,omitempty"`
	Port        int    `json:"port,omitempty"`
	MaxSessions int    `json:"maxSessions,omitempty"`
}

type JSONFabulator struct {
	Name                string `json:"name"`
	DefaultSeverity     uint16 `json:"defaultSeverity,omitempty"`
	DefaultNotification bool   `json:"defaultNotification,omitempty"`
}

type Config struct {
	// Primus
	Primus dispatcher.Config

	// Fabulatorium
	Listeners  []fabulatorium.Config
	Fabulators []fabulatorium.Fabulator

	// Stations
	ThermiqueEnabled    bool
	ThermiqueInterval   time.Duration
	ThermiqueDevicePath string
	ThermiqueDiscover   bool
	HumidityEnabled     bool
	HumidityInterval    time.Duration
	HumidityDevicePath  string

	// Archive
	BeatsAddress string

	// Metrics
	MetricQueryServerEnabled bool
	MetricQueryServerPort    int
	MetricCollectionInterval time.Duration
	MetricMaxAge             time.Duration
}

type Daemon struct {
	cfg        Config
	configPath string // reread on reload, empty when started from memory
	ctx        context.Context
	cancel     context.CancelFunc
	started    time.Time

	wg sync.WaitGroup

	mutex       sync.Mutex
	systemTitle string
	topology    dispatcher.Topology

	Queue        *queue.Queue
	Communicator *dispatcher.Communicator
	Fabulators   *fabulatorium.Registry
	Listeners    []*fabulatorium.Listener
	Thermique    *peripherique.ThermiqueStation
	Humidity     *peripherique.HumidityStation
	Archive      *archive.Mirror

	metricsCollector *metrics.Gatherer
	MetricServer     *http.Server
}
