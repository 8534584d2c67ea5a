package peripherique

import (
	"context"
	"errors"
	"servus/internal/aviso"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNoDevice = errors.New("sensor device not found")
	ErrCRC      = errors.New("sensor reading failed crc check")
)

type TemperatureReader interface {
	ReadTemperature(ctx context.Context, deviceID string) (celsius float64, err error)
}

// DHT11/DHT22 on a GPIO pin
type HumidityReader interface {
	ReadHumidity(ctx context.Context, pin int) (humidity float64, celsius float64, err error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, item aviso.Aviso) (id uint64)
}

// DS18B20/DS18S20 probe
type ThermiqueSensor struct {
	Token       string // empty for probes found on the bus but not assigned by Primus
	DeviceID    string
	Title       string
	temperature EdgeTracker
	lastErr     error
}

type HumiditySensor struct {
	Token       string
	PinNumber   int
	Title       string
	humidity    EdgeTracker
	temperature EdgeTracker
	lastErr     error
}

// Periodically refreshes 1-Wire temperature probes
type ThermiqueStation struct {
	Namespace []string
	reader    TemperatureReader
	queue     Enqueuer
	interval  time.Duration
	mutex     sync.Mutex
	sensors   []*ThermiqueSensor
	Metrics   MetricStorage
}

// Periodically refreshes DHT humidity sensors
type HumidityStation struct {
	Namespace []string
	reader    HumidityReader
	queue     Enqueuer
	interval  time.Duration
	mutex     sync.Mutex
	sensors   []*HumiditySensor
	Metrics   MetricStorage
}

type MetricStorage struct {
	Readings       atomic.Uint64
	ReadFailures   atomic.Uint64
	ChangesQueued  atomic.Uint64
	RefreshElapsed atomic.Uint64 // ns spent in the last refresh round
}

// Current state of one measurement for the status server
type Reading struct {
	Kind    string  `json:"kind"`
	Token   string  `json:"token"`
	Title   string  `json:"title"`
	Device  string  `json:"device"`
	Current float64 `json:"current"`
	Lowest  float64 `json:"lowest"`
	Highest float64 `json:"highest"`
	Error   string  `json:"error,omitempty"`
}
