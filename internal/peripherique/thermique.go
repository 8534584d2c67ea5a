package peripherique

import (
	"context"
	"runtime/debug"
	"servus/internal/aviso"
	"servus/internal/global"
	"servus/internal/logctx"
	"time"
)

func NewThermiqueStation(namespace []string, reader TemperatureReader, queue Enqueuer, interval time.Duration) (new *ThermiqueStation) {
	new = &ThermiqueStation{
		Namespace: append(append([]string(nil), namespace...), global.NSStation, "Thermique"),
		reader:    reader,
		queue:     queue,
		interval:  interval,
	}
	return
}

// Defines a probe, or updates token, edge and title when the device is already known
func (station *ThermiqueStation) Add(ctx context.Context, token, deviceID string, edge float64, title string) {
	station.mutex.Lock()
	defer station.mutex.Unlock()

	for _, sensor := range station.sensors {
		if sensor.DeviceID == deviceID {
			sensor.Token = token
			sensor.Title = title
			sensor.temperature.Edge = edge
			return
		}
	}

	station.sensors = append(station.sensors, &ThermiqueSensor{
		Token:       token,
		DeviceID:    deviceID,
		Title:       title,
		temperature: NewEdgeTracker(edge),
	})
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Defined thermique sensor '%s'\n", title)
}

// Registers bus probes nobody configured; they are tracked but never reported
func (station *ThermiqueStation) AddDiscovered(ctx context.Context, deviceIDs []string) {
	for _, deviceID := range deviceIDs {
		if station.known(deviceID) {
			continue
		}
		station.Add(ctx, "", deviceID, global.DefaultTemperatureEdge, "Unnamed probe "+deviceID)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Detected non-configured thermique sensor %s\n", deviceID)
	}
}

func (station *ThermiqueStation) known(deviceID string) (found bool) {
	station.mutex.Lock()
	defer station.mutex.Unlock()
	for _, sensor := range station.sensors {
		if sensor.DeviceID == deviceID {
			found = true
			return
		}
	}
	return
}

func (station *ThermiqueStation) Len() (count int) {
	station.mutex.Lock()
	defer station.mutex.Unlock()
	count = len(station.sensors)
	return
}

// Reads every probe once and enqueues a DS temperature aviso per reported change
func (station *ThermiqueStation) RefreshOnce(ctx context.Context) {
	start := time.Now()
	station.mutex.Lock()
	defer station.mutex.Unlock()

	for _, sensor := range station.sensors {
		if ctx.Err() != nil {
			return
		}

		celsius, err := station.reader.ReadTemperature(ctx, sensor.DeviceID)
		sensor.lastErr = err
		if err != nil {
			station.Metrics.ReadFailures.Add(1)
			logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
				"Cannot refresh thermique sensor '%s': %v\n", sensor.Title, err)
			continue
		}
		station.Metrics.Readings.Add(1)

		previous := sensor.temperature.Current()
		if !sensor.temperature.Observe(celsius) {
			continue
		}
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"Temperature of '%s' has changed: %.2f -> %.2f (%.2f / %.2f)\n",
			sensor.Title, previous, celsius, sensor.temperature.Lowest(), sensor.temperature.Highest())

		if sensor.Token == "" {
			continue
		}
		station.queue.Enqueue(ctx, aviso.NewDSTemperature(sensor.Token, celsius))
		station.Metrics.ChangesQueued.Add(1)
	}
	station.Metrics.RefreshElapsed.Store(uint64(time.Since(start)))
}

// Refreshes until ctx is cancelled
func (station *ThermiqueStation) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSStation)
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Thermique station started\n")

	runStation(ctx, station.interval, station.RefreshOnce)
}

func (station *ThermiqueStation) Readings() (readings []Reading) {
	station.mutex.Lock()
	defer station.mutex.Unlock()

	for _, sensor := range station.sensors {
		reading := Reading{
			Kind:    string(aviso.TypeDSTemperature),
			Token:   sensor.Token,
			Title:   sensor.Title,
			Device:  sensor.DeviceID,
			Current: sensor.temperature.Current(),
			Lowest:  sensor.temperature.Lowest(),
			Highest: sensor.temperature.Highest(),
		}
		if sensor.lastErr != nil {
			reading.Error = sensor.lastErr.Error()
		}
		readings = append(readings, reading)
	}
	return
}

// Shared refresh loop: one round, then wait for the interval or cancellation
func runStation(ctx context.Context, interval time.Duration, refresh func(ctx context.Context)) {
	for {
		func() {
			defer func() {
				if fatalError := recover(); fatalError != nil {
					stack := debug.Stack()
					logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
						"panic in sensor station: %v\n%s", fatalError, stack)
				}
			}()
			refresh(ctx)
		}()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
