package peripherique

import (
	"context"
	"fmt"
	"servus/internal/aviso"
	"servus/internal/global"
	"servus/internal/logctx"
	"time"
)

func NewHumidityStation(namespace []string, reader HumidityReader, queue Enqueuer, interval time.Duration) (new *HumidityStation) {
	new = &HumidityStation{
		Namespace: append(append([]string(nil), namespace...), global.NSStation, "Humidity"),
		reader:    reader,
		queue:     queue,
		interval:  interval,
	}
	return
}

func (station *HumidityStation) Add(ctx context.Context, token string, pin int, humidityEdge, temperatureEdge float64, title string) {
	station.mutex.Lock()
	defer station.mutex.Unlock()

	for _, sensor := range station.sensors {
		if sensor.PinNumber == pin {
			sensor.Token = token
			sensor.Title = title
			sensor.humidity.Edge = humidityEdge
			sensor.temperature.Edge = temperatureEdge
			return
		}
	}

	station.sensors = append(station.sensors, &HumiditySensor{
		Token:       token,
		PinNumber:   pin,
		Title:       title,
		humidity:    NewEdgeTracker(humidityEdge),
		temperature: NewEdgeTracker(temperatureEdge),
	})
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Defined humidity sensor '%s'\n", title)
}

func (station *HumidityStation) Len() (count int) {
	station.mutex.Lock()
	defer station.mutex.Unlock()
	count = len(station.sensors)
	return
}

// Humidity and temperature are tracked separately, each change is its own aviso
func (station *HumidityStation) RefreshOnce(ctx context.Context) {
	start := time.Now()
	station.mutex.Lock()
	defer station.mutex.Unlock()

	for _, sensor := range station.sensors {
		if ctx.Err() != nil {
			return
		}

		humidity, celsius, err := station.reader.ReadHumidity(ctx, sensor.PinNumber)
		sensor.lastErr = err
		if err != nil {
			station.Metrics.ReadFailures.Add(1)
			logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
				"Cannot refresh humidity sensor '%s': %v\n", sensor.Title, err)
			continue
		}
		station.Metrics.Readings.Add(1)

		previous := sensor.humidity.Current()
		if sensor.humidity.Observe(humidity) {
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
				"Humidity of '%s' has changed: %.2f -> %.2f (%.2f / %.2f)\n",
				sensor.Title, previous, humidity, sensor.humidity.Lowest(), sensor.humidity.Highest())
			station.queue.Enqueue(ctx, aviso.NewDHTHumidity(sensor.Token, humidity))
			station.Metrics.ChangesQueued.Add(1)
		}

		previous = sensor.temperature.Current()
		if sensor.temperature.Observe(celsius) {
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
				"Temperature of '%s' has changed: %.2f -> %.2f (%.2f / %.2f)\n",
				sensor.Title, previous, celsius, sensor.temperature.Lowest(), sensor.temperature.Highest())
			station.queue.Enqueue(ctx, aviso.NewDHTTemperature(sensor.Token, celsius))
			station.Metrics.ChangesQueued.Add(1)
		}
	}
	station.Metrics.RefreshElapsed.Store(uint64(time.Since(start)))
}

func (station *HumidityStation) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSStation)
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Humidity station started\n")

	runStation(ctx, station.interval, station.RefreshOnce)
}

func (station *HumidityStation) Readings() (readings []Reading) {
	station.mutex.Lock()
	defer station.mutex.Unlock()

	for _, sensor := range station.sensors {
		var errText string
		if sensor.lastErr != nil {
			errText = sensor.lastErr.Error()
		}
		device := fmt.Sprintf("gpio%d", sensor.PinNumber)
		readings = append(readings,
			Reading{
				Kind:    string(aviso.TypeDHTHumidity),
				Token:   sensor.Token,
				Title:   sensor.Title,
				Device:  device,
				Current: sensor.humidity.Current(),
				Lowest:  sensor.humidity.Lowest(),
				Highest: sensor.humidity.Highest(),
				Error:   errText,
			},
			Reading{
				Kind:    string(aviso.TypeDHTTemperature),
				Token:   sensor.Token,
				Title:   sensor.Title,
				Device:  device,
				Current: sensor.temperature.Current(),
				Lowest:  sensor.temperature.Lowest(),
				Highest: sensor.temperature.Highest(),
				Error:   errText,
			})
	}
	return
}
