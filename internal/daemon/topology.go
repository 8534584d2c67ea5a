package daemon

import (
	"context"
	"servus/internal/dispatcher"
	"servus/internal/global"
	"servus/internal/logctx"
)

// Applies the SETUP document from Primus: title for the status page, sensors for the stations.
// Relays, UPS and hosts are only kept for the status page.
func (daemon *Daemon) ApplyTopology(ctx context.Context, topology dispatcher.Topology) (err error) {
	daemon.mutex.Lock()
	daemon.systemTitle = topology.Title
	daemon.topology = topology
	daemon.mutex.Unlock()

	for _, probe := range topology.DS {
		if daemon.Thermique == nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Ignoring DS sensor '%s': thermique station is disabled\n", probe.Title)
			continue
		}
		edge := probe.TemperatureEdge
		if edge <= 0 {
			edge = global.DefaultTemperatureEdge
		}
		daemon.Thermique.Add(ctx, probe.Token, probe.DeviceID, edge, probe.Title)
	}

	for _, pin := range topology.DHT {
		if daemon.Humidity == nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Ignoring DHT sensor '%s': humidity station is disabled\n", pin.Title)
			continue
		}
		humidityEdge := pin.HumidityEdge
		if humidityEdge <= 0 {
			humidityEdge = global.DefaultHumidityEdge
		}
		temperatureEdge := pin.TemperatureEdge
		if temperatureEdge <= 0 {
			temperatureEdge = global.DefaultTemperatureEdge
		}
		daemon.Humidity.Add(ctx, pin.Token, pin.PinNumber, humidityEdge, temperatureEdge, pin.Title)
	}
	return
}

// Last topology received from Primus
func (daemon *Daemon) Topology() (topology dispatcher.Topology) {
	daemon.mutex.Lock()
	defer daemon.mutex.Unlock()
	topology = daemon.topology
	return
}
