package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"servus/internal/global"
	"servus/internal/logctx"
)

// What Primus assigns to this servus in its SETUP response
type Topology struct {
	Title  string    `json:"Title"`
	UPS    []UPS     `json:"UPS"`
	Hosts  []Host    `json:"Hosts"`
	Relays []Relay   `json:"Relays"`
	DS     []DSProbe `json:"DS"`
	DHT    []DHTPin  `json:"DHT"`
}

type UPS struct {
	Token string `json:"Token"`
	Title string `json:"Title"`
}

type Host struct {
	Token    string `json:"Token"`
	HostName string `json:"HostName"`
	Interval int    `json:"Interval"` // seconds
	Retries  int    `json:"Retries"`
}

type Relay struct {
	Token        string `json:"Token"`
	PinNumber    int    `json:"PinNumber"`
	DefaultState bool   `json:"DefaultState"`
	Title        string `json:"Title"`
}

// DS18B20/DS18S20 on the 1-Wire bus
type DSProbe struct {
	Token           string  `json:"Token"`
	DeviceID        string  `json:"DeviceId"`
	TemperatureEdge float64 `json:"TemperatureEdge"`
	Title           string  `json:"Title"`
}

type DHTPin struct {
	Token           string  `json:"Token"`
	PinNumber       int     `json:"PinNumber"`
	HumidityEdge    float64 `json:"HumidityEdge"`
	TemperatureEdge float64 `json:"TemperatureEdge"`
	Title           string  `json:"Title"`
}

type setupDocument struct {
	Servus *Topology `json:"Servus"`
}

// Applies a decoded topology (stations, status page)
type TopologySink interface {
	ApplyTopology(ctx context.Context, topology Topology) (err error)
}

// ConfigurationProcessor decoding the SETUP body and handing it to a sink
type SetupProcessor struct {
	Sink TopologySink
}

func (processor SetupProcessor) ProcessConfiguration(ctx context.Context, body []byte) (err error) {
	topology, err := ProcessConfigurationJSON(ctx, body)
	if err != nil {
		return
	}
	if processor.Sink != nil {
		err = processor.Sink.ApplyTopology(ctx, topology)
	}
	return
}

// Decodes the Primus configuration document for this servus
func ProcessConfigurationJSON(ctx context.Context, body []byte) (topology Topology, err error) {
	ctx = logctx.AppendCtxTag(ctx, global.NSSetup)

	var document setupDocument
	err = json.Unmarshal(body, &document)
	if err != nil {
		err = fmt.Errorf("invalid configuration document: %v", err)
		return
	}
	if document.Servus == nil {
		err = fmt.Errorf("configuration document has no Servus object")
		return
	}
	topology = *document.Servus

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Received configuration for servus '%s'\n", topology.Title)

	if topology.UPS == nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Nothing defined for 'UPS'\n")
	}
	for _, ups := range topology.UPS {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Setup UPS '%s'\n", ups.Title)
	}

	if topology.Hosts == nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Nothing defined for 'Hosts'\n")
	}
	for _, host := range topology.Hosts {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Setup host '%s' with interval %d seconds and %d retries\n", host.HostName, host.Interval, host.Retries)
	}

	if topology.Relays == nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Nothing defined for 'Relays'\n")
	}
	for _, relay := range topology.Relays {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Setup relay '%s' on GPIO pin %d\n", relay.Title, relay.PinNumber)
	}

	if topology.DS == nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Nothing defined for 'DS18B20/DS18S20'\n")
	}
	for _, probe := range topology.DS {
		if probe.Token == "" || probe.DeviceID == "" {
			err = fmt.Errorf("DS sensor '%s' lacks token or device id", probe.Title)
			return
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Setup DS18B20/DS18S20 sensor '%s' with device id %s and edge %0.1f\n",
			probe.Title, probe.DeviceID, probe.TemperatureEdge)
	}

	if topology.DHT == nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Nothing defined for 'DHT'\n")
	}
	for _, dht := range topology.DHT {
		if dht.Token == "" {
			err = fmt.Errorf("DHT sensor '%s' lacks token", dht.Title)
			return
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Setup DHT sensor '%s' on GPIO pin %d\n", dht.Title, dht.PinNumber)
	}
	return
}
