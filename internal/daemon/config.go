package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"servus/internal/crypto/hkdf"
	"servus/internal/dispatcher"
	"servus/internal/fabulatorium"
	"servus/internal/global"
	"time"

	"github.com/tidwall/jsonc"
)

// Loads JSON config from file (comments and trailing commas allowed)
func LoadConfig(path string) (cfg JSONConfig, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	err = json.Unmarshal(jsonc.ToJSON(configFile), &cfg)
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}

	return
}

// Parses JSON config into daemon config
func (cfg JSONConfig) NewDaemonConf() (config Config, err error) {
	// Primus session
	if cfg.Primus.Address == "" {
		err = fmt.Errorf("primus address is required")
		return
	}
	config.Primus = dispatcher.Config{
		Address:       cfg.Primus.Address,
		Port:          cfg.Primus.Port,
		Authenticator: cfg.Primus.Authenticator,
	}
	if cfg.Primus.AuthenticatorSeed != "" {
		if cfg.Primus.Authenticator != "" {
			err = fmt.Errorf("authenticator and authenticatorSeed are mutually exclusive")
			return
		}
		var hostname string
		hostname, err = os.Hostname()
		if err != nil {
			err = fmt.Errorf("failed to determine local hostname: %w", err)
			return
		}
		config.Primus.Authenticator, err = hkdf.DeriveAuthenticator(cfg.Primus.AuthenticatorSeed, hostname)
		if err != nil {
			return
		}
	}

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"primus reconnect interval", cfg.Primus.ReconnectInterval, &config.Primus.ReconnectInterval},
		{"primus rejection backoff", cfg.Primus.SleepIfRejected, &config.Primus.SleepIfRejected},
		{"primus response wait", cfg.Primus.WaitForResponse, &config.Primus.WaitForResponse},
		{"primus datagram completion wait", cfg.Primus.WaitForDatagramCompletion, &config.Primus.WaitForDatagramCompletion},
		{"thermique interval", cfg.Stations.Thermique.Interval, &config.ThermiqueInterval},
		{"humidity interval", cfg.Stations.Humidity.Interval, &config.HumidityInterval},
		{"metric max age", cfg.Metrics.MaxAge, &config.MetricMaxAge},
		{"metric collection interval", cfg.Metrics.Interval, &config.MetricCollectionInterval},
	}
	for _, duration := range durations {
		*duration.target, err = parseOptionalDuration(duration.raw)
		if err != nil {
			err = fmt.Errorf("failed to parse %s: %w", duration.name, err)
			return
		}
	}

	// Fabulatorium timings are shared by every listener
	var firstTransmission, transmissionCompletion, networkRetry time.Duration
	firstTransmission, err = parseOptionalDuration(cfg.Fabulatorium.WaitForFirstTransmission)
	if err != nil {
		err = fmt.Errorf("failed to parse fabulatorium first transmission wait: %w", err)
		return
	}
	transmissionCompletion, err = parseOptionalDuration(cfg.Fabulatorium.WaitForTransmissionCompletion)
	if err != nil {
		err = fmt.Errorf("failed to parse fabulatorium transmission completion wait: %w", err)
		return
	}
	networkRetry, err = parseOptionalDuration(cfg.Fabulatorium.WaitBeforeNetworkRetry)
	if err != nil {
		err = fmt.Errorf("failed to parse fabulatorium network retry wait: %w", err)
		return
	}

	names := make(map[string]bool)
	for index, listener := range cfg.Fabulatorium.Listeners {
		name := listener.Name
		if name == "" {
			name = fmt.Sprintf("fabulatorium%d", index)
		}
		if names[name] {
			err = fmt.Errorf("duplicate fabulatorium listener name '%s'", name)
			return
		}
		names[name] = true

		if listener.MaxSessions < 0 {
			err = fmt.Errorf("fabulatorium listener '%s' has negative session limit", name)
			return
		}

		config.Listeners = append(config.Listeners, fabulatorium.Config{
			Name:                          name,
			Interface:                     listener.Interface,
			Port:                          listener.Port,
			WaitForFirstTransmission:      firstTransmission,
			WaitForTransmissionCompletion: transmissionCompletion,
			WaitBeforeNetworkRetry:        networkRetry,
			MaxSessions:                   listener.MaxSessions,
		})
	}

	for _, fabulator := range cfg.Fabulatorium.Fabulators {
		if fabulator.Name == "" {
			err = fmt.Errorf("fabulator definition without name")
			return
		}
		config.Fabulators = append(config.Fabulators, fabulatorium.Fabulator{
			Name:                fabulator.Name,
			DefaultSeverity:     fabulator.DefaultSeverity,
			DefaultNotification: fabulator.DefaultNotification,
		})
	}

	// Stations
	config.ThermiqueEnabled = cfg.Stations.Thermique.Enabled
	config.ThermiqueDevicePath = cfg.Stations.Thermique.DevicePath
	config.ThermiqueDiscover = cfg.Stations.Thermique.Discover
	config.HumidityEnabled = cfg.Stations.Humidity.Enabled
	config.HumidityDevicePath = cfg.Stations.Humidity.DevicePath

	// Archive
	config.BeatsAddress = cfg.Archive.BeatsAddress

	// Metric settings
	config.MetricQueryServerEnabled = cfg.Metrics.EnableQueryServer
	config.MetricQueryServerPort = cfg.Metrics.QueryServerPort

	return
}

// Empty means default (zero)
func parseOptionalDuration(raw string) (duration time.Duration, err error) {
	if raw == "" {
		return
	}
	duration, err = time.ParseDuration(raw)
	if err == nil && duration < 0 {
		err = fmt.Errorf("negative duration %s", raw)
	}
	return
}

// Sets defaults for any missing/invalid values
func (cfg *Config) setDefaults() {
	// Primus
	if cfg.Primus.Port == 0 {
		cfg.Primus.Port = global.DefaultPrimusPort
	}
	if cfg.Primus.ReconnectInterval == 0 {
		cfg.Primus.ReconnectInterval = global.DefaultReconnectInterval
	}
	if cfg.Primus.SleepIfRejected == 0 {
		cfg.Primus.SleepIfRejected = global.DefaultSleepIfRejected
	}
	if cfg.Primus.WaitForResponse == 0 {
		cfg.Primus.WaitForResponse = global.DefaultWaitForResponse
	}
	if cfg.Primus.WaitForDatagramCompletion == 0 {
		cfg.Primus.WaitForDatagramCompletion = global.DefaultWaitForDatagramComplete
	}

	// Fabulatorium
	for index := range cfg.Listeners {
		listener := &cfg.Listeners[index]
		if listener.Port == 0 {
			listener.Port = global.DefaultFabulatoriumPort
		}
		if listener.WaitForFirstTransmission == 0 {
			listener.WaitForFirstTransmission = global.DefaultWaitFirstTransmission
		}
		if listener.WaitForTransmissionCompletion == 0 {
			listener.WaitForTransmissionCompletion = global.DefaultWaitTransmissionDone
		}
		if listener.WaitBeforeNetworkRetry == 0 {
			listener.WaitBeforeNetworkRetry = global.DefaultWaitBeforeNetworkRetry
		}
	}
	for index := range cfg.Fabulators {
		if cfg.Fabulators[index].DefaultSeverity == 0 {
			cfg.Fabulators[index].DefaultSeverity = global.DefaultFabulaSeverity
		}
	}

	// Stations
	if cfg.ThermiqueInterval == 0 {
		cfg.ThermiqueInterval = global.DefaultThermiqueInterval
	}
	if cfg.ThermiqueDevicePath == "" {
		cfg.ThermiqueDevicePath = global.DefaultW1DevicePath
	}
	if cfg.HumidityInterval == 0 {
		cfg.HumidityInterval = global.DefaultHumidityInterval
	}
	if cfg.HumidityDevicePath == "" {
		cfg.HumidityDevicePath = global.DefaultIIODevicePath
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = global.DefaultMetricRetention
	}
	if cfg.MetricQueryServerPort == 0 {
		cfg.MetricQueryServerPort = global.HTTPListenPort
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = global.DefaultMetricInterval
	}
}
