package install

import (
	"encoding/json"
	"fmt"
	"os"
	"servus/internal/daemon"
	"servus/internal/global"
	"strings"

	"golang.org/x/term"
)

func installConfig() (err error) {
	configFilePath := global.DefaultConfigPath

	// Don't overwrite existing
	_, err = os.Stat(configFilePath)
	if err == nil {
		// No terminal - no overwrite
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Printf("Existing configuration file present, not overwriting\n")
			return
		}
		if !confirm(fmt.Sprintf("Configuration file already exists at '%s'. Are you SURE you want to overwrite it? (yes/no): ", configFilePath)) {
			fmt.Printf("Not overwriting configuration file\n")
			return
		}
	}

	authenticator, err := PromptAuthenticator()
	if err != nil {
		return
	}

	err = CreateTemplateConfig(configFilePath, authenticator)
	if err != nil {
		return
	}

	fmt.Printf("Successfully wrote template configuration file to '%s'\n", configFilePath)
	return
}

func uninstallConfig() (err error) {
	err = removeIfPresent(global.DefaultConfigPath)
	if err != nil {
		return
	}

	fmt.Printf("Successfully removed configuration file '%s'\n", global.DefaultConfigPath)
	return
}

// Reads the Primus authenticator without echo. Empty without a terminal.
func PromptAuthenticator() (authenticator string, err error) {
	stdin := int(os.Stdin.Fd())
	if !term.IsTerminal(stdin) {
		return
	}

	fmt.Printf("Primus authenticator (leave empty to generate a derivation seed): ")
	secret, err := term.ReadPassword(stdin)
	fmt.Println()
	if err != nil {
		err = fmt.Errorf("failed reading authenticator: %w", err)
		return
	}
	authenticator = strings.TrimSpace(string(secret))
	return
}

// Writes a template the daemon can load as is.
// Without an authenticator a random seed is generated instead.
func CreateTemplateConfig(filepath string, authenticator string) (err error) {
	if filepath == "" {
		err = fmt.Errorf("specify template file path via the --config/-c arguments")
		return
	}

	var newCfg daemon.JSONConfig
	newCfg.Primus.Address = "primus.example.net"
	newCfg.Primus.Port = global.DefaultPrimusPort
	if authenticator != "" {
		newCfg.Primus.Authenticator = authenticator
	} else {
		newCfg.Primus.AuthenticatorSeed, err = GenerateSeed()
		if err != nil {
			return
		}
	}
	newCfg.Primus.ReconnectInterval = global.DefaultReconnectInterval.String()
	newCfg.Primus.SleepIfRejected = global.DefaultSleepIfRejected.String()
	newCfg.Primus.WaitForResponse = global.DefaultWaitForResponse.String()
	newCfg.Primus.WaitForDatagramCompletion = global.DefaultWaitForDatagramComplete.String()

	newCfg.Fabulatorium.Listeners = []daemon.JSONListener{
		{Name: "local", Interface: "127.0.0.1", Port: global.DefaultFabulatoriumPort, MaxSessions: 32},
	}
	newCfg.Fabulatorium.WaitForFirstTransmission = global.DefaultWaitFirstTransmission.String()
	newCfg.Fabulatorium.WaitForTransmissionCompletion = global.DefaultWaitTransmissionDone.String()
	newCfg.Fabulatorium.WaitBeforeNetworkRetry = global.DefaultWaitBeforeNetworkRetry.String()
	newCfg.Fabulatorium.Fabulators = []daemon.JSONFabulator{
		{Name: "backup", DefaultSeverity: 2, DefaultNotification: true},
	}

	newCfg.Stations.Thermique.Enabled = true
	newCfg.Stations.Thermique.Discover = true
	newCfg.Stations.Thermique.Interval = global.DefaultThermiqueInterval.String()
	newCfg.Stations.Thermique.DevicePath = global.DefaultW1DevicePath
	newCfg.Stations.Humidity.Interval = global.DefaultHumidityInterval.String()
	newCfg.Stations.Humidity.DevicePath = global.DefaultIIODevicePath

	newCfg.Metrics.EnableQueryServer = true
	newCfg.Metrics.QueryServerPort = global.HTTPListenPort
	newCfg.Metrics.Interval = global.DefaultMetricInterval.String()
	newCfg.Metrics.MaxAge = global.DefaultMetricRetention.String()

	confBytes, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		err = fmt.Errorf("error marshaling new config: %w", err)
		return
	}
	confBytes = append(confBytes, []byte("\n")...)

	err = os.WriteFile(filepath, confBytes, 0600)
	if err != nil {
		err = fmt.Errorf("failed to write config to file: %w", err)
		return
	}
	return
}
