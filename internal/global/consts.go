package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgBaseName string = "servus"
	ProgVersion  string = "v0.4.0"
	ProgBuild    string = "180610"

	// Sent in the Agent header of every datagram
	SoftwareVersion string = "Servus 0.4 [" + ProgBuild + "]"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultConfigPath string = "/etc/servus.json"
	DefaultBinaryPath string = "/usr/local/bin/servus"
	ServiceUnitPath   string = "/etc/systemd/system/servus.service"

	// Primus session
	DefaultPrimusPort              int           = 554
	DefaultReconnectInterval       time.Duration = 5 * time.Second
	DefaultSleepIfRejected         time.Duration = 120 * time.Second
	DefaultWaitForResponse         time.Duration = 5000 * time.Millisecond
	DefaultWaitForDatagramComplete time.Duration = 2000 * time.Millisecond

	// Fabulatorium listeners
	DefaultFabulatoriumPort        int           = 5540
	DefaultWaitFirstTransmission   time.Duration = 1000 * time.Millisecond
	DefaultWaitTransmissionDone    time.Duration = 500 * time.Millisecond
	DefaultWaitBeforeNetworkRetry  time.Duration = 60 * time.Second
	DefaultFabulaSeverity          uint16        = 1
	MaximalMessageLength           int           = 2048
	MaximalFabulaLength            int           = 64 * 1024
	AuthenticatorDerivationContext string        = "servus primus authenticator"
	AuthenticatorDerivedLen        int           = 24

	// Sensor stations
	DefaultThermiqueInterval time.Duration = 30 * time.Second
	DefaultHumidityInterval  time.Duration = 60 * time.Second
	DefaultTemperatureEdge   float64       = 0.5
	DefaultHumidityEdge      float64       = 2.0
	DefaultW1DevicePath      string        = "/sys/bus/w1/devices"
	DefaultIIODevicePath     string        = "/sys/bus/iio/devices"

	// Timeout values
	ShutdownTimeout time.Duration = 10 * time.Second

	// Status HTTP server
	HTTPListenPort   int           = 15080
	HTTPListenAddr   string        = "localhost" // Status queries only exposed to local machine
	HTTPReadTimeout  time.Duration = 30 * time.Second
	HTTPWriteTimeout time.Duration = 10 * time.Second
	HTTPIdleTimeout  time.Duration = 180 * time.Second
	DataPath         string        = "/data/"
	DiscoveryPath    string        = "/discover/"
	StatusPath       string        = "/status"
	QueuePath        string        = "/queue"

	// Metrics
	DefaultMetricInterval  time.Duration = 15 * time.Second
	DefaultMetricRetention time.Duration = 1 * time.Hour

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSCLI       string = "CLI"
	NSServus    string = "Servus"
	NSDispatch  string = "Dispatcher"
	NSQueue     string = "Queue"
	NSFabula    string = "Fabulatorium"
	NSListen    string = "Listener"
	NSSession   string = "Session"
	NSStation   string = "Station"
	NSArchive   string = "Archive"
	NSSetup     string = "Setup"
)
