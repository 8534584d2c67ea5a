package protocol

const (
	ProtocolToken string = "RTSP/1.0"
	PrimusURI     string = "rtsp://primus"

	// Methods
	MethodAuth     string = "AUTH"
	MethodSetup    string = "SETUP"
	MethodPlay     string = "PLAY"
	MethodNeutrino string = "NEUTRINO"
	MethodFabula   string = "FABULA"

	// Well-known headers
	HeaderCSeq             string = "CSeq"
	HeaderAgent            string = "Agent"
	HeaderAuthenticator    string = "Authenticator"
	HeaderAvisoID          string = "Aviso-Id"
	HeaderTimestamp        string = "Timestamp"
	HeaderSeverity         string = "Severity"
	HeaderNotification     string = "Notification"
	HeaderOriginator       string = "Originator"
	HeaderNeutrinoInterval string = "Neutrino-Interval"
	HeaderReason           string = "Reason"
	HeaderContentLength    string = "Content-Length"
	HeaderToken            string = "Token"
	HeaderTemperature      string = "Temperature"
	HeaderHumidity         string = "Humidity"

	lineBreak string = "\r\n"
)

// Closed set of status codes exchanged by Servus and Primus
type StatusCode int

const (
	StatusOK               StatusCode = 200
	StatusCreated          StatusCode = 201
	StatusBadRequest       StatusCode = 400
	StatusUnauthorized     StatusCode = 401
	StatusForbidden        StatusCode = 403
	StatusMethodNotAllowed StatusCode = 405
)

// Reason phrase for the status line
func (code StatusCode) Text() (text string) {
	switch code {
	case StatusOK:
		text = "OK"
	case StatusCreated:
		text = "Created"
	case StatusBadRequest:
		text = "Bad Request"
	case StatusUnauthorized:
		text = "Unauthorized"
	case StatusForbidden:
		text = "Forbidden"
	case StatusMethodNotAllowed:
		text = "Method Not Allowed"
	default:
		text = "Unknown"
	}
	return
}
