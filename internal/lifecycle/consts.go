package lifecycle

const (
	EnvNameNotifySocket string = "NOTIFY_SOCKET"
	ReloadFailedStatus  string = "Reload failed, check daemon logs"
)
