package daemon

import (
	"servus/internal/global"
	"servus/internal/status"
	"time"
)

// Current gateway overview for the status page
func (daemon *Daemon) Report() (report status.Report) {
	daemon.mutex.Lock()
	report.SystemTitle = daemon.systemTitle
	if daemon.Communicator != nil && daemon.Communicator.SetupDone() {
		topology := daemon.topology
		report.Topology = &topology
	}
	daemon.mutex.Unlock()

	report.Version = global.ProgVersion
	report.Hostname = global.Hostname
	report.Started = daemon.started
	report.Uptime = time.Since(daemon.started).Truncate(time.Second).String()

	if daemon.Communicator != nil {
		report.Communicator = daemon.Communicator.State().String()
		report.SetupDone = daemon.Communicator.SetupDone()
	}
	if daemon.Queue != nil {
		report.PendingAvisos = daemon.Queue.Len()
	}
	for _, listener := range daemon.Listeners {
		report.Listeners = append(report.Listeners, listener.Stats())
	}
	if daemon.Thermique != nil {
		report.Readings = append(report.Readings, daemon.Thermique.Readings()...)
	}
	if daemon.Humidity != nil {
		report.Readings = append(report.Readings, daemon.Humidity.Readings()...)
	}
	return
}
