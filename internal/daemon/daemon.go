// Gateway daemon: sensor stations and fabulatorium listeners feed the aviso queue that the communicator delivers to Primus
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"servus/internal/archive"
	"servus/internal/dispatcher"
	"servus/internal/fabulatorium"
	"servus/internal/global"
	"servus/internal/logctx"
	"servus/internal/metrics"
	"servus/internal/peripherique"
	"servus/internal/queue"
	"servus/internal/status"
	"time"
)

// Create new gateway daemon instance. A non-empty configPath is reread on reload.
// The daemon context only exists once Start ran.
func NewDaemon(cfg Config, configPath string) (new *Daemon) {
	new = &Daemon{
		cfg:        cfg,
		configPath: configPath,
	}
	return
}

// Starts every component in background - gracefully shuts down if startup error is encountered
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))

	// Top level tag for daemon logs
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSServus)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	daemon.cfg.setDefaults()
	daemon.started = time.Now()

	global.Hostname, err = os.Hostname()
	if err != nil {
		err = fmt.Errorf("failed to determine local hostname: %w", err)
		return
	}
	global.PID = os.Getpid()

	if daemon.cfg.Primus.Address == "" {
		err = fmt.Errorf("cannot start without a primus address")
		return
	}

	namespace := []string{global.NSServus}

	// Shared aviso queue
	daemon.Queue = queue.New(namespace)

	// Optional archive of delivered avisos
	daemon.Archive = archive.New(namespace, daemon.cfg.BeatsAddress)

	// Stations
	if daemon.cfg.ThermiqueEnabled {
		reader := peripherique.W1Reader{DevicePath: daemon.cfg.ThermiqueDevicePath}
		daemon.Thermique = peripherique.NewThermiqueStation(namespace, reader, daemon.Queue, daemon.cfg.ThermiqueInterval)
		if daemon.cfg.ThermiqueDiscover {
			deviceIDs, discoverErr := reader.Discover()
			if discoverErr != nil {
				logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
					"1-Wire probe discovery failed: %v\n", discoverErr)
			} else {
				daemon.Thermique.AddDiscovered(daemon.ctx, deviceIDs)
			}
		}
		daemon.startWorker(daemon.Thermique.Run)
	}
	if daemon.cfg.HumidityEnabled {
		reader := peripherique.IIOReader{DevicePath: daemon.cfg.HumidityDevicePath}
		daemon.Humidity = peripherique.NewHumidityStation(namespace, reader, daemon.Queue, daemon.cfg.HumidityInterval)
		daemon.startWorker(daemon.Humidity.Run)
	}

	// Fabulatorium listeners
	daemon.Fabulators = fabulatorium.NewRegistry(daemon.ctx, daemon.cfg.Fabulators)
	for _, listenerCfg := range daemon.cfg.Listeners {
		listener := fabulatorium.NewListener(namespace, listenerCfg, daemon.Queue, daemon.Fabulators)
		daemon.Listeners = append(daemon.Listeners, listener)
		daemon.startWorker(listener.Run)
	}

	// Primus communicator
	daemon.Communicator = dispatcher.New(namespace, daemon.cfg.Primus, daemon.Queue, dispatcher.SetupProcessor{Sink: daemon})
	if daemon.Archive != nil {
		daemon.Communicator.OnDelivered = daemon.Archive.Delivered
		daemon.startWorker(daemon.Archive.Run)
	}
	daemon.startWorker(daemon.Communicator.Run)

	// Metrics Collector
	daemon.metricsCollector = metrics.NewGatherer(daemon.collectors,
		daemon.cfg.MetricCollectionInterval,
		daemon.cfg.MetricMaxAge)
	daemon.startWorker(daemon.metricsCollector.Run)

	// Status Server
	if daemon.cfg.MetricQueryServerEnabled {
		serverCtx := logctx.AppendCtxTag(daemon.ctx, global.NSMetricSrv)

		daemon.MetricServer, err = status.SetupListener(serverCtx, daemon.cfg.MetricQueryServerPort, status.Sources{
			Search:   daemon.metricsCollector.Registry.Search,
			Discover: daemon.metricsCollector.Registry.Discover,
			Report:   daemon.Report,
			Queue:    daemon.Queue.Snapshot,
		})
		if err != nil {
			err = fmt.Errorf("failed setting up status server: %w", err)
			daemon.Shutdown()
			return
		}
		server := daemon.MetricServer
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			status.Start(serverCtx, server)
		}()
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Startup complete.\n")
	return
}

// Runs a component loop on the daemon context, tracked for shutdown
func (daemon *Daemon) startWorker(run func(ctx context.Context)) {
	workerCtx := daemon.ctx
	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		run(workerCtx)
	}()
}

// Every component reporting metrics right now
func (daemon *Daemon) collectors() (collectors []metrics.Collector) {
	collectors = append(collectors, daemon.Queue, daemon.Communicator)
	for _, listener := range daemon.Listeners {
		collectors = append(collectors, listener)
	}
	if daemon.Thermique != nil {
		collectors = append(collectors, daemon.Thermique)
	}
	if daemon.Humidity != nil {
		collectors = append(collectors, daemon.Humidity)
	}
	if daemon.Archive != nil {
		collectors = append(collectors, daemon.Archive)
	}
	return
}

// Blocking daemon waiter
func (daemon *Daemon) Run() {
	<-daemon.ctx.Done()
}

// Rereads the configuration file and applies the fabulator definitions.
// Everything else needs a restart.
func (daemon *Daemon) Reload(ctx context.Context) (err error) {
	if daemon.configPath == "" {
		err = fmt.Errorf("daemon was not started from a configuration file")
		return
	}

	jsonCfg, err := LoadConfig(daemon.configPath)
	if err != nil {
		return
	}
	newCfg, err := jsonCfg.NewDaemonConf()
	if err != nil {
		return
	}
	newCfg.setDefaults()

	daemon.Fabulators.Replace(ctx, newCfg.Fabulators)
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Reloaded %d fabulator definitions (other settings apply after restart)\n", daemon.Fabulators.Len())
	return
}

// Gracefully shutdown every component
func (daemon *Daemon) Shutdown() {
	if daemon.cancel == nil {
		return
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	// Draining steps must outlive the daemon context cancellation
	drainCtx := logctx.OverwriteCtxTag(context.Background(), logctx.GetTagList(daemon.ctx))
	drainCtx = logctx.WithLogger(drainCtx, logctx.GetLogger(daemon.ctx))

	// Stop status server
	if daemon.MetricServer != nil {
		serverCtx, cancel := context.WithTimeout(drainCtx, global.ShutdownTimeout)
		err := daemon.MetricServer.Shutdown(serverCtx)
		cancel()
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"status HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	// Stop accepting fabulas before the communicator goes away
	for _, listener := range daemon.Listeners {
		listener.Shutdown(drainCtx)
	}

	pending := 0
	if daemon.Queue != nil {
		pending = daemon.Queue.Len()
	}

	// Stop the communicator, stations and collector
	daemon.cancel()

	// Wait for all workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(global.ShutdownTimeout):
		logctx.LogEvent(drainCtx, global.VerbosityStandard, global.WarnLog,
			"Timeout: daemon workers did not shutdown within %v seconds\n",
			global.ShutdownTimeout.Seconds())
	}

	if daemon.Archive != nil {
		err := daemon.Archive.Shutdown()
		if err != nil {
			logctx.LogEvent(drainCtx, global.VerbosityStandard, global.WarnLog,
				"archive connection did not close cleanly: %v\n", err)
		}
	}

	if pending > 0 {
		logctx.LogEvent(drainCtx, global.VerbosityStandard, global.WarnLog,
			"%d avisos were not delivered to primus\n", pending)
	}
	logctx.LogEvent(drainCtx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown completed\n")
}
