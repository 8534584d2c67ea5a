// Inbound fabula service: listeners accepting fabulator connections and the per-connection session protocol
package fabulatorium

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"servus/internal/atomics"
	"servus/internal/global"
	"servus/internal/logctx"
	"servus/internal/network"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

func NewListener(namespace []string, cfg Config, queue Enqueuer, fabulators *Registry) (new *Listener) {
	new = &Listener{
		Namespace:  append(append([]string(nil), namespace...), global.NSFabula, cfg.Name),
		cfg:        cfg,
		queue:      queue,
		fabulators: fabulators,
		sessions:   make(map[string]*Session),
	}
	return
}

func (listener *Listener) Name() (name string) {
	name = listener.cfg.Name
	return
}

// Bound address, empty while not listening
func (listener *Listener) Addr() (addr string) {
	listener.mutex.Lock()
	defer listener.mutex.Unlock()
	if listener.socket != nil {
		addr = listener.socket.Addr().String()
	}
	return
}

// Binds and accepts until ctx is cancelled or Shutdown is called. Socket failures rebind after a pause.
func (listener *Listener) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSFabula)
	ctx = logctx.AppendCtxTag(ctx, listener.cfg.Name)

	for {
		if ctx.Err() != nil || listener.closing.Load() {
			return
		}

		err := listener.serve(ctx)
		if ctx.Err() != nil || listener.closing.Load() {
			return
		}

		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"%v, retrying in %v\n", err, listener.cfg.WaitBeforeNetworkRetry)

		timer := time.NewTimer(listener.cfg.WaitBeforeNetworkRetry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// One bound socket, until accept fails
func (listener *Listener) serve(ctx context.Context) (err error) {
	address, err := network.ResolveInterface(listener.cfg.Interface)
	if err != nil {
		return
	}

	socket, err := network.Listen(ctx, address, listener.cfg.Port)
	if err != nil {
		return
	}

	listener.mutex.Lock()
	if listener.closing.Load() {
		listener.mutex.Unlock()
		socket.Close()
		return
	}
	listener.socket = socket
	listener.mutex.Unlock()

	defer func() {
		listener.mutex.Lock()
		listener.socket = nil
		listener.mutex.Unlock()
		socket.Close()
	}()

	stop := context.AfterFunc(ctx, func() { socket.Close() })
	defer stop()

	shownAddress := address
	if shownAddress == "" {
		shownAddress = "*"
	}
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Listening for fabulas on %s port %d\n", shownAddress, listener.cfg.Port)

	for {
		var conn net.Conn
		conn, err = socket.Accept()
		if err != nil {
			if ctx.Err() != nil || listener.closing.Load() {
				err = nil
				return
			}
			if errors.Is(err, net.ErrClosed) {
				err = fmt.Errorf("listener socket closed unexpectedly")
				return
			}
			err = fmt.Errorf("accept failed: %v", err)
			return
		}

		if listener.cfg.MaxSessions > 0 && listener.Metrics.ActiveSessions.Load() >= uint64(listener.cfg.MaxSessions) {
			listener.count(func(m *MetricStorage) *atomic.Uint64 { return &m.SessionsRefused }, 1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Refusing connection from %s: %d sessions already active\n",
				conn.RemoteAddr().String(), listener.cfg.MaxSessions)
			conn.Close()
			continue
		}

		listener.startSession(ctx, conn)
	}
}

func (listener *Listener) startSession(ctx context.Context, conn net.Conn) {
	session := &Session{
		ID:            uuid.New().String(),
		conn:          network.Wrap(conn),
		listener:      listener,
		expectedCSeq:  1,
		receiveBuffer: make([]byte, global.MaximalFabulaLength),
	}

	listener.mutex.Lock()
	if listener.closing.Load() {
		listener.mutex.Unlock()
		conn.Close()
		return
	}
	listener.sessions[session.ID] = session
	listener.wg.Add(1)
	active := listener.Metrics.ActiveSessions.Add(1)
	listener.mutex.Unlock()

	atomics.StoreMax(&listener.Metrics.PeakSessions, active)
	listener.count(func(m *MetricStorage) *atomic.Uint64 { return &m.SessionsOpened }, 1)

	sessionCtx := logctx.AppendCtxTag(ctx, global.NSSession)
	sessionCtx = logctx.AppendCtxTag(sessionCtx, session.ID)

	go func() {
		defer listener.wg.Done()
		defer func() {
			listener.mutex.Lock()
			delete(listener.sessions, session.ID)
			listener.mutex.Unlock()
			atomics.DecrementFloor(&listener.Metrics.ActiveSessions)
		}()
		defer func() {
			if fatalError := recover(); fatalError != nil {
				stack := debug.Stack()
				logctx.LogEvent(sessionCtx, global.VerbosityStandard, global.ErrorLog,
					"panic in fabulatorium session: %v\n%s", fatalError, stack)
			}
		}()

		logctx.LogEvent(sessionCtx, global.VerbosityData, global.InfoLog,
			"Connection from %s\n", session.conn.RemoteAddr())
		session.Run(sessionCtx)
	}()
}

// Stops accepting, closes every live session and waits for them to finish
func (listener *Listener) Shutdown(ctx context.Context) {
	listener.mutex.Lock()
	listener.closing.Store(true)
	if listener.socket != nil {
		listener.socket.Close()
		listener.socket = nil
	}
	for _, session := range listener.sessions {
		session.conn.Close()
	}
	listener.mutex.Unlock()

	reached, remaining := atomics.WaitUntilZero(ctx, &listener.Metrics.ActiveSessions, global.ShutdownTimeout)
	if !reached {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Listener %s: %d sessions still active after shutdown timeout\n", listener.cfg.Name, remaining)
		return
	}
	listener.wg.Wait()
}

// Adds to the interval counter and the running total
func (listener *Listener) count(field func(*MetricStorage) *atomic.Uint64, delta uint64) {
	field(&listener.Metrics).Add(delta)
	field(&listener.totals).Add(delta)
}

func (listener *Listener) Stats() (stats Stats) {
	stats = Stats{
		Name:              listener.cfg.Name,
		Address:           listener.Addr(),
		ActiveSessions:    listener.Metrics.ActiveSessions.Load(),
		TotalSessions:     listener.totals.SessionsOpened.Load(),
		RefusedSessions:   listener.totals.SessionsRefused.Load(),
		ReceivedFabulas:   listener.totals.ReceivedFabulas.Load(),
		ReceivedBytes:     listener.totals.ReceivedBytes.Load(),
		RejectedDatagrams: listener.totals.RejectedDatagrams.Load(),
	}
	stats.Listening = stats.Address != ""
	return
}
