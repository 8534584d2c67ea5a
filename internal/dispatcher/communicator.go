// Outbound session state machine: AUTH, one-time SETUP, then PLAY streaming of avisos and neutrinos
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"servus/internal/global"
	"servus/internal/logctx"
	"servus/internal/network"
	"servus/internal/queue"
	"servus/pkg/protocol"
	"time"
)

// Processor may be nil when nothing consumes the SETUP document
func New(namespace []string, cfg Config, avisoQueue *queue.Queue, processor ConfigurationProcessor) (new *Communicator) {
	new = &Communicator{
		Namespace:     append(append([]string(nil), namespace...), global.NSDispatch),
		cfg:           cfg,
		queue:         avisoQueue,
		processor:     processor,
		dial:          network.Dial,
		sleep:         sleepContext,
		receiveBuffer: make([]byte, global.MaximalMessageLength),
	}
	return
}

func (communicator *Communicator) State() (state State) {
	state = State(communicator.state.Load())
	return
}

// SETUP was answered and processed at least once
func (communicator *Communicator) SetupDone() (done bool) {
	done = communicator.setupDone.Load()
	return
}

func (communicator *Communicator) setState(state State) {
	communicator.state.Store(int32(state))
}

// Connects and streams until ctx is cancelled, reconnecting after every failed session
func (communicator *Communicator) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSDispatch)
	defer communicator.setState(StateDisconnected)

	for {
		if ctx.Err() != nil {
			return
		}

		err := communicator.runSession(ctx)
		communicator.setState(StateDisconnected)
		if ctx.Err() != nil {
			logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Session with Primus closed on shutdown\n")
			return
		}

		backoff := communicator.cfg.ReconnectInterval
		var rejected *RejectedByPrimusError
		if errors.As(err, &rejected) {
			communicator.Metrics.Rejections.Add(1)
			backoff = communicator.cfg.SleepIfRejected
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"%v, retrying in %v\n", err, backoff)
		} else {
			communicator.Metrics.SessionFailures.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Session with Primus failed: %v, reconnecting in %v\n", err, backoff)
		}

		if !communicator.sleep(ctx, backoff) {
			return
		}
	}
}

// One connection from dial to failure
func (communicator *Communicator) runSession(ctx context.Context) (err error) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in primus session: %v\n%s", fatalError, stack)
			err = fmt.Errorf("session panic: %v", fatalError)
		}
	}()

	communicator.setState(StateConnecting)
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Connecting to Primus at %s port %d\n", communicator.cfg.Address, communicator.cfg.Port)

	conn, err := communicator.dial(ctx, communicator.cfg.Address, communicator.cfg.Port, communicator.cfg.WaitForResponse)
	if err != nil {
		err = fmt.Errorf("cannot connect to primus: %w", err)
		return
	}
	defer conn.Close()
	communicator.Metrics.Connects.Add(1)

	sess := &session{
		conn: conn,
		cseq: 1,
	}

	communicator.setState(StateAuthenticating)
	request := protocol.New(0)
	request.Set(protocol.HeaderAuthenticator, communicator.cfg.Authenticator)
	response, err := communicator.exchange(ctx, sess, request, protocol.MethodAuth)
	if err != nil {
		err = fmt.Errorf("AUTH: %w", err)
		return
	}
	err = expectOK(response)
	if err != nil {
		return
	}
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Authenticated by Primus\n")

	if !communicator.setupDone.Load() {
		communicator.setState(StateConfiguring)
		err = communicator.configure(ctx, sess)
		if err != nil {
			return
		}
	}

	communicator.setState(StatePlaying)
	err = communicator.send(ctx, sess, protocol.New(0), protocol.MethodPlay)
	if err != nil {
		err = fmt.Errorf("PLAY: %w", err)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Streaming to Primus\n")

	err = communicator.stream(ctx, sess)
	return
}

// SETUP is only repeated until it once succeeded
func (communicator *Communicator) configure(ctx context.Context, sess *session) (err error) {
	response, err := communicator.exchange(ctx, sess, protocol.New(0), protocol.MethodSetup)
	if err != nil {
		err = fmt.Errorf("SETUP: %w", err)
		return
	}
	err = expectOK(response)
	if err != nil {
		return
	}

	if communicator.processor != nil {
		err = communicator.processor.ProcessConfiguration(ctx, response.Body())
		if err != nil {
			err = fmt.Errorf("%w: unusable configuration: %v", ErrProtocol, err)
			return
		}
	}

	communicator.setupDone.Store(true)
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Configuration received from Primus (%d bytes)\n", len(response.Body()))
	return
}

// Streaming loop: every response names the neutrino interval, acknowledgements release the head of the queue
func (communicator *Communicator) stream(ctx context.Context, sess *session) (err error) {
	for {
		var response *protocol.Datagram
		response, err = communicator.receive(ctx, sess, 0)
		if err != nil {
			return
		}

		if response.StatusCode() == protocol.StatusCreated {
			err = communicator.acknowledge(ctx, response)
			if err != nil {
				return
			}
		}

		var interval int64
		interval, err = response.Int(protocol.HeaderNeutrinoInterval)
		if err != nil || interval < 0 {
			err = fmt.Errorf("%w: broken communication, no usable %s in %d response",
				ErrProtocol, protocol.HeaderNeutrinoInterval, int(response.StatusCode()))
			return
		}
		neutrinoInterval := time.Duration(interval) * time.Millisecond
		logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog, "Neutrino interval %v\n", neutrinoInterval)

		if !communicator.queue.Pending() {
			signaled := communicator.queue.Wait(ctx, neutrinoInterval)
			if ctx.Err() != nil {
				err = ctx.Err()
				return
			}
			if !signaled {
				err = communicator.send(ctx, sess, protocol.New(0), protocol.MethodNeutrino)
				if err != nil {
					err = fmt.Errorf("cannot send neutrino: %w", err)
					return
				}
				communicator.Metrics.NeutrinosSent.Add(1)
			}
		}

		// Fetched even after a neutrino, an aviso may have arrived meanwhile
		head, fetchErr := communicator.queue.FetchFirst()
		if fetchErr != nil {
			continue
		}

		request := protocol.New(0)
		head.Prepare(request)
		sendErr := communicator.send(ctx, sess, request, string(head.Type()))
		if sendErr != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Cannot transmit aviso #%d: %v\n", head.ID(), sendErr)
			continue
		}
		communicator.Metrics.AvisosSent.Add(1)
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"Sent aviso #%d (%s)\n", head.ID(), head.Summary())
	}
}

// Releases the in-flight aviso named by a 201 response
func (communicator *Communicator) acknowledge(ctx context.Context, response *protocol.Datagram) (err error) {
	id, err := response.Uint(protocol.HeaderAvisoID)
	if err != nil {
		err = fmt.Errorf("%w: missing aviso id in response: %v", ErrProtocol, err)
		return
	}

	head, _ := communicator.queue.FetchFirst()

	err = communicator.queue.Dequeue(ctx, id)
	if err != nil {
		// Head stays queued and is retransmitted on the next session
		err = fmt.Errorf("%w: %v", ErrProtocol, err)
		return
	}
	communicator.Metrics.AvisosAcked.Add(1)

	if communicator.OnDelivered != nil && head != nil {
		communicator.OnDelivered(ctx, head)
	}
	return
}

func expectOK(response *protocol.Datagram) (err error) {
	status := response.StatusCode()
	switch status {
	case protocol.StatusOK:
	case protocol.StatusUnauthorized, protocol.StatusForbidden:
		reason, _ := response.String(protocol.HeaderReason)
		err = &RejectedByPrimusError{Status: status, Reason: reason}
	default:
		err = fmt.Errorf("%w: unexpected status %d %s", ErrProtocol, int(status), response.Reason())
	}
	return
}

func sleepContext(ctx context.Context, duration time.Duration) (completed bool) {
	if duration <= 0 {
		completed = ctx.Err() == nil
		return
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		completed = true
	case <-ctx.Done():
	}
	return
}
