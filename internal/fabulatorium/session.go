package fabulatorium

import (
	"context"
	"errors"
	"servus/internal/aviso"
	"servus/internal/global"
	"servus/internal/logctx"
	"servus/internal/network"
	"servus/pkg/protocol"
	"sync/atomic"
)

// Rejection reasons sent in the Reason header
const (
	ReasonUnexpectedCSeq = "Unexpected CSeq"
	ReasonMissingCSeq    = "Missing CSeq"
	ReasonMissingName    = "Missing fabulator"
	ReasonMissingPayload = "Missing payload"
	ReasonParsing        = "Error by parsing"
	ReasonMalformed      = "Malformed datagram"
	ReasonTooLong        = "Datagram too long"
)

// Receives fabulas until the peer leaves, a datagram is rejected or ctx ends.
// Every datagram must carry the next CSeq, starting at 1.
func (session *Session) Run(ctx context.Context) {
	defer session.conn.Close()
	cfg := session.listener.cfg

	err := session.conn.Poll(ctx, cfg.WaitForFirstTransmission)
	if err != nil {
		if errors.Is(err, network.ErrPollTimeout) {
			logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog, "Poll for transmission timed out\n")
		} else {
			logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog, "Poll for transmission did break: %v\n", err)
		}
		return
	}

	for {
		request, err := session.receive(ctx)
		if err != nil {
			session.receiveFailed(ctx, err)
			return
		}

		response, accepted := session.process(ctx, request)
		sendErr := session.conn.Send(response.Wire())
		if sendErr != nil {
			logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog, "Response not delivered: %v\n", sendErr)
		}
		if !accepted {
			return
		}

		// Keep-alive: wait without bound for the next datagram
		if len(session.leftover) == 0 {
			err = session.conn.Poll(ctx, 0)
			if err != nil {
				logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog, "Session ended: %v\n", err)
				return
			}
		}
		session.expectedCSeq++
	}
}

// Reassembles one datagram; the first chunk is already known to be available
func (session *Session) receive(ctx context.Context) (request *protocol.Datagram, err error) {
	request = protocol.New(global.MaximalFabulaLength)

	needPoll := false
	if len(session.leftover) > 0 {
		pending := session.leftover
		session.leftover = nil
		err = request.Push(pending)
		if err != nil {
			return
		}
		needPoll = true
	}

	for !request.DatagramComplete() {
		if needPoll {
			err = session.conn.Poll(ctx, session.listener.cfg.WaitForTransmissionCompletion)
			if err != nil {
				return
			}
		}
		needPoll = true

		var received int
		received, err = session.conn.Receive(session.receiveBuffer)
		if err != nil {
			return
		}
		session.listener.count(func(m *MetricStorage) *atomic.Uint64 { return &m.ReceivedBytes }, uint64(received))

		err = request.Push(session.receiveBuffer[:received])
		if err != nil {
			return
		}
	}

	session.leftover = request.Remainder()
	return
}

func (session *Session) receiveFailed(ctx context.Context, err error) {
	var reason string
	switch {
	case errors.Is(err, protocol.ErrMalformed):
		reason = ReasonMalformed
	case errors.Is(err, protocol.ErrTooLong):
		reason = ReasonTooLong
	case errors.Is(err, network.ErrNothingReceived):
		logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog, "Disconnected\n")
		return
	case errors.Is(err, network.ErrPollTimeout):
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Poll for chunk timed out\n")
		return
	case ctx.Err() != nil:
		return
	default:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Connection is broken: %v\n", err)
		return
	}

	response := session.newResponse()
	session.reject(ctx, response, protocol.StatusBadRequest, reason)
	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog, "Unparsable datagram: %v\n", err)
	session.conn.Send(response.Wire())
}

// Builds the response to one complete datagram and reports whether the session may continue
func (session *Session) process(ctx context.Context, request *protocol.Datagram) (response *protocol.Datagram, accepted bool) {
	response = session.newResponse()

	cseq, err := request.Uint(protocol.HeaderCSeq)
	if errors.Is(err, protocol.ErrStatementNotFound) {
		session.reject(ctx, response, protocol.StatusBadRequest, ReasonMissingCSeq)
		return
	}
	if err != nil || cseq != session.expectedCSeq {
		session.reject(ctx, response, protocol.StatusBadRequest, ReasonUnexpectedCSeq)
		return
	}

	if !request.MethodIs(protocol.MethodFabula) {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Rejected: unknown method %q\n", request.Method())
		session.reject(ctx, response, protocol.StatusMethodNotAllowed, "")
		return
	}

	fabula, reason := session.parseFabula(request)
	if reason != "" {
		session.reject(ctx, response, protocol.StatusBadRequest, reason)
		return
	}

	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"Received fabula from \"%s\"\n", fabula.Originator)
	id := session.listener.queue.Enqueue(ctx, fabula)
	session.listener.count(func(m *MetricStorage) *atomic.Uint64 { return &m.ReceivedFabulas }, 1)

	response.Set(protocol.HeaderAvisoID, id)
	response.GenerateResponse(protocol.StatusCreated)
	accepted = true
	return
}

// Optional Severity and Notification come from the fabulator defaults when it is registered
func (session *Session) parseFabula(request *protocol.Datagram) (fabula *aviso.Fabula, reason string) {
	timestampText, err := request.String(protocol.HeaderTimestamp)
	if err != nil {
		reason = ReasonParsing
		return
	}
	timestamp, err := aviso.ParseTimestamp(timestampText)
	if err != nil {
		reason = ReasonParsing
		return
	}

	originator, err := request.String(protocol.HeaderOriginator)
	if err != nil {
		reason = ReasonParsing
		return
	}
	defaults, registered := session.listener.fabulators.Lookup(originator)

	severity := uint64(defaults.DefaultSeverity)
	if !registered || request.Has(protocol.HeaderSeverity) {
		severity, err = request.Uint(protocol.HeaderSeverity)
		if err != nil || severity > 0xFFFF {
			reason = ReasonParsing
			return
		}
	}

	notification := defaults.DefaultNotification
	if !registered || request.Has(protocol.HeaderNotification) {
		notification, err = request.Bool(protocol.HeaderNotification)
		if err != nil {
			reason = ReasonParsing
			return
		}
	}

	if originator == "" {
		reason = ReasonMissingName
		return
	}
	if len(request.Body()) == 0 {
		reason = ReasonMissingPayload
		return
	}

	fabula = aviso.NewFabula(timestamp, originator, uint16(severity), notification, request.Body())
	return
}

func (session *Session) newResponse() (response *protocol.Datagram) {
	response = protocol.New(0)
	response.Set(protocol.HeaderCSeq, session.expectedCSeq)
	response.Set(protocol.HeaderAgent, global.SoftwareVersion)
	return
}

func (session *Session) reject(ctx context.Context, response *protocol.Datagram, status protocol.StatusCode, reason string) {
	if reason != "" {
		response.Set(protocol.HeaderReason, reason)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Rejected: %s\n", reason)
	}
	response.GenerateResponse(status)
	session.listener.count(func(m *MetricStorage) *atomic.Uint64 { return &m.RejectedDatagrams }, 1)
}
