package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"servus/internal/global"
	"servus/internal/logctx"
	"servus/internal/network"
	"servus/pkg/protocol"
	"time"
)

// Stamps CSeq and Agent, writes the request and advances CSeq
func (communicator *Communicator) send(ctx context.Context, sess *session, request *protocol.Datagram, method string) (err error) {
	request.Set(protocol.HeaderCSeq, sess.cseq)
	request.Set(protocol.HeaderAgent, global.SoftwareVersion)
	wire := request.GenerateRequest(method, protocol.PrimusURI)

	err = sess.conn.Send(wire)
	if err != nil {
		return
	}
	logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog,
		"Sent %s CSeq %d (%d bytes)\n", method, sess.cseq, len(wire))

	sess.cseq++
	communicator.Metrics.DatagramsSent.Add(1)
	return
}

// Request followed by its response
func (communicator *Communicator) exchange(ctx context.Context, sess *session, request *protocol.Datagram, method string) (response *protocol.Datagram, err error) {
	err = communicator.send(ctx, sess, request, method)
	if err != nil {
		return
	}
	response, err = communicator.receive(ctx, sess, communicator.cfg.WaitForResponse)
	return
}

// Reassembles one response. A zero firstWait polls without bound, ctx still interrupts.
func (communicator *Communicator) receive(ctx context.Context, sess *session, firstWait time.Duration) (response *protocol.Datagram, err error) {
	response = protocol.New(global.MaximalMessageLength)

	if len(sess.leftover) > 0 {
		pending := sess.leftover
		sess.leftover = nil
		err = response.Push(pending)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrProtocol, err)
			return
		}
	}

	wait := firstWait
	for !response.DatagramComplete() {
		err = sess.conn.Poll(ctx, wait)
		if err != nil {
			if errors.Is(err, network.ErrPollTimeout) {
				if response.Len() == 0 {
					err = fmt.Errorf("no response within %v: %w", wait, err)
				} else {
					err = fmt.Errorf("datagram not completed within %v: %w", wait, err)
				}
			}
			return
		}

		var received int
		received, err = sess.conn.Receive(communicator.receiveBuffer)
		if err != nil {
			return
		}

		err = response.Push(communicator.receiveBuffer[:received])
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrProtocol, err)
			return
		}
		wait = communicator.cfg.WaitForDatagramCompletion
	}

	if !response.IsResponse() {
		err = fmt.Errorf("%w: expected a response, got %s request", ErrProtocol, response.Method())
		return
	}
	sess.leftover = response.Remainder()

	cseq, _ := response.Int(protocol.HeaderCSeq)
	logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog,
		"Received %d %s CSeq %d\n", int(response.StatusCode()), response.StatusCode().Text(), cseq)
	return
}
