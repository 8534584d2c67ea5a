// TCP transport primitives shared by the Primus communicator and fabulatorium sessions
package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"
)

// Deadline in the past, used to interrupt blocked reads
var aLongTimeAgo = time.Unix(1, 0)

type Conn struct {
	conn         net.Conn
	reader       *bufio.Reader
	WriteTimeout time.Duration
}

// Wraps an established connection
func Wrap(conn net.Conn) (new *Conn) {
	new = &Conn{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
	return
}

// Connects to address:port, bounded by timeout and ctx
func Dial(ctx context.Context, address string, port int, timeout time.Duration) (conn *Conn, err error) {
	dialer := net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	raw, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		err = fmt.Errorf("%w: connect: %v", ErrTransmission, err)
		return
	}
	conn = Wrap(raw)
	return
}

// Waits until at least one byte can be received.
// A zero timeout waits without bound (ctx still interrupts).
func (c *Conn) Poll(ctx context.Context, timeout time.Duration) (err error) {
	if c.reader.Buffered() > 0 {
		return
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	err = c.conn.SetReadDeadline(deadline)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTransmission, err)
		return
	}

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	_, err = c.reader.Peek(1)
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		err = ctx.Err()
		return
	}
	err = classify(err)
	return
}

// Returns whatever is available, up to len(buffer). Call after a successful Poll.
func (c *Conn) Receive(buffer []byte) (received int, err error) {
	received, err = c.reader.Read(buffer)
	if received > 0 {
		err = nil
		return
	}
	if err == nil {
		err = ErrNothingReceived
		return
	}
	err = classify(err)
	return
}

// Writes all bytes
func (c *Conn) Send(data []byte) (err error) {
	if c.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
	}

	for len(data) > 0 {
		var written int
		written, err = c.conn.Write(data)
		if err != nil {
			err = fmt.Errorf("%w: send: %v", ErrTransmission, err)
			return
		}
		data = data[written:]
	}
	return
}

func (c *Conn) Close() (err error) {
	err = c.conn.Close()
	return
}

func (c *Conn) RemoteAddr() (addr string) {
	if remote := c.conn.RemoteAddr(); remote != nil {
		addr = remote.String()
	}
	return
}

// Maps read errors onto the transport conditions
func classify(err error) (classified error) {
	switch {
	case errors.Is(err, io.EOF):
		classified = ErrNothingReceived
	case errors.Is(err, os.ErrDeadlineExceeded):
		classified = ErrPollTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			classified = ErrPollTimeout
			return
		}
		classified = fmt.Errorf("%w: %v", ErrTransmission, err)
	}
	return
}
