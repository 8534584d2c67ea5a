// RTSP-derived text datagrams exchanged between Servus, Primus and fabulators
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Creates an empty datagram. A positive maxLength bounds the bytes accepted by Push.
func New(maxLength int) (new *Datagram) {
	new = &Datagram{
		maxLength: maxLength,
	}
	return
}

// Clears all parsed and generated state for reuse on the same connection
func (datagram *Datagram) Reset() {
	maxLength := datagram.maxLength
	raw := datagram.raw[:0]
	*datagram = Datagram{
		maxLength: maxLength,
		raw:       raw,
	}
}

// Appends received bytes and re-parses the accumulated datagram from the start
func (datagram *Datagram) Push(data []byte) (err error) {
	if datagram.maxLength > 0 && len(datagram.raw)+len(data) > datagram.maxLength {
		err = ErrTooLong
		return
	}
	datagram.raw = append(datagram.raw, data...)

	err = datagram.parse()
	return
}

// Full header block has arrived
func (datagram *Datagram) HeaderComplete() (complete bool) {
	complete = datagram.headerComplete
	return
}

// Header block and the announced body have arrived
func (datagram *Datagram) DatagramComplete() (complete bool) {
	complete = datagram.datagramComplete
	return
}

// Number of bytes accumulated by Push
func (datagram *Datagram) Len() (length int) {
	length = len(datagram.raw)
	return
}

// Bytes received past a complete datagram, belonging to the next one
func (datagram *Datagram) Remainder() (rest []byte) {
	if !datagram.datagramComplete || datagram.end >= len(datagram.raw) {
		return
	}
	rest = append([]byte(nil), datagram.raw[datagram.end:]...)
	return
}

func (datagram *Datagram) IsResponse() (response bool) {
	response = datagram.isResponse
	return
}

func (datagram *Datagram) Method() (method string) {
	method = datagram.method
	return
}

func (datagram *Datagram) MethodIs(method string) (matches bool) {
	matches = !datagram.isResponse && datagram.method == method
	return
}

func (datagram *Datagram) URI() (uri string) {
	uri = datagram.uri
	return
}

func (datagram *Datagram) StatusCode() (code StatusCode) {
	code = datagram.status
	return
}

func (datagram *Datagram) Reason() (reason string) {
	reason = datagram.reason
	return
}

func (datagram *Datagram) Body() (body []byte) {
	body = datagram.body
	return
}

func (datagram *Datagram) SetBody(body []byte) {
	datagram.body = append([]byte(nil), body...)
}

// Re-scans the raw buffer. Only fully received lines are validated.
func (datagram *Datagram) parse() (err error) {
	datagram.headers = datagram.headers[:0]
	datagram.body = nil
	datagram.headerComplete = false
	datagram.datagramComplete = false
	datagram.end = 0

	headEnd, bodyStart := findHeaderEnd(datagram.raw)

	var head []byte
	if headEnd < 0 {
		// Only complete lines can be judged
		lastBreak := bytes.LastIndexByte(datagram.raw, '\n')
		if lastBreak < 0 {
			return
		}
		head = datagram.raw[:lastBreak]
	} else {
		head = datagram.raw[:headEnd]
	}

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	for index, line := range lines {
		if index == 0 {
			err = datagram.parseStartLine(line)
			if err != nil {
				return
			}
			continue
		}

		var name, value string
		name, value, err = parseHeaderLine(line)
		if err != nil {
			return
		}
		datagram.headers = append(datagram.headers, header{name: name, value: value})
	}

	if headEnd < 0 {
		return
	}
	datagram.headerComplete = true

	contentLength, lookupErr := datagram.Int(HeaderContentLength)
	if lookupErr != nil {
		if errors.Is(lookupErr, ErrStatementNotFound) {
			datagram.datagramComplete = true
			datagram.end = bodyStart
			return
		}
		err = fmt.Errorf("%w: invalid %s: %v", ErrMalformed, HeaderContentLength, lookupErr)
		return
	}
	if contentLength < 0 {
		err = fmt.Errorf("%w: negative %s", ErrMalformed, HeaderContentLength)
		return
	}

	available := len(datagram.raw) - bodyStart
	if int64(available) < contentLength {
		return
	}
	datagram.end = bodyStart + int(contentLength)
	datagram.body = append([]byte(nil), datagram.raw[bodyStart:datagram.end]...)
	datagram.datagramComplete = true
	return
}

// Locates the blank line ending the header block (CRLF or bare LF)
func findHeaderEnd(raw []byte) (headEnd int, bodyStart int) {
	headEnd, bodyStart = -1, -1

	crlf := bytes.Index(raw, []byte("\r\n\r\n"))
	lf := bytes.Index(raw, []byte("\n\n"))

	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		headEnd, bodyStart = crlf, crlf+4
	case lf >= 0:
		headEnd, bodyStart = lf, lf+2
	}
	return
}

func (datagram *Datagram) parseStartLine(line string) (err error) {
	fields := strings.Fields(line)

	if strings.HasPrefix(line, "RTSP/") {
		if len(fields) < 2 {
			err = fmt.Errorf("%w: status line %q", ErrMalformed, line)
			return
		}
		var code int
		code, err = strconv.Atoi(fields[1])
		if err != nil {
			err = fmt.Errorf("%w: status code %q", ErrMalformed, fields[1])
			return
		}
		datagram.isResponse = true
		datagram.status = StatusCode(code)
		datagram.reason = strings.Join(fields[2:], " ")
		return
	}

	if len(fields) != 3 || !strings.HasPrefix(fields[2], "RTSP/") {
		err = fmt.Errorf("%w: request line %q", ErrMalformed, line)
		return
	}
	datagram.isResponse = false
	datagram.method = fields[0]
	datagram.uri = fields[1]
	return
}

func parseHeaderLine(line string) (name string, value string, err error) {
	separator := strings.IndexByte(line, ':')
	if separator <= 0 {
		err = fmt.Errorf("%w: header line %q", ErrMalformed, line)
		return
	}

	name = strings.TrimSpace(line[:separator])
	if name == "" || strings.ContainsAny(name, " \t") {
		err = fmt.Errorf("%w: header name %q", ErrMalformed, line[:separator])
		return
	}
	value = strings.TrimSpace(line[separator+1:])
	return
}
