package protocol

import (
	"bytes"
	"strconv"
	"strings"
)

// Renders a request line with all headers and the body into the wire buffer
func (datagram *Datagram) GenerateRequest(method string, uri string) (wire []byte) {
	datagram.isResponse = false
	datagram.method = method
	datagram.uri = uri

	wire = datagram.render(method + " " + uri + " " + ProtocolToken)
	return
}

// Renders a status line with all headers and the body into the wire buffer
func (datagram *Datagram) GenerateResponse(status StatusCode) (wire []byte) {
	datagram.isResponse = true
	datagram.status = status
	datagram.reason = status.Text()

	wire = datagram.render(ProtocolToken + " " + strconv.Itoa(int(status)) + " " + status.Text())
	return
}

// Last generated datagram
func (datagram *Datagram) Wire() (wire []byte) {
	wire = datagram.wire
	return
}

func (datagram *Datagram) render(startLine string) (wire []byte) {
	var buf bytes.Buffer
	buf.WriteString(startLine)
	buf.WriteString(lineBreak)

	for _, entry := range datagram.headers {
		// Always synthesized from the actual body
		if strings.EqualFold(entry.name, HeaderContentLength) {
			continue
		}
		buf.WriteString(entry.name)
		buf.WriteString(": ")
		buf.WriteString(entry.value)
		buf.WriteString(lineBreak)
	}
	if len(datagram.body) > 0 {
		buf.WriteString(HeaderContentLength)
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(len(datagram.body)))
		buf.WriteString(lineBreak)
	}
	buf.WriteString(lineBreak)
	buf.Write(datagram.body)

	datagram.wire = buf.Bytes()
	wire = datagram.wire
	return
}
