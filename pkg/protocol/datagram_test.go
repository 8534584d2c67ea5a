package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func buildFabula() (datagram *Datagram) {
	datagram = New(0)
	datagram.Set(HeaderCSeq, 1)
	datagram.Set(HeaderAgent, "Fabulator 1.0")
	datagram.Set(HeaderTimestamp, "1528600000.250000")
	datagram.Set(HeaderOriginator, "garage")
	datagram.Set(HeaderSeverity, uint16(3))
	datagram.Set(HeaderNotification, true)
	datagram.SetBody([]byte("door opened"))
	datagram.GenerateRequest(MethodFabula, PrimusURI)
	return
}

// Header pairs without the synthesized Content-Length
func plainHeaders(datagram *Datagram) (pairs [][2]string) {
	names, values := datagram.Headers()
	for i := range names {
		if names[i] == HeaderContentLength {
			continue
		}
		pairs = append(pairs, [2]string{names[i], values[i]})
	}
	return
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		source func() *Datagram
	}{
		{
			name:   "request with body",
			source: buildFabula,
		},
		{
			name: "request without body",
			source: func() *Datagram {
				datagram := New(0)
				datagram.Set(HeaderCSeq, 4)
				datagram.Set(HeaderAgent, "Servus")
				datagram.GenerateRequest(MethodNeutrino, PrimusURI)
				return datagram
			},
		},
		{
			name: "response with reason",
			source: func() *Datagram {
				datagram := New(0)
				datagram.Set(HeaderCSeq, 2)
				datagram.Set(HeaderReason, "Unexpected CSeq")
				datagram.GenerateResponse(StatusBadRequest)
				return datagram
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := tt.source()

			parsed := New(0)
			if err := parsed.Push(source.Wire()); err != nil {
				t.Fatalf("unexpected push error: %v", err)
			}
			if !parsed.DatagramComplete() {
				t.Fatalf("expected complete datagram")
			}
			if parsed.IsResponse() != source.IsResponse() {
				t.Fatalf("expected response=%v, got %v", source.IsResponse(), parsed.IsResponse())
			}
			if parsed.Method() != source.Method() || parsed.URI() != source.URI() {
				t.Fatalf("expected %s %s, got %s %s", source.Method(), source.URI(), parsed.Method(), parsed.URI())
			}
			if parsed.StatusCode() != source.StatusCode() {
				t.Fatalf("expected status %d, got %d", source.StatusCode(), parsed.StatusCode())
			}
			if !reflect.DeepEqual(plainHeaders(parsed), plainHeaders(source)) {
				t.Fatalf("expected headers %v, got %v", plainHeaders(source), plainHeaders(parsed))
			}
			if !bytes.Equal(parsed.Body(), source.Body()) {
				t.Fatalf("expected body %q, got %q", source.Body(), parsed.Body())
			}
		})
	}
}

func TestPushByteByByte(t *testing.T) {
	wire := buildFabula().Wire()
	headerEnd := bytes.Index(wire, []byte("\r\n\r\n")) + 4

	whole := New(0)
	if err := whole.Push(wire); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunked := New(0)
	for i := range wire {
		if err := chunked.Push(wire[i : i+1]); err != nil {
			t.Fatalf("unexpected error at byte %d: %v", i, err)
		}
		received := i + 1

		if received < headerEnd && chunked.HeaderComplete() {
			t.Fatalf("header complete after %d of %d header bytes", received, headerEnd)
		}
		if received >= headerEnd && !chunked.HeaderComplete() {
			t.Fatalf("header not complete after %d bytes", received)
		}
		if received < len(wire) && chunked.DatagramComplete() {
			t.Fatalf("datagram complete after %d of %d bytes", received, len(wire))
		}
	}

	if !chunked.DatagramComplete() {
		t.Fatalf("expected complete datagram after all bytes")
	}
	if !reflect.DeepEqual(plainHeaders(chunked), plainHeaders(whole)) {
		t.Fatalf("expected headers %v, got %v", plainHeaders(whole), plainHeaders(chunked))
	}
	if !bytes.Equal(chunked.Body(), whole.Body()) {
		t.Fatalf("expected body %q, got %q", whole.Body(), chunked.Body())
	}
}

func TestRemainder(t *testing.T) {
	first := "RTSP/1.0 201 Created\r\nCSeq: 4\r\nContent-Length: 2\r\n\r\nok"
	second := "RTSP/1.0 200 OK\r\nCSeq: 5\r\n\r\n"

	datagram := New(0)
	if err := datagram.Push([]byte(first + second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !datagram.DatagramComplete() {
		t.Fatalf("expected first datagram complete")
	}
	if string(datagram.Body()) != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", datagram.Body())
	}
	if string(datagram.Remainder()) != second {
		t.Fatalf("expected remainder %q, got %q", second, datagram.Remainder())
	}

	next := New(0)
	if err := next.Push(datagram.Remainder()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cseq, _ := next.Int(HeaderCSeq); cseq != 5 || next.StatusCode() != StatusOK {
		t.Fatalf("expected 200 with CSeq 5, got %d with CSeq %d", next.StatusCode(), cseq)
	}
	if next.Remainder() != nil {
		t.Fatalf("expected no remainder, got %q", next.Remainder())
	}

	partial := New(0)
	partial.Push([]byte(first[:20]))
	if partial.Remainder() != nil {
		t.Fatalf("expected no remainder on incomplete datagram")
	}
}

func TestPushErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		wantErr   error
	}{
		{"bad request line", "HELLO\r\n\r\n", 0, ErrMalformed},
		{"bad status code", "RTSP/1.0 abc OK\r\n\r\n", 0, ErrMalformed},
		{"header without colon", "PLAY rtsp://primus RTSP/1.0\r\nCSeq 3\r\n\r\n", 0, ErrMalformed},
		{"malformed content length", "FABULA rtsp://primus RTSP/1.0\r\nContent-Length: x\r\n\r\n", 0, ErrMalformed},
		{"over maximum", "PLAY rtsp://primus RTSP/1.0\r\nCSeq: 3\r\n\r\n", 10, ErrTooLong},
		{"bare newlines accepted", "PLAY rtsp://primus RTSP/1.0\nCSeq: 3\n\n", 0, nil},
		{"incomplete but valid", "PLAY rtsp://primus RTSP/1.0\r\nCSe", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.maxLength).Push([]byte(tt.input))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTypedAccessors(t *testing.T) {
	datagram := New(0)
	err := datagram.Push([]byte("RTSP/1.0 201 Created\r\ncseq: 5\r\nAviso-Id: 3\r\nNeutrino-Interval: 1500\r\nNotification: yes\r\nTimestamp: 12.5\r\n\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cseq, err := datagram.Uint(HeaderCSeq); err != nil || cseq != 5 {
		t.Fatalf("expected case-insensitive CSeq 5, got %d (%v)", cseq, err)
	}
	if interval, err := datagram.Int(HeaderNeutrinoInterval); err != nil || interval != 1500 {
		t.Fatalf("expected interval 1500, got %d (%v)", interval, err)
	}
	if ts, err := datagram.Float(HeaderTimestamp); err != nil || ts != 12.5 {
		t.Fatalf("expected timestamp 12.5, got %v (%v)", ts, err)
	}
	if _, err := datagram.Bool(HeaderNotification); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if _, err := datagram.String(HeaderReason); !errors.Is(err, ErrStatementNotFound) {
		t.Fatalf("expected statement not found, got %v", err)
	}
	if datagram.StatusCode() != StatusCreated {
		t.Fatalf("expected status 201, got %d", datagram.StatusCode())
	}
}

func TestSetOverwriteAndReset(t *testing.T) {
	datagram := New(0)
	datagram.Set(HeaderCSeq, 1)
	datagram.Set(HeaderAgent, "Servus")
	datagram.Set("cseq", 2)

	names, values := datagram.Headers()
	if len(names) != 2 || names[0] != HeaderCSeq || values[0] != "2" {
		t.Fatalf("expected overwritten CSeq in first position, got %v=%v", names, values)
	}

	wire := string(datagram.GenerateRequest(MethodAuth, PrimusURI))
	want := "AUTH rtsp://primus RTSP/1.0\r\nCSeq: 2\r\nAgent: Servus\r\n\r\n"
	if wire != want {
		t.Fatalf("expected wire %q, got %q", want, wire)
	}

	datagram.Reset()
	if names, _ := datagram.Headers(); len(names) != 0 {
		t.Fatalf("expected no headers after reset, got %v", names)
	}
	if datagram.HeaderComplete() || datagram.DatagramComplete() || datagram.Len() != 0 {
		t.Fatalf("expected cleared progress after reset")
	}
}
