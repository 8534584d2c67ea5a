// Events queued for delivery to Primus
package aviso

import (
	"fmt"
	"servus/pkg/protocol"
	"strconv"
	"time"
)

// Discriminator sent as the request method
type Type string

const (
	TypeFabula         Type = "FABULA"
	TypeDSTemperature  Type = "DS_TEMPERATURE"
	TypeDHTHumidity    Type = "DHT_HUMIDITY"
	TypeDHTTemperature Type = "DHT_TEMPERATURE"
)

// One event destined for Primus
type Aviso interface {
	ID() uint64
	SetID(id uint64)
	Type() Type
	Timestamp() time.Time
	// Writes the aviso fields as headers of an outgoing request
	Prepare(datagram *protocol.Datagram)
	// Request body, nil for variants without one
	Payload() []byte
	// One line description for logs and the status page
	Summary() string
}

// Fields shared by every variant
type Base struct {
	id        uint64
	kind      Type
	timestamp time.Time
}

func newBase(kind Type, timestamp time.Time) (base Base) {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	base = Base{kind: kind, timestamp: timestamp}
	return
}

func (base *Base) ID() (id uint64) {
	id = base.id
	return
}

// Assigned once by the queue on enqueue
func (base *Base) SetID(id uint64) {
	base.id = id
}

func (base *Base) Type() (kind Type) {
	kind = base.kind
	return
}

func (base *Base) Timestamp() (timestamp time.Time) {
	timestamp = base.timestamp
	return
}

func (base *Base) prepare(datagram *protocol.Datagram) {
	datagram.Set(protocol.HeaderAvisoID, base.id)
	datagram.Set(protocol.HeaderTimestamp, FormatTimestamp(base.timestamp))
}

// Float seconds since epoch with microsecond precision
func FormatTimestamp(timestamp time.Time) (text string) {
	text = fmt.Sprintf("%d.%06d", timestamp.Unix(), timestamp.Nanosecond()/1000)
	return
}

// Parses the wire timestamp. Empty input yields the current time.
func ParseTimestamp(text string) (timestamp time.Time, err error) {
	if text == "" {
		timestamp = time.Now()
		return
	}

	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		err = fmt.Errorf("invalid timestamp %q: %v", text, err)
		return
	}
	if seconds < 0 {
		err = fmt.Errorf("invalid timestamp %q: negative", text)
		return
	}

	whole := int64(seconds)
	micros := int64((seconds-float64(whole))*1e6 + 0.5)
	timestamp = time.Unix(whole, micros*1000)
	return
}
