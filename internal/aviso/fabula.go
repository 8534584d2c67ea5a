package aviso

import (
	"fmt"
	"servus/pkg/protocol"
	"time"
)

// Event relayed from a fabulator
type Fabula struct {
	Base
	Originator   string
	Severity     uint16
	Notification bool
	Message      []byte
}

func NewFabula(timestamp time.Time, originator string, severity uint16, notification bool, message []byte) (new *Fabula) {
	new = &Fabula{
		Base:         newBase(TypeFabula, timestamp),
		Originator:   originator,
		Severity:     severity,
		Notification: notification,
		Message:      append([]byte(nil), message...),
	}
	return
}

func (fabula *Fabula) Prepare(datagram *protocol.Datagram) {
	fabula.prepare(datagram)
	datagram.Set(protocol.HeaderSeverity, fabula.Severity)
	datagram.Set(protocol.HeaderNotification, fabula.Notification)
	datagram.Set(protocol.HeaderOriginator, fabula.Originator)
	datagram.SetBody(fabula.Message)
}

func (fabula *Fabula) Payload() (payload []byte) {
	payload = fabula.Message
	return
}

func (fabula *Fabula) Summary() (text string) {
	text = fmt.Sprintf("fabula from %s (severity %d, %d bytes)", fabula.Originator, fabula.Severity, len(fabula.Message))
	return
}
