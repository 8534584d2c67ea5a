package dispatcher

import (
	"errors"
	"fmt"
	"servus/pkg/protocol"
)

// Primus answered with something the session cannot continue from
var ErrProtocol = errors.New("protocol violation by primus")

// Primus refused the authenticator (401/403)
type RejectedByPrimusError struct {
	Status protocol.StatusCode
	Reason string
}

func (e *RejectedByPrimusError) Error() (text string) {
	text = fmt.Sprintf("rejected by primus: %d %s", int(e.Status), e.Status.Text())
	if e.Reason != "" {
		text += " (" + e.Reason + ")"
	}
	return
}
