package logctx

import (
	"sync"
	"time"
)

// Log Event Structure
type Event struct {
	Timestamp time.Time
	Severity  string
	Tags      []string
	Message   string
}

// Logger Struct
type Logger struct {
	ID         string
	CreatedAt  time.Time
	queue      []Event        // pending events, drained by the watcher
	history    []Event        // last printed events, served by the status page
	historyLen int            // maximum retained history entries
	mutex      sync.Mutex     // protects queue, history and level
	cond       *sync.Cond     // signals new events
	Done       <-chan struct{}
	PrintLevel int             // Level at which the message should be recorded
	wg         *sync.WaitGroup // Holds main execution threads until log watchers are done handling events
}

// Suppression state for repeated messages
type dedupState struct {
	lastMsg          string
	repeatCount      int
	lastSuppressTime time.Time
}
