// Central logging system. Buffers events in the logger carried by the context
// and hands them to a single watcher for output.
package logctx

import (
	"context"
	"fmt"
	"servus/internal/global"
	"strings"
	"sync"
	"time"
)

const defaultHistoryLen int = 200

// Logger Constructor
func NewLogger(id string, logLevel int, done <-chan struct{}) (logger *Logger) {
	logger = &Logger{
		ID:         id,
		CreatedAt:  time.Now(),
		queue:      make([]Event, 0),
		historyLen: defaultHistoryLen,
		Done:       done,
		PrintLevel: logLevel,
		wg:         &sync.WaitGroup{},
	}
	logger.cond = sync.NewCond(&logger.mutex)
	return
}

// Creates a logger and embeds it in a copy of the base context
func New(baseCtx context.Context, id string, logLevel int, done <-chan struct{}) (ctxLogger context.Context) {
	ctxLogger = WithLogger(baseCtx, NewLogger(id, logLevel, done))
	return
}

// Attach the logger to context
func WithLogger(ctx context.Context, logger *Logger) (ctxLogger context.Context) {
	ctxLogger = context.WithValue(ctx, global.LoggerKey, logger)
	return
}

// Change the loggers level
func SetLogLevel(ctx context.Context, newLevel int) {
	logger := GetLogger(ctx)
	if logger != nil {
		logger.mutex.Lock()
		defer logger.mutex.Unlock()
		logger.PrintLevel = newLevel
	}
}

// Extracts Logger from context or returns nil
func GetLogger(ctx context.Context) (logger *Logger) {
	logger, ok := ctx.Value(global.LoggerKey).(*Logger)
	if !ok {
		logger = nil
	}
	return
}

// Hold main thread exit until logger is finished its work
func (logger *Logger) Wait() {
	logger.wg.Wait()
}

// Wake broadcasts to any goroutines waiting on the condition variable
func (logger *Logger) Wake() {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.cond.Broadcast()
}

// Entry for logging events
func LogEvent(ctx context.Context, eventLevel int, severity string, message string, vars ...any) {
	logger := GetLogger(ctx)
	if logger == nil {
		return
	}

	// Only format when there is something to substitute
	fullMessage := message
	if len(vars) > 0 && strings.Contains(message, "%") {
		fullMessage = fmt.Sprintf(message, vars...)
	}

	logger.log(eventLevel, severity, GetTagList(ctx), fullMessage)
}

// Queues event for the watcher if it passes the level filter. Errors always pass.
func (logger *Logger) log(eventLevel int, eventSeverity string, tags []string, fullMessage string) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	if eventLevel > logger.PrintLevel && eventSeverity != global.ErrorLog {
		return
	}

	logger.queue = append(logger.queue, Event{
		Timestamp: time.Now(),
		Tags:      tags,
		Severity:  eventSeverity,
		Message:   fullMessage,
	})
	logger.cond.Signal()
}

// Returns the most recently printed events, oldest first, formatted one per line
func (logger *Logger) Recent(limit int) (lines []string) {
	logger.mutex.Lock()
	events := logger.history
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	events = append([]Event(nil), events...)
	logger.mutex.Unlock()

	lines = make([]string, 0, len(events))
	for _, event := range events {
		line := event.Format()
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		lines = append(lines, line)
	}
	return
}

// Keeps a bounded copy of printed events (caller must hold mutex)
func (logger *Logger) remember(event Event) {
	if logger.historyLen <= 0 {
		return
	}
	logger.history = append(logger.history, event)
	if overflow := len(logger.history) - logger.historyLen; overflow > 0 {
		logger.history = append(logger.history[:0], logger.history[overflow:]...)
	}
}
