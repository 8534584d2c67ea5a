// Optional copy of delivered avisos to a beats (lumberjack v2) server
package archive

import (
	"context"
	"fmt"
	"servus/internal/aviso"
	"servus/internal/global"
	"servus/internal/logctx"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

const backlogSize int = 256

// Returns nil when no endpoint is configured. The connection is made on first write.
func New(namespace []string, endpoint string) (mirror *Mirror) {
	if endpoint == "" {
		return
	}
	mirror = &Mirror{
		Namespace: append(append([]string(nil), namespace...), global.NSArchive),
		endpoint:  endpoint,
		timeout:   3 * time.Second,
		backlog:   make(chan aviso.Aviso, backlogSize),
	}
	return
}

// Writes queued avisos until ctx is cancelled
func (mirror *Mirror) Run(ctx context.Context) {
	if mirror == nil {
		return
	}
	ctx = logctx.AppendCtxTag(ctx, global.NSArchive)

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-mirror.backlog:
			err := mirror.Write(ctx, item)
			if err != nil {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "%v\n", err)
			}
		}
	}
}

func (mirror *Mirror) connect() (err error) {
	compression := lumberjack.CompressionLevel(0)
	timeout := lumberjack.Timeout(mirror.timeout)

	sink, err := lumberjack.SyncDial(mirror.endpoint, compression, timeout)
	if err != nil {
		err = fmt.Errorf("failed connection to beats server: %w", err)
		return
	}
	mirror.sink = sink
	mirror.Metrics.Reconnects.Add(1)
	return
}

// Sends one aviso as a beats event. A failed send drops the connection so the next write redials.
func (mirror *Mirror) Write(ctx context.Context, item aviso.Aviso) (err error) {
	if mirror == nil {
		return
	}

	mirror.mutex.Lock()
	defer mirror.mutex.Unlock()

	if mirror.sink == nil {
		err = mirror.connect()
		if err != nil {
			mirror.Metrics.SendFailures.Add(1)
			return
		}
	}

	events := []interface{}{eventFields(item)}
	_, err = mirror.sink.Send(events)
	if err != nil {
		mirror.Metrics.SendFailures.Add(1)
		mirror.sink.Close()
		mirror.sink = nil
		err = fmt.Errorf("failed sending aviso #%d to beats server: %w", item.ID(), err)
		return
	}
	mirror.Metrics.EventsSent.Add(1)
	logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog, "Archived aviso #%d\n", item.ID())
	return
}

// Delivery hook for the communicator. Never blocks: a full backlog drops the copy.
func (mirror *Mirror) Delivered(ctx context.Context, item aviso.Aviso) {
	if mirror == nil {
		return
	}

	select {
	case mirror.backlog <- item:
	default:
		mirror.Metrics.Dropped.Add(1)
		logctx.LogEvent(logctx.AppendCtxTag(ctx, global.NSArchive), global.VerbosityStandard, global.WarnLog,
			"Archive backlog full, aviso #%d not mirrored\n", item.ID())
	}
}

func eventFields(item aviso.Aviso) (fields map[string]interface{}) {
	avisoFields := map[string]interface{}{
		"id":   item.ID(),
		"type": string(item.Type()),
	}

	switch typed := item.(type) {
	case *aviso.Fabula:
		avisoFields["originator"] = typed.Originator
		avisoFields["severity"] = typed.Severity
		avisoFields["notification"] = typed.Notification
	case *aviso.DSTemperature:
		avisoFields["token"] = typed.Token
		avisoFields["temperature"] = typed.Value
	case *aviso.DHTTemperature:
		avisoFields["token"] = typed.Token
		avisoFields["temperature"] = typed.Value
	case *aviso.DHTHumidity:
		avisoFields["token"] = typed.Token
		avisoFields["humidity"] = typed.Value
	}

	message := item.Summary()
	if payload := item.Payload(); len(payload) > 0 {
		message = string(payload)
	}

	fields = map[string]interface{}{
		"@timestamp": item.Timestamp(),
		"message":    message,
		"host": map[string]interface{}{
			"name":     global.Hostname,
			"hostname": global.Hostname,
		},
		"agent": map[string]interface{}{
			"program": global.ProgBaseName,
			"version": global.ProgVersion,
			"type":    "filebeat",
			"pid":     global.PID,
		},
		"aviso": avisoFields,
	}
	return
}

// Closes the connection if one is open
func (mirror *Mirror) Shutdown() (err error) {
	if mirror == nil {
		return
	}
	mirror.mutex.Lock()
	defer mirror.mutex.Unlock()
	if mirror.sink != nil {
		err = mirror.sink.Close()
		mirror.sink = nil
	}
	return
}
