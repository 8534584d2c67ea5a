package logctx

import (
	"fmt"
	"strings"
	"time"
)

// Stringify full event. Newlines are left to the message author.
func (event Event) Format() (text string) {
	parts := make([]string, 0, 4)
	if !event.Timestamp.IsZero() {
		parts = append(parts, "["+padTimestamp(event.Timestamp)+"]")
	}
	if len(event.Tags) > 0 {
		parts = append(parts, "["+strings.Join(event.Tags, "/")+"]")
	}
	if event.Severity != "" {
		parts = append(parts, "["+event.Severity+"]")
	}
	if event.Message != "" {
		parts = append(parts, event.Message)
	}
	text = strings.Join(parts, " ")
	return
}

// Fixed width RFC3339 timestamp (nanoseconds always 9 digits)
func padTimestamp(timestamp time.Time) (formatted string) {
	const layout = "2006-01-02T15:04:05"

	formatted = fmt.Sprintf("%s.%09d%s",
		timestamp.Format(layout),
		timestamp.Nanosecond(),
		timestamp.Format("Z07:00"))
	return
}
