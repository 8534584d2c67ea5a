package logctx

import (
	"bytes"
	"context"
	"servus/internal/global"
	"strings"
	"testing"
)

func TestWatcherDrainsAndSuppresses(t *testing.T) {
	done := make(chan struct{})
	ctx := New(context.Background(), global.NSTest, global.VerbosityDebug, done)
	logger := GetLogger(ctx)

	var output bytes.Buffer
	StartWatcher(logger, &output)

	LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "first line\n")
	for i := 0; i < 11; i++ {
		LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Sent neutrino\n")
	}

	close(done)
	logger.Wake()
	logger.Wait()

	out := output.String()
	if !strings.Contains(out, "first line") {
		t.Fatalf("expected first line in output, got:\n%s", out)
	}
	if !strings.Contains(out, "Suppressed") {
		t.Fatalf("expected suppression summary, got:\n%s", out)
	}
	if len(logger.Recent(0)) == 0 {
		t.Fatalf("expected printed events in history")
	}
}
