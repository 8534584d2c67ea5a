package status

import (
	"context"
	"net/http"
	"servus/internal/logctx"
	"servus/internal/queue"

	"github.com/pbnjay/memory"
)

const recentMessageCount int = 20

// Gateway overview: daemon report plus host memory and recent log lines
func handleStatus(baseCtx context.Context, report Reporter, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	if report == nil {
		serverResponder.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	current := report()
	current.MemoryTotal = memory.TotalMemory()
	current.MemoryFree = memory.FreeMemory()

	if clientRequest.FormValue("logs") != "false" {
		logger := logctx.GetLogger(baseCtx)
		if logger != nil {
			current.RecentMessages = logger.Recent(recentMessageCount)
		}
	}

	jResp(baseCtx, serverResponder, current)
}

// Pending avisos, head (in flight) first
func handleQueue(baseCtx context.Context, list QueueLister, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	if list == nil {
		serverResponder.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	pending := list()
	if pending == nil {
		pending = []queue.Summary{}
	}
	jResp(baseCtx, serverResponder, pending)
}
