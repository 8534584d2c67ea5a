// HTTP server exposing gateway status and metric data to other programs only on the local system
package status

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"servus/internal/global"
	"servus/internal/logctx"
	"strconv"
	"strings"
)

// Read in web static files at compile time
//
//go:embed static-files/help.html
var webFiles embed.FS

// Sets up HTTP listener configuration for status and metric querying
func SetupListener(ctx context.Context, port int, sources Sources) (server *http.Server, err error) {
	requestMultiplexer := http.NewServeMux()

	helpPage, err := webFiles.ReadFile("static-files/help.html")
	if err != nil {
		err = fmt.Errorf("failed reading help html page from internal fs: %w", err)
		return
	}

	// Replace variables in html with globals
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@LISTEN_ADDR@@"), []byte(global.HTTPListenAddr))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@LISTEN_PORT@@"), []byte(strconv.Itoa(port)))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@STATUS_PATH@@"), []byte(global.StatusPath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@QUEUE_PATH@@"), []byte(global.QueuePath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@DATA_PATH@@"), []byte(global.DataPath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@DISCOVER_PATH@@"), []byte(global.DiscoveryPath))

	// Root help page
	requestMultiplexer.HandleFunc("/", func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		if clientRequest.Method != http.MethodGet {
			serverResponder.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if clientRequest.URL.Path != "/" {
			serverResponder.WriteHeader(http.StatusNotFound)
			return
		}

		serverResponder.Header().Set("Content-Type", "text/html; charset=utf-8")
		serverResponder.WriteHeader(http.StatusOK)
		serverResponder.Write(helpPage)
	})

	routes := map[string]func(http.ResponseWriter, *http.Request){
		global.StatusPath: func(w http.ResponseWriter, r *http.Request) {
			handleStatus(ctx, sources.Report, w, r)
		},
		global.QueuePath: func(w http.ResponseWriter, r *http.Request) {
			handleQueue(ctx, sources.Queue, w, r)
		},
		global.DiscoveryPath: func(w http.ResponseWriter, r *http.Request) {
			handleDiscovery(ctx, sources.Discover, w, r)
		},
		global.DataPath: func(w http.ResponseWriter, r *http.Request) {
			handleData(ctx, sources.Search, w, r)
		},
	}
	for path, handler := range routes {
		requestMultiplexer.HandleFunc(path, getOnly(handler))
	}

	// Server configuration
	server = &http.Server{
		Addr:         global.HTTPListenAddr + ":" + strconv.Itoa(port),
		Handler:      requestMultiplexer,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: ctx}, "", 0),
	}

	return
}

// Rejects everything but GET before reaching the handler
func getOnly(handler http.HandlerFunc) (wrapped http.HandlerFunc) {
	wrapped = func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		if clientRequest.Method != http.MethodGet {
			serverResponder.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(serverResponder, clientRequest)
	}
	return
}

// Starts the status HTTP server and waits for requests
func Start(ctx context.Context, server *http.Server) {
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Status server starting on %s (http://%s/)\n",
		server.Addr,
		server.Addr,
	)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Status server failed to start: %v\n", err)
	}
}

// Encodes JSON and sends as response body
func jResp(ctx context.Context, serverResponder http.ResponseWriter, content any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(content); err != nil {
		serverResponder.WriteHeader(http.StatusInternalServerError)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed marshaling status results: %v\n", err)
		return
	}
	serverResponder.Header().Set("Content-Type", "application/json")
	serverResponder.WriteHeader(http.StatusOK)
	serverResponder.Write(buf.Bytes())
}

// Logs HTTP server errors to internal program buffer (via context logger)
func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	logctx.LogEvent(
		logWriter.ctx,
		global.VerbosityStandard,
		global.ErrorLog,
		"%s\n", strings.TrimSpace(string(p)),
	)
	return
}
