package status

import (
	"context"
	"net/http"
	"servus/internal/global"
	"servus/internal/metrics"
	"strings"
	"time"
)

// Handles metric search requests based on time for data
func handleData(baseCtx context.Context, search DataSearcher, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	if search == nil {
		serverResponder.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	rawNamespace := strings.Trim(strings.TrimPrefix(clientRequest.URL.Path, global.DataPath), "/")
	var reqNamespace []string
	if rawNamespace != "" {
		reqNamespace = strings.Split(rawNamespace, "/")
	}

	reqName := clientRequest.FormValue("name")

	now := time.Now()
	reqStartTime, ok := parseStartTime(clientRequest.FormValue("starttime"), now)
	if !ok {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	rawEndTime := clientRequest.FormValue("endtime")
	reqEndTime := now // Default end is now
	if rawEndTime != "now" && rawEndTime != "" {
		var err error
		reqEndTime, err = time.Parse(time.RFC3339Nano, rawEndTime)
		if err != nil {
			serverResponder.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	// Query internal metric registry
	rawResults := search(reqName, reqNamespace, reqStartTime, reqEndTime)

	var results []metrics.JMetric
	for _, rawResult := range rawResults {
		results = append(results, rawResult.Convert())
	}

	if len(results) == 0 {
		jResp(baseCtx, serverResponder, Jerror{Msg: "Search returned no results"})
	} else {
		jResp(baseCtx, serverResponder, results)
	}
}

// Start time is empty (last minute), a relative duration, or RFC3339.
// Unparsable durations fall back to the last minute; start times in the future are refused.
func parseStartTime(raw string, now time.Time) (start time.Time, ok bool) {
	start = now.Add(-1 * time.Minute)
	ok = true

	if raw == "" {
		return
	}

	if raw[0] == '-' || raw[0] == '+' {
		dur, err := time.ParseDuration(raw)
		if err != nil {
			return
		}
		start = now.Add(dur)
	} else {
		var err error
		start, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			ok = false
			return
		}
	}

	if start.After(now) {
		ok = false
	}
	return
}
