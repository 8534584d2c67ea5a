package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"servus/internal/global"
	"servus/internal/metrics"
	"testing"
	"time"
)

func TestHandleData(t *testing.T) {
	ctx := context.Background()

	var gotNamespace []string
	capture := func(name string, ns []string, start, end time.Time) []metrics.Metric {
		gotNamespace = ns
		return []metrics.Metric{{Name: name, Namespace: ns, Type: metrics.Gauge}}
	}

	tests := []struct {
		name       string
		path       string
		search     DataSearcher
		wantStatus int
		wantNS     []string
	}{
		{
			name:       "default times",
			path:       global.DataPath + "?name=test",
			search:     mockDataSearcher(nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid starttime",
			path:       global.DataPath + "?starttime=badtime",
			search:     mockDataSearcher(nil),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unparsable duration falls back to last minute",
			path:       global.DataPath + "?starttime=-5w",
			search:     mockDataSearcher(nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "relative end time refused",
			path:       global.DataPath + "?endtime=+2y",
			search:     mockDataSearcher(nil),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "relative start time past",
			path:       global.DataPath + "?starttime=-5m",
			search:     mockDataSearcher(nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "relative start time future",
			path:       global.DataPath + "?starttime=+15m",
			search:     mockDataSearcher(nil),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "absolute start time",
			path:       global.DataPath + "?starttime=2001-01-02T01:02:03.001Z",
			search:     mockDataSearcher(nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "namespace from path",
			path:       global.DataPath + "Servus/Queue/?name=depth",
			search:     capture,
			wantStatus: http.StatusOK,
			wantNS:     []string{"Servus", "Queue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotNamespace = nil
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)

			handleData(ctx, tt.search, rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantNS != nil {
				if len(gotNamespace) != len(tt.wantNS) {
					t.Fatalf("expected namespace %v, got %v", tt.wantNS, gotNamespace)
				}
				for i := range tt.wantNS {
					if gotNamespace[i] != tt.wantNS[i] {
						t.Fatalf("expected namespace %v, got %v", tt.wantNS, gotNamespace)
					}
				}
			}
		})
	}
}

func TestHandleDiscovery(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		query      string
		results    []metrics.Metric
		wantStatus int
		wantError  bool
	}{
		{
			name:       "empty results returns JSON error",
			query:      "",
			wantStatus: http.StatusOK,
			wantError:  true,
		},
		{
			name:       "valid results name only",
			query:      "?name=test",
			results:    []metrics.Metric{{Name: "test"}},
			wantStatus: http.StatusOK,
		},
		{
			name:  "valid results with namespace and type",
			query: "Servus/Fabulatorium/?name=test&type=counter",
			results: []metrics.Metric{
				{Name: "test", Namespace: []string{"Servus", "Fabulatorium"}, Type: metrics.Counter},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid type rejected",
			query:      "?type=summary",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, global.DiscoveryPath+tt.query, nil)

			handleDiscovery(ctx, mockDiscoverer(tt.results), rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			if tt.wantError {
				var jerr Jerror
				if err := json.Unmarshal(rr.Body.Bytes(), &jerr); err != nil || jerr.Msg == "" {
					t.Fatalf("expected JSON error body, got %q", rr.Body.String())
				}
				return
			}

			var results []metrics.JMetric
			if err := json.Unmarshal(rr.Body.Bytes(), &results); err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if len(results) != len(tt.results) {
				t.Fatalf("expected %d results, got %d", len(tt.results), len(results))
			}
		})
	}
}
