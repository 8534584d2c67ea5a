package metrics

import (
	"sort"
	"strings"
	"time"
)

// Prefix match of namespaces. Empty query matches all.
func matchesNamespace(metricNS, queryNS []string) (matches bool) {
	if len(metricNS) < len(queryNS) {
		return
	}
	for i := range queryNS {
		if queryNS[i] != "" && metricNS[i] != queryNS[i] {
			return
		}
	}
	matches = true
	return
}

// Time slices inside [start, end] (zero bounds are open), oldest first
func (registry *Registry) slicesBetween(start, end time.Time) (timestamps []time.Time) {
	for ts := range registry.metrics {
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })
	return
}

// Returns all metrics with the exact name (any when empty) under the namespace prefix inside the time window
func (registry *Registry) Search(name string, namespacePrefix []string, start, end time.Time) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	for _, ts := range registry.slicesBetween(start, end) {
		namespaces := make([]string, 0, len(registry.metrics[ts]))
		for nsStr := range registry.metrics[ts] {
			namespaces = append(namespaces, nsStr)
		}
		sort.Strings(namespaces)

		for _, nsStr := range namespaces {
			if !matchesNamespace(strings.Split(nsStr, "/"), namespacePrefix) {
				continue
			}
			for metricName, metric := range registry.metrics[ts][nsStr] {
				if name == "" || metricName == name {
					results = append(results, metric)
				}
			}
		}
	}
	return
}

// Lists distinct metric definitions matching the filters, without values or timestamps
func (registry *Registry) Discover(name, description string, namespacePrefix []string, unit string, metricType MetricType) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]Metric)
	for _, nsMap := range registry.metrics {
		for nsStr, metricsMap := range nsMap {
			if !matchesNamespace(strings.Split(nsStr, "/"), namespacePrefix) {
				continue
			}

			for _, metric := range metricsMap {
				switch {
				case name != "" && !strings.Contains(metric.Name, name):
					continue
				case description != "" && !strings.Contains(metric.Description, description):
					continue
				case unit != "" && metric.Value.Unit != unit:
					continue
				case metricType != "" && metric.Type != metricType:
					continue
				}

				key := nsStr + "|" + metric.Name
				if _, exists := seen[key]; exists {
					continue
				}
				seen[key] = Metric{
					Name:        metric.Name,
					Description: metric.Description,
					Namespace:   metric.Namespace,
					Type:        metric.Type,
					Value:       MetricValue{Unit: metric.Value.Unit},
				}
			}
		}
	}

	results = make([]Metric, 0, len(seen))
	for _, metric := range seen {
		results = append(results, metric)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return strings.Join(results[i].Namespace, "/") < strings.Join(results[j].Namespace, "/")
	})
	return
}
