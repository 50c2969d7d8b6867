package telemetry

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Keep values low-cardinality: never put order,
// invoice or partner ids here.
const (
	ProfilingLabelOperation = "operation"
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelStage     = "stage"
)

const maxLabelValueLength = 64

// WithProfilingLabels runs fn with pprof labels so its CPU and allocation
// samples can be filtered in Pyroscope. Empty labels run fn directly.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels labels a named operation plus extra labels
func OperationLabels(operation string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	maps.Copy(labels, extra)
	labels[ProfilingLabelOperation] = operation
	return labels
}

// HTTPLabels labels an HTTP route
func HTTPLabels(method, route string) map[string]string {
	return map[string]string{
		ProfilingLabelMethod: method,
		ProfilingLabelRoute:  route,
	}
}

// labelPairs flattens labels into sorted key/value pairs, dropping empty
// keys and values and truncating long values.
func labelPairs(labels map[string]string) []string {
	keys := slices.Sorted(maps.Keys(labels))
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := strings.TrimSpace(labels[k])
		if k == "" || v == "" {
			continue
		}
		if len(v) > maxLabelValueLength {
			v = v[:maxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
