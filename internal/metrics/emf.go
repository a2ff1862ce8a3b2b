// Package metrics emits AWS CloudWatch Embedded Metrics Format (EMF)
// documents. EMF is structured JSON written to stdout; CloudWatch extracts
// the embedded metrics from the log stream, so emitting costs no API calls
// and adds no request latency.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// metricDef names a metric and its CloudWatch unit.
type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

// emfDirective is the _aws metadata block required by EMF.
type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

// cwMetric defines a namespace, its dimension sets, and metric definitions.
type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder accumulates dimensions, metric values, and properties for one
// EMF document. Fields are kept in insertion order so the emitted JSON is
// stable across runs. Not safe for concurrent use; create one per
// operation and Flush once.
type Recorder struct {
	namespace string
	dimKeys   []string
	defs      []metricDef
	fields    map[string]interface{}
	order     []string
}

var (
	// functionName is cached from AWS_LAMBDA_FUNCTION_NAME on first use.
	functionName string
	initOnce     sync.Once
)

// Out is where Flush writes. Overridable for tests.
var Out io.Writer = os.Stdout

// New creates a Recorder for the given CloudWatch namespace. When running
// inside Lambda, the FunctionName dimension is added automatically.
func New(namespace string) *Recorder {
	initOnce.Do(func() {
		functionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	})
	r := &Recorder{
		namespace: namespace,
		fields:    make(map[string]interface{}),
	}
	if functionName != "" {
		r.Dimension("FunctionName", functionName)
	}
	return r
}

// Dimension adds a dimension key-value pair. Dimensions are indexed in
// CloudWatch and appear as filterable attributes on every metric in the
// document.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimKeys = append(r.dimKeys, key)
	r.set(key, value)
	return r
}

// Metric records a named value with a CloudWatch unit. Use the Unit*
// constants.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.defs = append(r.defs, metricDef{Name: name, Unit: unit})
	r.set(name, value)
	return r
}

// Count records a count metric with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Duration records an elapsed time as a milliseconds metric.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Milliseconds()), UnitMilliseconds)
}

// Property adds a non-metric field. Properties are searchable in
// CloudWatch Logs Insights but create no metrics, so they are free.
func (r *Recorder) Property(key string, value interface{}) *Recorder {
	r.set(key, value)
	return r
}

func (r *Recorder) set(key string, value interface{}) {
	if _, seen := r.fields[key]; !seen {
		r.order = append(r.order, key)
	}
	r.fields[key] = value
}

// Flush serializes the document as one JSON line. EMF requires a single
// line; CloudWatch Logs extracts the metrics on ingestion. The Recorder
// must not be reused after flushing.
func (r *Recorder) Flush() {
	if len(r.defs) == 0 {
		return
	}

	doc := make(map[string]interface{}, len(r.fields)+1)
	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{r.dimKeys},
			Metrics:    r.defs,
		}},
	}
	for _, k := range r.order {
		doc[k] = r.fields[k]
	}

	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}
	fmt.Fprintln(Out, string(data))
}
