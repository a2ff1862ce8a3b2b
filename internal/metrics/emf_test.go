package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestNew_AutoDimension(t *testing.T) {
	initOnce.Do(func() {})
	functionName = "TestFunction"

	r := New("TestNamespace")
	if r.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", r.namespace)
	}
	if r.fields["FunctionName"] != "TestFunction" {
		t.Errorf("expected FunctionName dimension TestFunction, got %v", r.fields["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	var buf bytes.Buffer
	old := Out
	Out = &buf
	defer func() { Out = old }()

	initOnce.Do(func() {})
	functionName = "" // test isolation

	rec := New("SnapGrade")
	rec.Dimension("Operation", "process")
	rec.Metric("PipelineLatencyMs", 1234.5, UnitMilliseconds)
	rec.Count("PipelineRunCount")
	rec.Property("jobId", "cmp-abc123")
	rec.Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsDir, ok := doc["_aws"]
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	awsMap, ok := awsDir.(map[string]interface{})
	if !ok {
		t.Fatal("_aws directive is not a map")
	}
	cms, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cms) != 1 {
		t.Fatalf("expected one CloudWatchMetrics entry, got %v", awsMap["CloudWatchMetrics"])
	}
	cm := cms[0].(map[string]interface{})
	if cm["Namespace"] != "SnapGrade" {
		t.Errorf("expected namespace SnapGrade, got %v", cm["Namespace"])
	}

	if doc["Operation"] != "process" {
		t.Errorf("expected Operation dimension process, got %v", doc["Operation"])
	}
	if doc["PipelineLatencyMs"] != 1234.5 {
		t.Errorf("expected PipelineLatencyMs 1234.5, got %v", doc["PipelineLatencyMs"])
	}
	if doc["PipelineRunCount"] != 1.0 {
		t.Errorf("expected PipelineRunCount 1, got %v", doc["PipelineRunCount"])
	}
	if doc["jobId"] != "cmp-abc123" {
		t.Errorf("expected jobId property, got %v", doc["jobId"])
	}
}

func TestRecorder_NoMetricsNoOutput(t *testing.T) {
	var buf bytes.Buffer
	old := Out
	Out = &buf
	defer func() { Out = old }()

	rec := New("SnapGrade")
	rec.Property("onlyProperty", "value")
	rec.Flush()

	if buf.Len() != 0 {
		t.Errorf("expected no output without metrics, got %s", buf.String())
	}
}

func TestRecorder_Duration(t *testing.T) {
	functionName = ""
	rec := New("SnapGrade").Duration("ElapsedMs", 1500*time.Millisecond)

	if rec.fields["ElapsedMs"] != float64(1500) {
		t.Errorf("expected ElapsedMs=1500, got %v", rec.fields["ElapsedMs"])
	}
	if len(rec.defs) != 1 || rec.defs[0].Unit != UnitMilliseconds {
		t.Errorf("expected a Milliseconds metric definition, got %v", rec.defs)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	functionName = ""
	rec := New("Test").
		Dimension("Op", "test").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls").
		Property("id", "xyz")

	if rec.fields["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.fields["Duration"] != float64(100) {
		t.Error("chaining Metric failed")
	}
	if rec.fields["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.fields["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
