package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"
)

func TestExpvarMetricsRecorderExports(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	if recorder.Name() == "" {
		t.Fatalf("expected recorder to have export name")
	}
	recorder.Observe(context.Background(), "run_module", true, 10*time.Millisecond)
	recorder.Observe(context.Background(), "run_module", false, 5*time.Millisecond)
	recorder.Observe(context.Background(), "", true, time.Millisecond)

	snapshot := recorder.Snapshot()
	if snapshot.DurationsMS["run_module"] <= 0 {
		t.Fatalf("expected positive duration, snapshot=%+v", snapshot)
	}
	if snapshot.Results["run_module"]["success"] != 1 || snapshot.Results["run_module"]["error"] != 1 {
		t.Fatalf("unexpected results snapshot=%+v", snapshot)
	}
	if len(snapshot.Results) != 1 {
		t.Fatalf("empty operation must be dropped: %+v", snapshot.Results)
	}

	if v := expvar.Get(recorder.Name()); v == nil {
		t.Fatalf("expected expvar export to be registered")
	} else if !strings.Contains(v.String(), "run_module") {
		t.Fatalf("expected expvar output to contain operation: %s", v.String())
	}
}

func TestExpvarMetricsRecorderNamed(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("seqreport_test_named_recorder")
	if recorder.Name() != "seqreport_test_named_recorder" {
		t.Fatalf("unexpected name %q", recorder.Name())
	}
}

func TestJSONTracerWritesAndRetains(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "run_module")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "run_module")
	span.End(errors.New("parse failed"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "parse failed" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if decoded.Operation != "run_module" || decoded.Error != "parse failed" {
		t.Fatalf("unexpected decoded entry: %+v", decoded)
	}
}

func TestJSONTracerNilWriter(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), "op")
	span.End(nil)
	if len(tracer.Entries()) != 1 {
		t.Fatalf("expected retained entry without writer")
	}
}

func TestLogAuditRecorder(t *testing.T) {
	base := &captureLogger{}
	rec := LogAuditRecorder{Logger: base}
	rec.Record(context.Background(), AuditEntry{
		Operation: "run_module",
		Status:    AuditStatusSuccess,
		Module:    "MultiVCFAnalyzer",
		Detail:    "2 samples",
	})

	if len(base.msgs) != 1 || base.msgs[0] != "audit" {
		t.Fatalf("expected one audit line, got %v", base.msgs)
	}
	args := base.args[0]
	got := make(map[string]any)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			got[key] = args[i+1]
		}
	}
	if got["operation"] != "run_module" || got["status"] != "success" || got["module"] != "MultiVCFAnalyzer" {
		t.Fatalf("unexpected audit fields: %v", got)
	}
}

func TestLogAuditRecorderNilLogger(t *testing.T) {
	LogAuditRecorder{}.Record(context.Background(), AuditEntry{Operation: "run_module"})
}
