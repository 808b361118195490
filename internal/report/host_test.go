package report

import (
	"context"
	"testing"

	"seqreport/pkg/reportapi"
)

// runWithHost executes a single module body against a fresh runner and
// returns the assembled report.
func runWithHost(t *testing.T, runner *Runner, body func(h reportapi.Host) error) *Report {
	t.Helper()
	reg := NewRegistry()
	mustRegister(t, reg, namedModule("mod", func(_ context.Context, h reportapi.Host) error {
		return body(h)
	}))
	runner.registry = reg
	rep, err := runner.Run(context.Background(), RunRequest{ID: "run-host"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return rep
}

func TestHostFindLogFilesCopies(t *testing.T) {
	files := map[string][]reportapi.LogFile{
		"key": {{Path: "/a/one.json", Fn: "one.json"}},
	}
	reg := NewRegistry()
	mustRegister(t, reg, namedModule("mod", func(_ context.Context, h reportapi.Host) error {
		hits := h.FindLogFiles("key")
		if len(hits) != 1 || hits[0].Fn != "one.json" {
			t.Errorf("unexpected hits: %+v", hits)
		}
		hits[0].Fn = "mutated"
		again := h.FindLogFiles("key")
		if again[0].Fn != "one.json" {
			t.Errorf("mutation leaked into index: %+v", again)
		}
		if got := h.FindLogFiles("absent"); len(got) != 0 {
			t.Errorf("expected empty slice for unknown key, got %+v", got)
		}
		return nil
	}))
	if _, err := NewRunner(reg).Run(context.Background(), RunRequest{Files: files}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestHostCleanSampleName(t *testing.T) {
	runner := NewRunner(nil, WithCleaner(Cleaner{TrimExtensions: []string{".json", ".vcf"}}))
	runWithHost(t, runner, func(h reportapi.Host) error {
		if got := h.CleanSampleName("sub/dir/S1.vcf.json", ""); got != "S1" {
			t.Errorf("clean: got %q", got)
		}
		return nil
	})
}

func TestHostIgnoreSamples(t *testing.T) {
	runner := NewRunner(nil, WithIgnorePatterns("ctrl_*", "blank"))
	runWithHost(t, runner, func(h reportapi.Host) error {
		in := sampleTable("S1", "ctrl_1", "blank", "S2")
		out := h.IgnoreSamples(in)
		names := out.Names()
		if len(names) != 2 || names[0] != "S1" || names[1] != "S2" {
			t.Errorf("unexpected filtered names: %v", names)
		}
		if in.Len() != 4 {
			t.Errorf("input table must not shrink, got %d", in.Len())
		}
		if got := h.IgnoreSamples(nil); got == nil || got.Len() != 0 {
			t.Errorf("nil table should filter to empty table")
		}
		return nil
	})
}

func TestHostWriteDataFile(t *testing.T) {
	rep := runWithHost(t, NewRunner(nil), func(h reportapi.Host) error {
		if err := h.WriteDataFile(nil, "x"); err == nil {
			t.Errorf("expected payload error")
		}
		if err := h.WriteDataFile(map[string]int{"a": 1}, ""); err == nil {
			t.Errorf("expected name error")
		}
		if err := h.WriteDataFile(map[string]int{"a": 1}, "stats"); err != nil {
			t.Errorf("write: %v", err)
		}
		if err := h.WriteDataFile(map[string]int{"a": 2}, "stats"); err != nil {
			t.Errorf("rewrite: %v", err)
		}
		return nil
	})
	if len(rep.DataFiles) != 1 {
		t.Fatalf("expected single data file, got %+v", rep.DataFiles)
	}
	if got := rep.DataFiles[0].Data.(map[string]int)["a"]; got != 2 {
		t.Fatalf("expected last write to win, got %d", got)
	}
}

func TestHostAddSectionDefaults(t *testing.T) {
	rep := runWithHost(t, NewRunner(nil), func(h reportapi.Host) error {
		h.AddSection(reportapi.Section{Description: "bare"})
		h.AddSection(reportapi.Section{Name: "Named", Anchor: "named"})
		return nil
	})
	if len(rep.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(rep.Sections))
	}
	if rep.Sections[0].Name != "mod" || rep.Sections[0].Anchor != "mod" {
		t.Fatalf("expected module defaults, got %+v", rep.Sections[0])
	}
	if rep.Sections[1].Name != "Named" {
		t.Fatalf("explicit name overridden: %+v", rep.Sections[1])
	}
}

func TestHostTracksBarChartSamples(t *testing.T) {
	rep := runWithHost(t, NewRunner(nil), func(h reportapi.Host) error {
		h.AddSection(reportapi.Section{
			Name:   "Counts",
			Anchor: "counts",
			Bar:    &reportapi.BarChart{ID: "counts", Data: sampleTable("S1", "S2", "S3")},
		})
		return nil
	})
	if rep.Outcomes[0].Samples != 3 {
		t.Fatalf("expected 3 samples tracked, got %d", rep.Outcomes[0].Samples)
	}
}

type captureLogger struct {
	msgs []string
	args [][]any
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record(msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record(msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record(msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.record(msg, args) }

func (l *captureLogger) record(msg string, args []any) {
	l.msgs = append(l.msgs, msg)
	l.args = append(l.args, args)
}

func TestModuleLoggerTagsModule(t *testing.T) {
	base := &captureLogger{}
	runner := NewRunner(nil, WithLogger(base))
	runWithHost(t, runner, func(h reportapi.Host) error {
		h.Logger().Info("parsing", "file", "a.json")
		return nil
	})
	if len(base.msgs) == 0 || base.msgs[0] != "parsing" {
		t.Fatalf("expected module log, got %v", base.msgs)
	}
	args := base.args[0]
	var tagged bool
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == "module" && args[i+1] == "mod" {
			tagged = true
		}
	}
	if !tagged {
		t.Fatalf("expected module tag in args: %v", args)
	}
}
