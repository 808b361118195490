package multivcfanalyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"seqreport/modules/testhelper"
	"seqreport/pkg/reportapi"
)

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := level + " " + msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	l.lines = append(l.lines, line)
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.log("error", msg, args...) }

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func addSummary(h *testhelper.Host, name, body string) {
	h.Add(searchKey, testhelper.File("/data/run1/"+name, "/data/run1", []byte(body)))
}

func TestWorkedExample(t *testing.T) {
	h := testhelper.New()
	addSummary(h, "MultiVCFAnalyzer.json", `{"S1": {"NR Aut": "100", "NrX": "5.5", "noCall": "low"}}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}

	if h.Summary == nil {
		t.Fatal("summary table not emitted")
	}
	rec, ok := h.Summary.Get("S1")
	if !ok {
		t.Fatalf("expected sample S1, got %v", h.Summary.Names())
	}
	if f, isNum := rec["NR Aut"].Float(); !isNum || f != 100 {
		t.Fatalf("NR Aut: got %v (num=%v), want 100", f, isNum)
	}
	if f, isNum := rec["NrX"].Float(); !isNum || f != 5.5 {
		t.Fatalf("NrX: got %v (num=%v), want 5.5", f, isNum)
	}
	if rec["noCall"].IsNumber() || rec["noCall"].String() != "low" {
		t.Fatalf("noCall: got %v, want text low", rec["noCall"])
	}

	if _, ok := h.DataFiles["multivcfanalyzer_metrics"]; !ok {
		t.Fatal("metrics data file not written")
	}
	if len(h.Sections) != 2 {
		t.Fatalf("expected two sections, got %d", len(h.Sections))
	}
}

func TestMetadataKeyExcluded(t *testing.T) {
	h := testhelper.New()
	addSummary(h, "MultiVCFAnalyzer.json",
		`{"metadata": {"version": "0.85"}, "S1": {"refCall": 10}}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}
	if h.Summary.Len() != 1 || !h.Summary.Has("S1") {
		t.Fatalf("expected only S1, got %v", h.Summary.Names())
	}
	for _, src := range h.Sources {
		if src.Sample == "metadata" {
			t.Fatal("metadata must not be registered as a data source")
		}
	}
}

func TestZeroDiscoverySkips(t *testing.T) {
	h := testhelper.New()

	err := New().Run(context.Background(), h)
	if !errors.Is(err, reportapi.ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
	if len(h.DataFiles) != 0 || len(h.Sections) != 0 || h.Summary != nil || len(h.Sources) != 0 {
		t.Fatal("skip must not write or emit anything")
	}
}

func TestAllSamplesIgnoredSkips(t *testing.T) {
	h := testhelper.New()
	h.IgnoreGlobs = []string{"S*"}
	addSummary(h, "MultiVCFAnalyzer.json", `{"S1": {"refCall": 10}}`)

	err := New().Run(context.Background(), h)
	if !errors.Is(err, reportapi.ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
	if len(h.DataFiles) != 0 || len(h.Sections) != 0 {
		t.Fatal("filtered-out run must not write or emit")
	}
}

func TestLastWriteWinsWholeRecord(t *testing.T) {
	log := &captureLogger{}
	h := testhelper.New()
	h.Log = log
	addSummary(h, "batch1.json", `{"S0": {"refCall": 1}, "S1": {"NR Aut": 1, "onlyFirst": 10}}`)
	addSummary(h, "batch2.json", `{"S1": {"NR Aut": 2}}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}

	rec, _ := h.Summary.Get("S1")
	if f, _ := rec["NR Aut"].Float(); f != 2 {
		t.Fatalf("expected last write to win, got NR Aut=%v", f)
	}
	if _, stale := rec["onlyFirst"]; stale {
		t.Fatal("overwrite must replace the whole record, not merge fields")
	}
	if names := h.Summary.Names(); names[0] != "S0" || names[1] != "S1" {
		t.Fatalf("first-seen order lost: %v", names)
	}
	if !log.contains("duplicate sample name") {
		t.Fatal("expected duplicate debug log")
	}
	if len(h.Sources) != 3 {
		t.Fatalf("expected a data source per occurrence, got %d", len(h.Sources))
	}
}

func TestUnparseableFileSkippedLocally(t *testing.T) {
	log := &captureLogger{}
	h := testhelper.New()
	h.Log = log
	addSummary(h, "broken.json", `{not json`)
	addSummary(h, "good.json", `{"S1": {"refCall": 3}}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !h.Summary.Has("S1") {
		t.Fatal("good file should still be parsed")
	}
	if !log.contains("could not parse MultiVCFAnalyzer JSON") {
		t.Fatal("expected warn log for the broken file")
	}
	if !log.contains("json decode failed") {
		t.Fatal("expected debug log with the decode error")
	}
}

func TestNonObjectEntriesSkipped(t *testing.T) {
	log := &captureLogger{}
	h := testhelper.New()
	h.Log = log
	addSummary(h, "MultiVCFAnalyzer.json", `{"S1": 42, "S2": {"refCall": 1}, "S3": null}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}
	if h.Summary.Len() != 1 || !h.Summary.Has("S2") {
		t.Fatalf("expected only S2, got %v", h.Summary.Names())
	}
	if len(h.Sources) != 1 {
		t.Fatalf("non-object entries must not register sources, got %d", len(h.Sources))
	}
	if !log.contains("not an object") {
		t.Fatal("expected debug log for non-object entries")
	}
}

func TestTrailingGarbageRejectsFile(t *testing.T) {
	h := testhelper.New()
	addSummary(h, "MultiVCFAnalyzer.json", `{"S1": {"refCall": 1}} trailing`)

	err := New().Run(context.Background(), h)
	if !errors.Is(err, reportapi.ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples after rejecting the file, got %v", err)
	}
}

func TestCleanedNamesAndProvenance(t *testing.T) {
	h := testhelper.New()
	h.CleanFn = func(name, root string) string {
		return strings.TrimSuffix(name, ".vcf")
	}
	addSummary(h, "MultiVCFAnalyzer.json", `{"S1.vcf": {"refCall": 1}}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !h.Summary.Has("S1") {
		t.Fatalf("expected cleaned name S1, got %v", h.Summary.Names())
	}
	if len(h.Sources) != 1 {
		t.Fatalf("expected one source, got %d", len(h.Sources))
	}
	src := h.Sources[0]
	if src.Sample != "S1" || src.Section != "all_sections" || src.File.Fn != "MultiVCFAnalyzer.json" {
		t.Fatalf("unexpected source %+v", src)
	}
}

func TestWriteDataFileErrorFailsModule(t *testing.T) {
	h := testhelper.New()
	h.WriteErr = errors.New("disk full")
	addSummary(h, "MultiVCFAnalyzer.json", `{"S1": {"refCall": 1}}`)

	err := New().Run(context.Background(), h)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected write error to propagate, got %v", err)
	}
	if len(h.Sections) != 0 {
		t.Fatal("sections must not be emitted after a failed write")
	}
}

func TestCatalogAndCharts(t *testing.T) {
	h := testhelper.New()
	addSummary(h, "MultiVCFAnalyzer.json", `{"S1": {"NR Aut": 10, "Snps Autosomal": 4}}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(h.Columns) != 11 {
		t.Fatalf("expected 11 catalog columns, got %d", len(h.Columns))
	}
	byMetric := make(map[string]reportapi.ColumnSpec, len(h.Columns))
	for _, col := range h.Columns {
		byMetric[col.Metric] = col
	}
	if col := byMetric["SNP Calls (all)"]; !col.Hidden || col.SharedKey != "snp_call" || col.Scale != "OrRd" {
		t.Fatalf("unexpected SNP Calls (all) spec %+v", col)
	}
	if col := byMetric["coverage(percent)"]; col.Hidden || col.SharedKey != "coverage" || col.Scale != "PuBuGn" {
		t.Fatalf("unexpected coverage(percent) spec %+v", col)
	}
	for _, metric := range []string{"refCall", "allPos", "noCall", "discardedRefCall", "discardedVarCall", "filteredVarCall", "unhandledGenotype"} {
		if byMetric[metric].SharedKey != "calls" {
			t.Fatalf("%s should share the calls key, got %q", metric, byMetric[metric].SharedKey)
		}
	}

	reads := h.Sections[0]
	if reads.Name != "Read Counts" || reads.Anchor != "multivcfanalyzer-read-counts" {
		t.Fatalf("unexpected first section %+v", reads)
	}
	if reads.Bar.ID != "multivcfanalyzer-read-counts-plot" || reads.Bar.YLab != "# Reads" {
		t.Fatalf("unexpected read chart %+v", reads.Bar)
	}
	if got := reads.Bar.Categories[0]; got.Metric != "NR Aut" || got.Label != "Autosomal Reads" {
		t.Fatalf("unexpected first category %+v", got)
	}

	snps := h.Sections[1]
	if snps.Anchor != "multivcfanalyzer-snp-counts" || snps.Bar.YLab != "# SNPs" {
		t.Fatalf("unexpected snp section %+v", snps)
	}
	wantCats := []string{"Snps Autosomal", "XSnps", "YSnps"}
	for i, cat := range snps.Bar.Categories {
		if cat.Metric != wantCats[i] {
			t.Fatalf("snp category %d: got %s, want %s", i, cat.Metric, wantCats[i])
		}
	}

	if reads.Bar.Data != h.Summary || snps.Bar.Data != h.Summary {
		t.Fatal("charts must plot the same filtered table the summary uses")
	}
}

func TestDocumentOrderPreserved(t *testing.T) {
	h := testhelper.New()
	addSummary(h, "MultiVCFAnalyzer.json", `{"Szz": {"refCall": 1}, "Saa": {"refCall": 2}}`)

	if err := New().Run(context.Background(), h); err != nil {
		t.Fatalf("run: %v", err)
	}
	names := h.Summary.Names()
	if names[0] != "Szz" || names[1] != "Saa" {
		t.Fatalf("document order lost: %v", names)
	}
}

func TestInfo(t *testing.T) {
	info := New().Info()
	if info.Name != "MultiVCFAnalyzer" || info.Anchor != "multivcfanalyzer" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Href == "" || info.Summary == "" {
		t.Fatal("expected href and summary")
	}
}
