// Command seqreport scans analysis directories for recognised tool output,
// runs the registered report modules and writes the rendered report through
// the configured artifact store.
//
// Exit codes: 0 on success (including runs where every module skipped),
// 1 when the run itself fails, 2 on flag or configuration errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"seqreport/internal/adapters/render"
	"seqreport/internal/artifact"
	"seqreport/internal/config"
	"seqreport/internal/discovery"
	"seqreport/internal/logging"
	"seqreport/internal/provenance"
	"seqreport/internal/report"
	"seqreport/modules/multivcfanalyzer"
	"seqreport/pkg/reportapi"
)

// exitFunc indirection lets tests intercept the exit code.
var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

// publishWait bounds how long the CLI waits for the publish worker before
// giving up on the job.
const publishWait = 10 * time.Minute

// stringList collects values of a repeatable flag in the order given.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	*l = append(*l, v)
	return nil
}

// builtinModules returns every module compiled into the binary, in report
// order.
func builtinModules() []reportapi.Module {
	return []reportapi.Module{
		multivcfanalyzer.New(),
	}
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seqreport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath   string
		outDir       string
		analysisDirs stringList
		only         stringList
		listModules  bool
		publish      bool
	)
	fs.StringVar(&configPath, "config", "", "path to the YAML configuration file")
	fs.Var(&analysisDirs, "analysis-dir", "analysis directory to scan (repeatable, overrides the config)")
	fs.StringVar(&outDir, "outdir", "", "write the report under this directory (forces the filesystem store)")
	fs.Var(&only, "module", "run only the named module (repeatable)")
	fs.BoolVar(&listModules, "list-modules", false, "list the built-in modules and exit")
	fs.BoolVar(&publish, "publish", false, "copy the finished run to the publish store")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if listModules {
		for _, m := range builtinModules() {
			info := m.Info()
			fmt.Fprintf(stdout, "%s\t%s\t%s\n", info.Name, info.Anchor, info.Summary)
		}
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "seqreport: %v\n", err)
		return 2
	}
	if len(analysisDirs) > 0 {
		cfg.AnalysisDirs = analysisDirs
	}
	if outDir != "" {
		cfg.Artifact.Driver = string(artifact.DriverFilesystem)
		cfg.Artifact.FSRoot = outDir
	}
	if len(cfg.AnalysisDirs) == 0 {
		fmt.Fprintln(stderr, "seqreport: no analysis directories (use -analysis-dir or analysis_dirs in the config)")
		return 2
	}
	if publish && cfg.Publish.Driver == "" {
		fmt.Fprintln(stderr, "seqreport: -publish requires publish.driver in the config")
		return 2
	}

	registry := report.NewRegistry()
	for _, m := range builtinModules() {
		if err := registry.Register(m); err != nil {
			fmt.Fprintf(stderr, "seqreport: register module: %v\n", err)
			return 2
		}
	}
	if len(only) > 0 {
		registry, err = restrictRegistry(registry, only)
		if err != nil {
			fmt.Fprintf(stderr, "seqreport: %v\n", err)
			return 2
		}
	}

	logger, flush, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(stderr, "seqreport: %v\n", err)
		return 2
	}
	defer flush()

	return run(context.Background(), cfg, registry, logger, publish, stdout, stderr)
}

// restrictRegistry builds a registry holding only the named modules, in the
// order they were requested.
func restrictRegistry(registry *report.Registry, names []string) (*report.Registry, error) {
	out := report.NewRegistry()
	for _, name := range names {
		m, ok := registry.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown module %q (use -list-modules)", name)
		}
		if err := out.Register(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func run(ctx context.Context, cfg *config.Config, registry *report.Registry, logger reportapi.Logger, publish bool, stdout, stderr io.Writer) int {
	patterns := discovery.DefaultPatterns()
	if cfg.Patterns.File != "" {
		loaded, err := discovery.LoadPatterns(cfg.Patterns.File)
		if err != nil {
			return fail(stderr, err)
		}
		patterns = loaded
	}
	scanner, err := discovery.NewScanner(patterns, discovery.Options{
		IgnoreDirs: cfg.Patterns.IgnoreDirs,
		MaxBytes:   cfg.Patterns.MaxBytes,
		Logger:     logger,
	})
	if err != nil {
		return fail(stderr, err)
	}
	index, err := scanner.Scan(cfg.AnalysisDirs)
	if err != nil {
		return fail(stderr, err)
	}

	archive, err := report.OpenArchive(report.ArchiveOptions{
		Driver:      report.ArchiveDriver(cfg.Archive.Driver),
		SQLitePath:  cfg.Archive.SQLitePath,
		PostgresDSN: cfg.Archive.PostgresDSN,
	})
	if err != nil {
		return fail(stderr, err)
	}
	defer func() {
		if err := archive.Close(); err != nil {
			logger.Warn("archive close failed", "error", err)
		}
	}()

	store, err := artifact.Open(ctx, artifact.Options{
		Driver: artifact.Driver(cfg.Artifact.Driver),
		FSRoot: cfg.Artifact.FSRoot,
		S3: artifact.S3Options{
			Bucket:    cfg.Artifact.S3.Bucket,
			Region:    cfg.Artifact.S3.Region,
			Endpoint:  cfg.Artifact.S3.Endpoint,
			PathStyle: cfg.Artifact.S3.PathStyle,
		},
	})
	if err != nil {
		return fail(stderr, err)
	}

	opts := []report.RunnerOption{
		report.WithLogger(logger),
		report.WithArchive(archive),
		report.WithCleaner(report.Cleaner{
			TrimExtensions: cfg.Samples.TrimExtensions,
			PrependDirs:    cfg.Samples.PrependDirs,
		}),
		report.WithIgnorePatterns(cfg.Samples.Ignore...),
		report.WithAuditRecorder(report.LogAuditRecorder{Logger: logger}),
	}
	switch cfg.Metrics.Exporter {
	case "prometheus":
		metrics, err := report.NewPrometheusMetricsRecorder(nil)
		if err != nil {
			return fail(stderr, err)
		}
		opts = append(opts, report.WithMetricsRecorder(metrics))
	case "", "expvar":
		opts = append(opts, report.WithMetricsRecorder(report.NewExpvarMetricsRecorder("")))
	}
	runner := report.NewRunner(registry, opts...)

	rep, err := runner.Run(ctx, report.RunRequest{
		Title: cfg.Output.Title,
		Roots: cfg.AnalysisDirs,
		Files: index,
	})
	if err != nil {
		return fail(stderr, err)
	}

	format, err := render.ParseFormat(cfg.Output.DataFormat)
	if err != nil {
		return fail(stderr, err)
	}
	renderer := render.NewRenderer(store,
		render.WithFormat(format),
		render.WithPrefix(cfg.Output.Prefix),
		render.WithLogger(logger),
	)
	out, err := renderer.Render(ctx, rep)
	if err != nil {
		return fail(stderr, err)
	}
	if err := runner.FinishRun(ctx, rep, out.ReportKey); err != nil {
		return fail(stderr, err)
	}

	printSummary(stdout, rep, out)

	if publish {
		if err := publishRun(ctx, cfg, store, logger, rep.RunID); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "published run %s\n", rep.RunID)
	}
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "seqreport: %v\n", err)
	return 1
}

func printSummary(w io.Writer, rep *report.Report, out render.Output) {
	for _, outcome := range rep.Outcomes {
		switch outcome.Status {
		case provenance.StatusError:
			fmt.Fprintf(w, "%-24s %s: %s\n", outcome.Name, outcome.Status, outcome.Error)
		case provenance.StatusSkipped:
			fmt.Fprintf(w, "%-24s %s\n", outcome.Name, outcome.Status)
		default:
			fmt.Fprintf(w, "%-24s %s (%d samples)\n", outcome.Name, outcome.Status, outcome.Samples)
		}
	}
	fmt.Fprintf(w, "report: %s (%d artifacts, %d samples)\n", out.ReportKey, len(out.ArtifactKeys), rep.SampleCount)
}

// publishRun copies the stored run into the publish store and waits for the
// worker to finish the job.
func publishRun(ctx context.Context, cfg *config.Config, src artifact.Store, logger reportapi.Logger, runID string) error {
	dst, err := artifact.Open(ctx, artifact.Options{
		Driver: artifact.Driver(cfg.Publish.Driver),
		FSRoot: cfg.Publish.FSRoot,
		S3: artifact.S3Options{
			Bucket:    cfg.Publish.S3.Bucket,
			Region:    cfg.Publish.S3.Region,
			Endpoint:  cfg.Publish.S3.Endpoint,
			PathStyle: cfg.Publish.S3.PathStyle,
		},
	})
	if err != nil {
		return fmt.Errorf("open publish store: %w", err)
	}

	pub := render.NewPublisher(src, dst,
		render.WithPublishLogger(logger),
		render.WithPublishPrefix(cfg.Output.Prefix),
		render.WithPublishAudit(report.LogAuditRecorder{Logger: logger}),
	)
	pub.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.Stop(stopCtx); err != nil {
			logger.Warn("publisher stop failed", "error", err)
		}
	}()

	job, err := pub.Enqueue(ctx, runID)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(publishWait)
	for {
		current, ok := pub.GetJob(job.ID)
		if ok {
			switch current.Status {
			case render.PublishStatusSucceeded:
				return nil
			case render.PublishStatusFailed:
				return fmt.Errorf("publish run %s: %s", runID, current.Error)
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("publish run %s: timed out after %s", runID, publishWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
