// Package render assembles the outputs of a finished report run: the
// self-contained HTML page, machine-readable data files and chart images,
// all written through the artifact store under the run's key prefix. It
// also houses the publish worker that copies a stored run between stores.
package render

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"seqreport/internal/artifact"
	"seqreport/internal/report"
	"seqreport/pkg/reportapi"
)

// Option customizes a Renderer.
type Option func(*Renderer)

// WithFormat selects the data-file format.
func WithFormat(f Format) Option {
	return func(r *Renderer) {
		if f != "" {
			r.format = f
		}
	}
}

// WithPrefix sets the artifact key prefix runs are stored under.
func WithPrefix(prefix string) Option {
	return func(r *Renderer) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithLogger sets the renderer's logger.
func WithLogger(l reportapi.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// Renderer writes one run's report artifacts.
type Renderer struct {
	store  artifact.Store
	format Format
	prefix string
	logger reportapi.Logger
}

// NewRenderer constructs a renderer over the given store.
func NewRenderer(store artifact.Store, opts ...Option) *Renderer {
	r := &Renderer{
		store:  store,
		format: FormatJSON,
		prefix: "runs",
		logger: reportapi.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Output lists what a render stored.
type Output struct {
	ReportKey    string   `json:"report_key"`
	ArtifactKeys []string `json:"artifact_keys"`
}

// Render stores the run's chart images, data files and HTML page. Every
// write goes through the artifact store create-only, so re-rendering an
// already stored run fails instead of overwriting it. A chart that cannot
// be drawn is logged and left out; a failed store write aborts the render.
func (r *Renderer) Render(ctx context.Context, rep *report.Report) (Output, error) {
	if rep == nil {
		return Output{}, fmt.Errorf("nothing to render")
	}
	if rep.RunID == "" {
		return Output{}, fmt.Errorf("report has no run id")
	}
	if r.store == nil {
		return Output{}, fmt.Errorf("renderer requires an artifact store")
	}
	base := path.Join(r.prefix, rep.RunID)
	out := Output{}

	images := make(map[string][]byte)
	for _, section := range rep.Sections {
		if section.Bar == nil {
			continue
		}
		img, err := renderBarPNG(section.Bar)
		if err != nil {
			r.logger.Warn("bar chart skipped", "section", section.Anchor, "error", err)
			continue
		}
		images[section.Anchor] = img
		key := path.Join(base, "plots", section.Bar.ID+".png")
		meta := map[string]string{"run_id": rep.RunID, "section": section.Anchor}
		if err := r.put(ctx, key, "image/png", img, meta); err != nil {
			return Output{}, err
		}
		out.ArtifactKeys = append(out.ArtifactKeys, key)
	}

	files := make([]report.DataFile, 0, len(rep.DataFiles)+1)
	if rep.General != nil && rep.General.Len() > 0 {
		files = append(files, report.DataFile{Name: "general_stats", Data: rep.General.Table()})
	}
	files = append(files, rep.DataFiles...)
	for _, df := range files {
		keys, err := r.writeDataFile(ctx, base, rep.RunID, df)
		if err != nil {
			return Output{}, err
		}
		out.ArtifactKeys = append(out.ArtifactKeys, keys...)
	}

	page := buildHTML(rep, images)
	reportKey := path.Join(base, "report.html")
	if err := r.put(ctx, reportKey, "text/html; charset=utf-8", page, map[string]string{"run_id": rep.RunID}); err != nil {
		return Output{}, err
	}
	out.ReportKey = reportKey
	out.ArtifactKeys = append(out.ArtifactKeys, reportKey)

	r.logger.Info("report rendered", "run", rep.RunID, "artifacts", len(out.ArtifactKeys))
	return out, nil
}

// writeDataFile stores one payload in the configured formats. Payloads that
// are not table-shaped always fall back to JSON so no data file is lost to
// a TSV-only configuration.
func (r *Renderer) writeDataFile(ctx context.Context, base, runID string, df report.DataFile) ([]string, error) {
	if df.Name == "" {
		return nil, fmt.Errorf("data file without a name")
	}
	table, isTable := tableOf(df.Data)
	wantJSON := r.format.wantsJSON()
	if r.format.wantsTSV() && !isTable {
		r.logger.Debug("data file is not tabular, writing json", "name", df.Name)
		wantJSON = true
	}

	var keys []string
	if wantJSON {
		payload, err := encodeJSON(df.Data)
		if err != nil {
			return nil, fmt.Errorf("data file %s: %w", df.Name, err)
		}
		key := path.Join(base, "data", dataFileName(df.Name, "json"))
		if err := r.put(ctx, key, "application/json", payload, map[string]string{"run_id": runID, "data_file": df.Name}); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if r.format.wantsTSV() && isTable {
		payload, err := encodeTSV(table)
		if err != nil {
			return nil, fmt.Errorf("data file %s: %w", df.Name, err)
		}
		key := path.Join(base, "data", dataFileName(df.Name, "tsv"))
		if err := r.put(ctx, key, "text/tab-separated-values", payload, map[string]string{"run_id": runID, "data_file": df.Name}); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (r *Renderer) put(ctx context.Context, key, contentType string, payload []byte, meta map[string]string) error {
	opts := artifact.PutOptions{ContentType: contentType, Metadata: meta}
	if _, err := r.store.Put(ctx, key, bytes.NewReader(payload), opts); err != nil {
		return fmt.Errorf("store artifact %s: %w", key, err)
	}
	return nil
}

// Presign returns a time-limited GET URL for a stored artifact when the
// store supports it.
func (r *Renderer) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return r.store.PresignURL(ctx, key, artifact.SignedURLOptions{Method: "GET", Expiry: expiry})
}
