package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"seqreport/pkg/reportapi"
)

func decodePNG(t *testing.T, payload []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func assertPixel(t *testing.T, img image.Image, x, y int, want color.RGBA) {
	t.Helper()
	r, g, b, a := img.At(x, y).RGBA()
	got := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	if got != want {
		t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, want)
	}
}

func TestRenderBarPNGGeometryAndColors(t *testing.T) {
	data := reportapi.NewTable()
	data.Set("A", reportapi.Record{
		"reads_aut": reportapi.Number(100),
		"reads_x":   reportapi.Number(50),
	})
	data.Set("B", reportapi.Record{"reads_aut": reportapi.Number(75)})
	chart := &reportapi.BarChart{
		ID:    "read-counts",
		Title: "Read Counts",
		Categories: []reportapi.BarCategory{
			{Metric: "reads_aut", Label: "Autosomal", Color: "#ff0000"},
			{Metric: "reads_x", Label: "X", Color: "#0000ff"},
		},
		Data: data,
	}

	payload, err := renderBarPNG(chart)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decodePNG(t, payload)

	wantWidth := 2*chartMargin + chartPlotWidth
	wantHeight := 2*chartMargin + 2*chartRowHeight + chartRowGap
	bounds := img.Bounds()
	if bounds.Dx() != wantWidth || bounds.Dy() != wantHeight {
		t.Fatalf("bounds %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), wantWidth, wantHeight)
	}

	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	// row A fills the plot: 427px autosomal then 213px X
	rowAY := chartMargin + chartRowHeight/2
	assertPixel(t, img, chartMargin+5, rowAY, red)
	assertPixel(t, img, chartMargin+500, rowAY, blue)

	// row B is 320px of autosomal, white beyond
	rowBY := chartMargin + chartRowHeight + chartRowGap + chartRowHeight/2
	assertPixel(t, img, chartMargin+5, rowBY, red)
	assertPixel(t, img, chartMargin+400, rowBY, white)

	// axis baseline left of the bars
	assertPixel(t, img, chartMargin-1, rowAY, chartAxisColor)
}

func TestRenderBarPNGDropsUnplottableSamples(t *testing.T) {
	data := reportapi.NewTable()
	data.Set("A", reportapi.Record{"reads_aut": reportapi.Number(10)})
	data.Set("B", reportapi.Record{"unrelated": reportapi.Number(99)})
	data.Set("C", reportapi.Record{"reads_aut": reportapi.Text("n/a")})
	chart := &reportapi.BarChart{
		ID:         "read-counts",
		Categories: []reportapi.BarCategory{{Metric: "reads_aut", Label: "Autosomal"}},
		Data:       data,
	}

	payload, err := renderBarPNG(chart)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decodePNG(t, payload)
	wantHeight := 2*chartMargin + chartRowHeight
	if img.Bounds().Dy() != wantHeight {
		t.Fatalf("height %d, want %d for a single plottable row", img.Bounds().Dy(), wantHeight)
	}
}

func TestRenderBarPNGErrors(t *testing.T) {
	if _, err := renderBarPNG(nil); err == nil {
		t.Fatal("expected error for nil chart")
	}
	if _, err := renderBarPNG(&reportapi.BarChart{ID: "x"}); err == nil {
		t.Fatal("expected error for chart without data")
	}
	empty := &reportapi.BarChart{ID: "x", Data: reportapi.NewTable()}
	if _, err := renderBarPNG(empty); err == nil {
		t.Fatal("expected error for chart without categories")
	}

	data := reportapi.NewTable()
	data.Set("A", reportapi.Record{"other": reportapi.Number(1)})
	unplottable := &reportapi.BarChart{
		ID:         "x",
		Categories: []reportapi.BarCategory{{Metric: "reads_aut"}},
		Data:       data,
	}
	if _, err := renderBarPNG(unplottable); err == nil || !strings.Contains(err.Error(), "no plottable samples") {
		t.Fatalf("expected no plottable samples error, got %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	if c, ok := parseHexColor("#ff8000"); !ok || c != (color.RGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Fatalf("unexpected result for #ff8000: %v %v", c, ok)
	}
	if c, ok := parseHexColor("#f00"); !ok || c != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("unexpected result for #f00: %v %v", c, ok)
	}
	for _, bad := range []string{"", "ff8000", "#ff80", "#zzzzzz"} {
		if _, ok := parseHexColor(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
