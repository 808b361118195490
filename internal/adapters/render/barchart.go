package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"

	"seqreport/pkg/reportapi"
)

const (
	chartMargin    = 12
	chartRowHeight = 18
	chartRowGap    = 6
	chartPlotWidth = 640
)

// categoryPalette cycles when a chart declares more categories than colors
// and no explicit category color is set.
var categoryPalette = []color.RGBA{
	{R: 124, G: 181, B: 236, A: 255},
	{R: 67, G: 67, B: 72, A: 255},
	{R: 144, G: 237, B: 125, A: 255},
	{R: 247, G: 163, B: 92, A: 255},
	{R: 128, G: 133, B: 232, A: 255},
	{R: 241, G: 92, B: 128, A: 255},
}

var chartAxisColor = color.RGBA{R: 51, G: 51, B: 51, A: 255}

type barRow struct {
	widths []int
}

// renderBarPNG draws one horizontal bar per sample, stacking the chart's
// categories left to right and scaling widths to the largest stacked total.
// Samples that carry none of the charted metrics are left out entirely.
func renderBarPNG(chart *reportapi.BarChart) ([]byte, error) {
	if chart == nil || chart.Data == nil {
		return nil, fmt.Errorf("bar chart has no data")
	}
	if len(chart.Categories) == 0 {
		return nil, fmt.Errorf("bar chart has no categories")
	}

	var (
		rows     []barRow
		values   [][]float64
		maxTotal float64
	)
	for _, sample := range chart.Data.Names() {
		rec, _ := chart.Data.Get(sample)
		vals := make([]float64, len(chart.Categories))
		plottable := false
		total := 0.0
		for i, cat := range chart.Categories {
			v, ok := rec[cat.Metric]
			if !ok {
				continue
			}
			f, isNum := v.Float()
			if !isNum {
				continue
			}
			if f < 0 {
				f = 0
			}
			vals[i] = f
			total += f
			plottable = true
		}
		if !plottable {
			continue
		}
		values = append(values, vals)
		if total > maxTotal {
			maxTotal = total
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no plottable samples")
	}
	if maxTotal <= 0 {
		maxTotal = 1
	}
	for _, vals := range values {
		widths := make([]int, len(vals))
		for i, v := range vals {
			widths[i] = int(math.Round(v / maxTotal * chartPlotWidth))
		}
		rows = append(rows, barRow{widths: widths})
	}

	width := 2*chartMargin + chartPlotWidth
	height := 2*chartMargin + len(rows)*chartRowHeight + (len(rows)-1)*chartRowGap
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	// vertical baseline left of the bars
	axis := image.Rect(chartMargin-2, chartMargin, chartMargin, height-chartMargin)
	draw.Draw(img, axis, &image.Uniform{C: chartAxisColor}, image.Point{}, draw.Src)

	for rowIdx, row := range rows {
		y0 := chartMargin + rowIdx*(chartRowHeight+chartRowGap)
		x := chartMargin
		for catIdx, w := range row.widths {
			if w <= 0 {
				continue
			}
			c := categoryColor(chart.Categories[catIdx], catIdx)
			rect := image.Rect(x, y0, x+w, y0+chartRowHeight)
			draw.Draw(img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
			x += w
		}
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func categoryColor(cat reportapi.BarCategory, idx int) color.RGBA {
	if c, ok := parseHexColor(cat.Color); ok {
		return c
	}
	return categoryPalette[idx%len(categoryPalette)]
}

// parseHexColor reads #rgb and #rrggbb notations.
func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) == 0 || s[0] != '#' {
		return color.RGBA{}, false
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = hex[i]
			expanded[2*i+1] = hex[i]
		}
		hex = string(expanded)
	case 6:
	default:
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, true
}
