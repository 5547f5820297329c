// Package chart renders rankings and growth curves as PNG images using
// go-chart. The images are what a dashboard embeds next to the 2D maps.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

// Options sizes the rendered image in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions is used for zero-valued Options fields.
var DefaultOptions = Options{Width: 1024, Height: 512}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultOptions.Width
	}
	if o.Height <= 0 {
		o.Height = DefaultOptions.Height
	}
	return o
}

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorOrange,
	gochart.ColorGreen,
	gochart.ColorRed,
	gochart.ColorYellow,
	gochart.ColorCyan,
	gochart.ColorAlternateGray,
}

// valueRange pads the top of the axis and keeps all-zero data drawable.
func valueRange(peak float64) *gochart.ContinuousRange {
	return &gochart.ContinuousRange{Min: 0, Max: max(peak*1.05, 1)}
}

// RankingBar draws the ranking as a descending bar chart, one bar per row.
func RankingBar(w io.Writer, r domain.Ranking, opts Options) error {
	if len(r.Rows) == 0 {
		return fmt.Errorf("ranking bar: %w", ErrNoData)
	}
	opts = opts.withDefaults()

	bars := make([]gochart.Value, len(r.Rows))
	var peak float64
	for i, row := range r.Rows {
		bars[i] = gochart.Value{Label: row.Entity, Value: row.Value}
		peak = max(peak, row.Value)
	}

	barWidth := max(opts.Width/(2*len(bars)), 4)
	graph := gochart.BarChart{
		Title:      fmt.Sprintf("Top %d by cumulative cases (%s)", len(r.Rows), r.Latest),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   barWidth,
		BarSpacing: max(barWidth/2, 1),
		Bars:       bars,
		XAxis:      gochart.Style{FontSize: 7},
		YAxis: gochart.YAxis{
			Range:          valueRange(peak),
			ValueFormatter: gochart.IntValueFormatter,
		},
	}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render ranking bar: %w", err)
	}
	return nil
}

// GrowthLines draws one line per curve for the given metric. Curves without
// a series for the metric, or with fewer than two points, are left out.
func GrowthLines(w io.Writer, curves []domain.GrowthCurve, kind domain.MetricKind, opts Options) error {
	opts = opts.withDefaults()

	var series []gochart.Series
	var peak float64
	for _, c := range curves {
		ts, err := curveSeries(c, kind)
		if err != nil {
			return err
		}
		if ts == nil || len(ts.Times) < 2 {
			continue
		}
		color := palette[len(series)%len(palette)]
		series = append(series, gochart.TimeSeries{
			Name:    c.Entity,
			XValues: ts.Times,
			YValues: ts.Values,
			Style:   gochart.Style{StrokeColor: color, StrokeWidth: 2},
		})
		for _, v := range ts.Values {
			peak = max(peak, v)
		}
	}
	if len(series) == 0 {
		return fmt.Errorf("growth lines: %w", ErrNoData)
	}

	graph := gochart.Chart{
		Title:      "Cumulative " + string(kind),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      opts.Width,
		Height:     opts.Height,
		XAxis:      gochart.XAxis{ValueFormatter: gochart.TimeValueFormatterWithFormat("2006-01-02")},
		YAxis: gochart.YAxis{
			Name:           string(kind),
			Range:          valueRange(peak),
			ValueFormatter: gochart.IntValueFormatter,
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render growth lines: %w", err)
	}
	return nil
}

func curveSeries(c domain.GrowthCurve, kind domain.MetricKind) (*domain.TimeSeries, error) {
	switch kind {
	case domain.MetricCases:
		return &c.Cases, nil
	case domain.MetricDeaths:
		return c.Deaths, nil
	default:
		return nil, fmt.Errorf("growth lines: %w: %q", domain.ErrUnknownMetric, kind)
	}
}
