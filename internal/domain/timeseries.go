package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Source headers use the compact M/D/YY form;
// some re-exports widen the year.
var dateLayouts = []string{"1/2/06", "1/2/2006"}

// ParseDate parses a date column header.
func ParseDate(header string) (time.Time, error) {
	h := strings.TrimSpace(header)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, h); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date header %q", header)
}

// TimeAxis is the parsed form of a table's date headers, one entry per
// column in file order. Valid[i] is false when Headers[i] did not parse.
type TimeAxis struct {
	Headers []string    `json:"headers"`
	Times   []time.Time `json:"times"`
	Valid   []bool      `json:"valid"`
}

// ParseTimeAxis parses every header. A bad header marks that point invalid
// and does not affect the others.
func ParseTimeAxis(headers []string) TimeAxis {
	axis := TimeAxis{
		Headers: append([]string(nil), headers...),
		Times:   make([]time.Time, len(headers)),
		Valid:   make([]bool, len(headers)),
	}
	for i, h := range headers {
		t, err := ParseDate(h)
		if err != nil {
			continue
		}
		axis.Times[i] = t
		axis.Valid[i] = true
	}
	return axis
}

// Len returns the number of date columns, valid or not.
func (a TimeAxis) Len() int { return len(a.Headers) }

// Invalid returns the headers that failed to parse.
func (a TimeAxis) Invalid() []string {
	var out []string
	for i, ok := range a.Valid {
		if !ok {
			out = append(out, a.Headers[i])
		}
	}
	return out
}

// Latest returns the index of the last plottable column.
func (a TimeAxis) Latest() (int, bool) {
	for i := len(a.Valid) - 1; i >= 0; i-- {
		if a.Valid[i] {
			return i, true
		}
	}
	return 0, false
}

// IndexOf looks a column up by its header string.
func (a TimeAxis) IndexOf(header string) (int, bool) {
	for i, h := range a.Headers {
		if h == header {
			return i, true
		}
	}
	return 0, false
}

// Resolve turns a date selector into a column index. The selector is a
// source header such as 1/22/20, an ISO date, or empty for the latest
// plottable column.
func (a TimeAxis) Resolve(q string) (int, error) {
	if q == "" {
		i, ok := a.Latest()
		if !ok {
			return 0, fmt.Errorf("%w: table has no plottable dates", ErrInvalidDate)
		}
		return i, nil
	}
	if i, ok := a.IndexOf(q); ok {
		return i, nil
	}
	t, err := time.Parse(time.DateOnly, q)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, q)
	}
	for i, at := range a.Times {
		if a.Valid[i] && at.Equal(t) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrDateNotFound, q)
}

// TimeSeries pairs plottable timestamps with their values. Skipped lists the
// headers whose columns were dropped.
type TimeSeries struct {
	Times   []time.Time `json:"times"`
	Values  []float64   `json:"values"`
	Skipped []string    `json:"skipped,omitempty"`
}

// Series aligns values with the axis, dropping every invalid point so the
// result stays 1:1. Values beyond the axis length are ignored and missing
// values read as zero.
func (a TimeAxis) Series(values []float64) TimeSeries {
	ts := TimeSeries{
		Times:  make([]time.Time, 0, len(a.Headers)),
		Values: make([]float64, 0, len(a.Headers)),
	}
	for i, h := range a.Headers {
		if !a.Valid[i] {
			ts.Skipped = append(ts.Skipped, h)
			continue
		}
		var v float64
		if i < len(values) {
			v = values[i]
		}
		ts.Times = append(ts.Times, a.Times[i])
		ts.Values = append(ts.Values, v)
	}
	return ts
}

// ExtractTimeSeries turns date headers and one row of raw cells into an
// ordered series. Non-numeric cells read as zero.
func ExtractTimeSeries(headers, cells []string) TimeSeries {
	values := make([]float64, len(headers))
	for i := range headers {
		if i < len(cells) {
			values[i] = ParseFloatOrZero(cells[i])
		}
	}
	return ParseTimeAxis(headers).Series(values)
}

// ParseFloatOrZero parses a cell as float64, returning 0 on failure. NaN and
// infinities also read as zero so downstream sums stay finite.
func ParseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
