// Command validate performs data integrity checks across the pandemic source
// tables before they are served. It verifies date headers, re-derives every
// aggregated series from the raw rows, checks cases and deaths tables against
// each other, and reports entity labels that pass through canonicalization
// unchanged.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -cases-global data/time_series_covid19_confirmed_global.csv \
//	  -deaths-global data/time_series_covid19_deaths_global.csv \
//	  -cases-us data/time_series_covid19_confirmed_US.csv \
//	  -deaths-us data/time_series_covid19_deaths_US.csv \
//	  -globe data/globe_totals.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sort"

	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type inputs struct {
	casesGlobal, deathsGlobal, casesUS, deathsUS, globe string
}

// pair is the raw and aggregated form of one table.
type pair struct {
	raw   domain.RawTable
	table domain.SeriesTable
}

func main() {
	var in inputs
	flag.StringVar(&in.casesGlobal, "cases-global", "", "global confirmed cases CSV")
	flag.StringVar(&in.deathsGlobal, "deaths-global", "", "global deaths CSV")
	flag.StringVar(&in.casesUS, "cases-us", "", "US confirmed cases CSV")
	flag.StringVar(&in.deathsUS, "deaths-us", "", "US deaths CSV")
	flag.StringVar(&in.globe, "globe", "", "preprocessed globe totals CSV")
	flag.Parse()

	if in.casesGlobal == "" && in.casesUS == "" && in.globe == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(os.Stdout, in))
}

func run(out io.Writer, in inputs) int {
	fmt.Fprintln(out, "=== Pandemic Data Integrity Validation ===")
	fmt.Fprintln(out)

	var src csvsource.Source
	tables := make(map[string]pair)
	for _, job := range []struct {
		path   string
		ds     domain.Dataset
		metric domain.MetricKind
	}{
		{in.casesGlobal, domain.DatasetGlobal, domain.MetricCases},
		{in.deathsGlobal, domain.DatasetGlobal, domain.MetricDeaths},
		{in.casesUS, domain.DatasetUS, domain.MetricCases},
		{in.deathsUS, domain.DatasetUS, domain.MetricDeaths},
	} {
		if job.path == "" {
			continue
		}
		raw, err := src.LoadTable(job.path, job.ds, job.metric)
		if err != nil {
			fmt.Fprintf(out, "FATAL: %v\n", err)
			return 1
		}
		table, err := domain.BuildSeriesTable(raw)
		if err != nil {
			fmt.Fprintf(out, "FATAL: %v\n", err)
			return 1
		}
		tables[tableName(job.ds, job.metric)] = pair{raw: raw, table: table}
	}

	var globe []domain.GlobeRow
	if in.globe != "" {
		var err error
		if globe, err = src.LoadGlobe(in.globe); err != nil {
			fmt.Fprintf(out, "FATAL: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		validateDateHeaders(tables),
		validateAggregation(tables),
		validateCasesDeaths(tables),
		validateGlobe(globe),
	}
	unmapped := passThroughLabels(tables, globe)

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	for _, name := range sortedKeys(tables) {
		t := tables[name]
		fmt.Fprintf(out, "%-14s %6d rows -> %4d entities, %4d date columns\n",
			name, len(t.raw.Rows), len(t.table.Rows), t.table.Axis.Len())
	}
	if globe != nil {
		fmt.Fprintf(out, "%-14s %6d rows\n", "globe", len(globe))
	}
	if len(unmapped) > 0 {
		fmt.Fprintf(out, "\nLabels passed through unchanged (%d): %v\n", len(unmapped), unmapped)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func tableName(ds domain.Dataset, metric domain.MetricKind) string {
	return string(ds) + "/" + string(metric)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ── Phase 1: Date Headers ──
// Every date column parses and the axis moves strictly forward.

func validateDateHeaders(tables map[string]pair) *phase {
	p := &phase{name: "Date Headers"}
	for _, name := range sortedKeys(tables) {
		axis := tables[name].table.Axis
		for _, h := range axis.Invalid() {
			p.errorf("%s: unparseable date header %q", name, h)
		}
		prev := -1
		for i, ok := range axis.Valid {
			if !ok {
				continue
			}
			if prev >= 0 && !axis.Times[i].After(axis.Times[prev]) {
				p.errorf("%s: %q does not follow %q", name, axis.Headers[i], axis.Headers[prev])
			}
			prev = i
		}
	}
	return p
}

// ── Phase 2: Aggregation ──
// Re-derives each entity's sum and mean coordinate from the raw rows.

func validateAggregation(tables map[string]pair) *phase {
	p := &phase{name: "Aggregation Invariants"}
	for _, name := range sortedKeys(tables) {
		t := tables[name]
		type acc struct {
			values   []float64
			lat, lon float64
			n        int
		}
		want := make(map[string]*acc)
		for _, r := range t.raw.Rows {
			key := domain.Canonicalize(r.Entity, r.SubRegion)
			if again := domain.Canonicalize(key, ""); again != key {
				p.errorf("%s: canonical name %q maps again to %q", name, key, again)
			}
			a, ok := want[key]
			if !ok {
				a = &acc{values: make([]float64, len(t.raw.DateHeaders))}
				want[key] = a
			}
			for i, v := range r.Values {
				a.values[i] += v
			}
			a.lat += r.Geo.Lat
			a.lon += r.Geo.Lon
			a.n++
		}

		if len(want) != len(t.table.Rows) {
			p.errorf("%s: %d distinct entities but %d aggregated series", name, len(want), len(t.table.Rows))
		}
		for _, s := range t.table.Rows {
			a, ok := want[s.Entity]
			if !ok {
				p.errorf("%s: aggregated entity %q has no source rows", name, s.Entity)
				continue
			}
			if !slices.EqualFunc(a.values, s.Values, floatEq) {
				p.errorf("%s: %s values differ from the raw sum", name, s.Entity)
			}
			if !floatEq(a.lat/float64(a.n), s.Geo.Lat) || !floatEq(a.lon/float64(a.n), s.Geo.Lon) {
				p.errorf("%s: %s coordinate is not the mean of %d rows", name, s.Entity, a.n)
			}
		}
	}
	return p
}

// ── Phase 3: Cases vs Deaths ──
// Both tables of a dataset share an axis and entity set, and deaths never
// exceed cases.

func validateCasesDeaths(tables map[string]pair) *phase {
	p := &phase{name: "Cases/Deaths Consistency"}
	for _, ds := range []domain.Dataset{domain.DatasetGlobal, domain.DatasetUS} {
		cases, okC := tables[tableName(ds, domain.MetricCases)]
		deaths, okD := tables[tableName(ds, domain.MetricDeaths)]
		if !okC || !okD {
			continue
		}
		if !slices.Equal(cases.table.Axis.Headers, deaths.table.Axis.Headers) {
			p.errorf("%s: cases and deaths date headers differ", ds)
			continue
		}
		for _, c := range cases.table.Rows {
			d, ok := deaths.table.Find(c.Entity)
			if !ok {
				p.errorf("%s: %s has cases but no deaths series", ds, c.Entity)
				continue
			}
			for i := range c.Values {
				if d.Values[i] > c.Values[i] {
					p.errorf("%s: %s deaths %.0f exceed cases %.0f on %s",
						ds, c.Entity, d.Values[i], c.Values[i], cases.table.Axis.Headers[i])
					break
				}
			}
		}
	}
	return p
}

// ── Phase 4: Globe ──
// Globe rows are on the sphere, non-negative and unique after
// canonicalization.

func validateGlobe(rows []domain.GlobeRow) *phase {
	p := &phase{name: "Globe Table"}
	seen := make(map[string]int)
	for i, r := range domain.CanonicalizeGlobeRows(rows) {
		line := i + 2
		if r.Entity == "" {
			p.errorf("line %d: empty entity", line)
		}
		if prev, dup := seen[r.Entity]; dup {
			p.errorf("line %d: %s duplicates line %d", line, r.Entity, prev)
		}
		seen[r.Entity] = line
		if math.Abs(r.Geo.Lat) > 90 || math.Abs(r.Geo.Lon) > 180 {
			p.errorf("line %d: %s coordinate (%g, %g) out of range", line, r.Entity, r.Geo.Lat, r.Geo.Lon)
		}
		if r.Cases < 0 || r.Deaths < 0 {
			p.errorf("line %d: %s has negative totals", line, r.Entity)
		}
		if r.Deaths > r.Cases {
			p.errorf("line %d: %s deaths exceed cases", line, r.Entity)
		}
	}
	return p
}

// passThroughLabels lists raw entity labels that no alias or territory rule
// touched. They are either already canonical or missing from the alias table.
func passThroughLabels(tables map[string]pair, globe []domain.GlobeRow) []string {
	aliases := domain.KnownAliases()
	canonical := make(map[string]bool, len(aliases))
	for _, to := range aliases {
		canonical[to] = true
	}
	for _, to := range domain.KnownTerritories() {
		canonical[to] = true
	}

	seen := make(map[string]bool)
	check := func(label, sub string) {
		if domain.Canonicalize(label, sub) == label && !canonical[label] {
			seen[label] = true
		}
	}
	for _, t := range tables {
		if t.raw.Dataset != domain.DatasetGlobal {
			continue
		}
		for _, r := range t.raw.Rows {
			check(r.Entity, r.SubRegion)
		}
	}
	for _, r := range globe {
		check(r.Entity, "")
	}
	return sortedKeys(seen)
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
