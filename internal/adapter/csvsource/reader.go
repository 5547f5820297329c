// Package csvsource loads the delimited source tables into domain values.
// Columns are always resolved by header name; ordinal positions differ
// between the global and US files and between releases.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
)

// Schema names the identifier columns of a time-series table. Every other
// column is treated as a date column.
type Schema struct {
	Entity    []string // required; first match wins
	SubRegion []string // optional
	Lat       []string // required
	Lon       []string // required
	Metadata  []string // non-date columns to ignore
}

var (
	// GlobalSchema matches the global confirmed/deaths files.
	GlobalSchema = Schema{
		Entity:    []string{"Country/Region", "Country_Region"},
		SubRegion: []string{"Province/State", "Province_State"},
		Lat:       []string{"Lat"},
		Lon:       []string{"Long", "Long_"},
	}

	// USSchema matches the US county-level files, keyed by state.
	USSchema = Schema{
		Entity:   []string{"Province_State"},
		Lat:      []string{"Lat"},
		Lon:      []string{"Long_", "Long"},
		Metadata: []string{"UID", "iso2", "iso3", "code3", "FIPS", "Admin2", "Country_Region", "Combined_Key", "Population"},
	}
)

// SchemaFor returns the schema used for a dataset.
func SchemaFor(ds domain.Dataset) (Schema, error) {
	switch ds {
	case domain.DatasetGlobal:
		return GlobalSchema, nil
	case domain.DatasetUS:
		return USSchema, nil
	default:
		return Schema{}, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, ds)
	}
}

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// header indexes a header row by name.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// find returns the position of the first candidate present, or -1.
func (h header) find(candidates []string) int {
	for _, c := range candidates {
		if i, ok := h[c]; ok {
			return i
		}
	}
	return -1
}

func (h header) require(candidates []string) (int, error) {
	i := h.find(candidates)
	if i < 0 {
		return 0, fmt.Errorf("%w: one of %v", ErrMissingColumn, candidates)
	}
	return i, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows read missing cells as blank
	cr.TrimLeadingSpace = true
	return cr
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadTable parses a time-series table.
func ReadTable(r io.Reader, schema Schema, ds domain.Dataset, metric domain.MetricKind) (domain.RawTable, error) {
	cr := newCSVReader(r)

	head, err := cr.Read()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(head)

	entityCol, err := h.require(schema.Entity)
	if err != nil {
		return domain.RawTable{}, err
	}
	latCol, err := h.require(schema.Lat)
	if err != nil {
		return domain.RawTable{}, err
	}
	lonCol, err := h.require(schema.Lon)
	if err != nil {
		return domain.RawTable{}, err
	}
	subCol := h.find(schema.SubRegion)

	identifier := map[int]bool{entityCol: true, latCol: true, lonCol: true}
	if subCol >= 0 {
		identifier[subCol] = true
	}
	for _, name := range schema.Metadata {
		if i, ok := h[name]; ok {
			identifier[i] = true
		}
	}

	var dateCols []int
	table := domain.RawTable{Dataset: ds, Metric: metric}
	for i, name := range head {
		if identifier[i] {
			continue
		}
		dateCols = append(dateCols, i)
		table.DateHeaders = append(table.DateHeaders, strings.TrimSpace(name))
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("read line %d: %w", line, err)
		}

		values := make([]float64, len(dateCols))
		for j, c := range dateCols {
			values[j] = domain.ParseFloatOrZero(cell(row, c))
		}
		table.Rows = append(table.Rows, domain.RawRow{
			Entity:    cell(row, entityCol),
			SubRegion: cell(row, subCol),
			Geo: domain.Geo{
				Lat: domain.ParseFloatOrZero(cell(row, latCol)),
				Lon: domain.ParseFloatOrZero(cell(row, lonCol)),
			},
			Values: values,
		})
	}
	return table, nil
}

// Globe table column candidates.
var (
	globeEntity = []string{"Country", "Country/Region", "Country_Region"}
	globeLat    = []string{"Lat", "Latitude"}
	globeLon    = []string{"Long", "Long_", "Lon", "Longitude"}
	globeCases  = []string{"Cases", "Confirmed"}
	globeDeaths = []string{"Deaths"}
)

// ReadGlobe parses the preprocessed one-row-per-country globe table.
func ReadGlobe(r io.Reader) ([]domain.GlobeRow, error) {
	cr := newCSVReader(r)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(head)

	cols := make([]int, 5)
	for i, candidates := range [][]string{globeEntity, globeLat, globeLon, globeCases, globeDeaths} {
		if cols[i], err = h.require(candidates); err != nil {
			return nil, err
		}
	}

	var rows []domain.GlobeRow
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rows = append(rows, domain.GlobeRow{
			Entity: cell(row, cols[0]),
			Geo: domain.Geo{
				Lat: domain.ParseFloatOrZero(cell(row, cols[1])),
				Lon: domain.ParseFloatOrZero(cell(row, cols[2])),
			},
			Cases:  domain.ParseFloatOrZero(cell(row, cols[3])),
			Deaths: domain.ParseFloatOrZero(cell(row, cols[4])),
		})
	}
	return rows, nil
}

// Source reads tables from the local filesystem.
type Source struct{}

// LoadTable opens path and parses it with the dataset's schema.
func (Source) LoadTable(path string, ds domain.Dataset, metric domain.MetricKind) (domain.RawTable, error) {
	schema, err := SchemaFor(ds)
	if err != nil {
		return domain.RawTable{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f, schema, ds, metric)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// LoadGlobe opens and parses the globe table at path.
func (Source) LoadGlobe(path string) ([]domain.GlobeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadGlobe(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rows, nil
}
