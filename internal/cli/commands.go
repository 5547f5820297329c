package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/chart"
	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/geo"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
)

const (
	formatJSON    = "json"
	formatGeoJSON = "geojson"
)

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) writeBody(body []byte) error {
	if _, err := a.stdout.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (a *app) newMapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <global|us> <cases|deaths>",
		Short: "Print the categorical bubble map for one date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := domain.ParseDataset(args[0])
			if err != nil {
				return err
			}
			kind, err := domain.ParseMetricKind(args[1])
			if err != nil {
				return err
			}
			format := a.v.GetString("format")
			if err := checkFormat(format, formatJSON, formatGeoJSON); err != nil {
				return err
			}

			b, err := a.bundle(cmd.Context(), need{dataset: ds, deaths: kind == domain.MetricDeaths})
			if err != nil {
				return err
			}
			t, err := table(b, ds, kind)
			if err != nil {
				return err
			}
			idx, err := t.Axis.Resolve(a.v.GetString("date"))
			if err != nil {
				return err
			}
			m, err := domain.BuildCategoricalMap(*t, idx, a.v.GetString("basemap"))
			if err != nil {
				return err
			}

			if format == formatGeoJSON {
				body, err := geo.EncodeMap(m)
				if err != nil {
					return err
				}
				return a.writeBody(body)
			}
			return a.writeJSON(m)
		},
	}
	f := cmd.Flags()
	f.String("date", "", "source header (1/22/20) or ISO date; latest when empty")
	f.String("basemap", "", "basemap style; dataset default when empty")
	f.String("format", formatJSON, "output format (json, geojson)")
	return cmd
}

// rankingFor builds the top-K ranking of a dataset, attaching deaths when the
// deaths file is configured.
func (a *app) rankingFor(cmd *cobra.Command) (domain.Ranking, *domain.Bundle, domain.Dataset, error) {
	ds, err := domain.ParseDataset(a.v.GetString("dataset"))
	if err != nil {
		return domain.Ranking{}, nil, "", err
	}
	b, err := a.bundle(cmd.Context(), need{dataset: ds, deaths: true})
	if err != nil {
		return domain.Ranking{}, nil, "", err
	}
	cases, err := table(b, ds, domain.MetricCases)
	if err != nil {
		return domain.Ranking{}, nil, "", err
	}
	return domain.BuildRanking(*cases, b.Table(ds, domain.MetricDeaths), a.v.GetInt(flagTopK)), b, ds, nil
}

func (a *app) newRankingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Print the top-K entities by latest cumulative cases with their growth curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, _, err := a.rankingFor(cmd)
			if err != nil {
				return err
			}
			return a.writeJSON(r)
		},
	}
	cmd.Flags().String("dataset", string(domain.DatasetGlobal), "dataset (global, us)")
	return cmd
}

func (a *app) newChartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "chart <ranking|growth>",
		Short:     "Render the ranking bar chart or the growth line chart as PNG",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"ranking", "growth"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseMetricKind(a.v.GetString("metric"))
			if err != nil {
				return err
			}
			opts := chart.Options{Width: a.v.GetInt("width"), Height: a.v.GetInt("height")}

			r, b, ds, err := a.rankingFor(cmd)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			switch args[0] {
			case "ranking":
				err = chart.RankingBar(&buf, r, opts)
			case "growth":
				curves := r.Growth
				if entities := a.v.GetStringSlice("entity"); len(entities) > 0 {
					cases, _ := table(b, ds, domain.MetricCases)
					curves = domain.CompareEntities(*cases, b.Table(ds, domain.MetricDeaths), entities)
				}
				err = chart.GrowthLines(&buf, curves, kind, opts)
			}
			if err != nil {
				return err
			}
			return a.writeFile(a.v.GetString("out"), buf.Bytes())
		},
	}
	f := cmd.Flags()
	f.String("dataset", string(domain.DatasetGlobal), "dataset (global, us)")
	f.String("metric", string(domain.MetricCases), "growth chart metric (cases, deaths)")
	f.StringSlice("entity", nil, "entities to draw on the growth chart; top-K when empty")
	f.String("out", "-", "output file, - for stdout")
	f.Int("width", chart.DefaultOptions.Width, "image width in pixels")
	f.Int("height", chart.DefaultOptions.Height, "image height in pixels")
	return cmd
}

func (a *app) writeFile(path string, body []byte) (err error) {
	if path == "" || path == "-" {
		if _, err := a.stdout.Write(body); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		return nil
	}

	f, err := a.createFile(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (a *app) newGlobeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "globe",
		Short: "Print the layered globe scene, optionally focused on one entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := domain.ParseMetricKind(a.v.GetString("metric"))
			if err != nil {
				return err
			}
			format := a.v.GetString("format")
			if err := checkFormat(format, formatJSON, formatGeoJSON); err != nil {
				return err
			}

			// The global cases table supplies focus coordinates for
			// entities missing from the globe table.
			b, err := a.bundle(cmd.Context(), need{dataset: domain.DatasetGlobal, globe: true})
			if err != nil {
				return err
			}
			points, err := domain.PointsFromGlobeRows(b.Globe, kind)
			if err != nil {
				return err
			}

			g := domain.NewGlobe(b.FocusLocations(), domain.GlobeOptions{Seed: a.v.GetUint64(flagSeed)})
			if name := a.v.GetString("focus"); name != "" {
				entity := domain.Canonicalize(name, "")
				if !g.Focus(entity) {
					a.logger().Warn("focus entity not found, keeping global view", "entity", entity)
				}
			}
			scene, err := g.Render(points, kind)
			if err != nil {
				return err
			}

			if format == formatGeoJSON {
				body, err := geo.EncodeScene(scene)
				if err != nil {
					return err
				}
				return a.writeBody(body)
			}
			return a.writeJSON(scene)
		},
	}
	f := cmd.Flags()
	f.String("metric", string(domain.MetricCases), "metric (cases, deaths)")
	f.String("focus", "", "entity to focus the camera on")
	f.String("format", formatJSON, "output format (json, geojson)")
	return cmd
}
