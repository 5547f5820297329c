// Package cli implements the pandemicviz command tree. Every subcommand
// builds the dataset bundle from local CSV files and prints one render-ready
// dataset to stdout.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/couchcryptid/pandemic-map-etl/internal/observability"
	"github.com/couchcryptid/pandemic-map-etl/internal/pipeline"
)

// EnvPrefix is prepended to every flag bound from the environment, so
// --cases-global reads PANDEMIC_CASES_GLOBAL.
const EnvPrefix = "PANDEMIC"

// Persistent flag names.
const (
	flagCasesGlobal  = "cases-global"
	flagDeathsGlobal = "deaths-global"
	flagCasesUS      = "cases-us"
	flagDeathsUS     = "deaths-us"
	flagGlobe        = "globe"
	flagLogLevel     = "log-level"
	flagTopK         = "top-k"
	flagSeed         = "seed"
)

// app carries what every subcommand needs.
type app struct {
	v          *viper.Viper
	stdout     io.Writer
	stderr     io.Writer
	createFile func(name string) (io.WriteCloser, error)
}

func createFile(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// NewRootCommand creates the root command with its persistent flags and
// subcommands. Output goes to stdout and logs to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr, createFile: createFile}

	cmd := &cobra.Command{
		Use:   "pandemicviz",
		Short: "Render pandemic case and death tables as map, chart and globe datasets",
		Long: "pandemicviz loads the time-series CSV files, canonicalizes and aggregates\n" +
			"them, and prints one render-ready dataset: a categorical map, a top-K\n" +
			"ranking, a PNG chart or a layered globe scene.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bindFlags(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.String(flagCasesGlobal, "data/time_series_covid19_confirmed_global.csv", "global confirmed cases CSV")
	pf.String(flagDeathsGlobal, "data/time_series_covid19_deaths_global.csv", "global deaths CSV")
	pf.String(flagCasesUS, "data/time_series_covid19_confirmed_US.csv", "US confirmed cases CSV")
	pf.String(flagDeathsUS, "data/time_series_covid19_deaths_US.csv", "US deaths CSV")
	pf.String(flagGlobe, "data/globe_totals.csv", "preprocessed globe totals CSV")
	pf.String(flagLogLevel, "warn", "log level (debug, info, warn, error)")
	pf.Int(flagTopK, domain.DefaultTopK, "number of ranked entities")
	pf.Uint64(flagSeed, 1, "globe altitude jitter seed")

	cmd.AddCommand(
		a.newMapCommand(),
		a.newRankingCommand(),
		a.newChartCommand(),
		a.newGlobeCommand(),
	)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// bindFlags layers flags over PANDEMIC_* environment variables over defaults.
func (a *app) bindFlags(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// Execute runs the command tree against os.Args and returns the process exit
// code.
func Execute() int {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) logger() *slog.Logger {
	return observability.NewLoggerTo(a.stderr, a.v.GetString(flagLogLevel), "text")
}

// need selects the source files a subcommand reads.
type need struct {
	dataset domain.Dataset
	deaths  bool
	globe   bool
}

func (a *app) sources(n need) pipeline.Sources {
	var s pipeline.Sources
	switch n.dataset {
	case domain.DatasetGlobal:
		s.CasesGlobal = a.v.GetString(flagCasesGlobal)
		if n.deaths {
			s.DeathsGlobal = a.v.GetString(flagDeathsGlobal)
		}
	case domain.DatasetUS:
		s.CasesUS = a.v.GetString(flagCasesUS)
		if n.deaths {
			s.DeathsUS = a.v.GetString(flagDeathsUS)
		}
	}
	if n.globe {
		s.Globe = a.v.GetString(flagGlobe)
	}
	return s
}

// bundle runs the extract and transform stages once for the needed files.
func (a *app) bundle(ctx context.Context, n need) (*domain.Bundle, error) {
	logger := a.logger()
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	transformer := pipeline.NewTransformer(nil, logger, metrics)
	p := pipeline.New(csvsource.Source{}, transformer, nil, a.sources(n), logger, metrics)
	return p.Build(ctx)
}

// table returns a loaded table or an error naming the flag that supplies it.
func table(b *domain.Bundle, ds domain.Dataset, kind domain.MetricKind) (*domain.SeriesTable, error) {
	t := b.Table(ds, kind)
	if t == nil {
		return nil, fmt.Errorf("%s %s table is not loaded", ds, kind)
	}
	return t, nil
}

var errUnknownFormat = errors.New("unknown output format")

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("%w %q: want one of %v", errUnknownFormat, format, allowed)
}
