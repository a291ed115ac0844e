package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/indicator-cli/internal/config"
	"github.com/sells-group/indicator-cli/internal/export"
	"github.com/sells-group/indicator-cli/pkg/geosearch"
	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// Output flags shared by every search subcommand.
var (
	outFormat  string
	outPath    string
	outTable   string
	outFlatten bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query the geosearch service",
	Long:  "Run distance, national and asset queries and write the results as JSON, YAML, CSV, XLSX, SQLite or Postgres.",
}

func init() {
	pf := searchCmd.PersistentFlags()
	pf.StringVar(&outFormat, "format", "", "output format: json, yaml, csv, xlsx, sqlite, postgres (default from config)")
	pf.StringVar(&outPath, "out", "", "output file (stdout for json, yaml and csv when empty)")
	pf.StringVar(&outTable, "table", "", "sheet or table name for xlsx, sqlite and postgres")
	pf.BoolVar(&outFlatten, "flatten", false, "write one row per observation instead of nested results")
	rootCmd.AddCommand(searchCmd)
}

// newGeosearchClient builds a client from the geosearch config section.
func newGeosearchClient(c *config.Config) geosearch.Client {
	return geosearch.NewClient(
		geosearch.WithBaseURL(c.Geosearch.BaseURL),
		geosearch.WithPort(c.Geosearch.Port),
		geosearch.WithTimeout(time.Duration(c.Geosearch.TimeoutSecs)*time.Second),
		geosearch.WithRateLimit(c.Geosearch.RequestsPerSecond),
		geosearch.WithLogger(zap.L()),
	)
}

// exportConfig applies the output flags on top of the export config section.
func exportConfig(c *config.Config) config.ExportConfig {
	ec := c.Export
	if outFormat != "" {
		ec.Format = outFormat
	}
	if outPath != "" {
		ec.Path = outPath
	}
	if outTable != "" {
		ec.Table = outTable
	}
	return ec
}

// wantsRows reports whether the chosen output needs flat rows.
func wantsRows(ec config.ExportConfig) bool {
	f, err := export.ParseFormat(ec.Format)
	return outFlatten || (err == nil && f.Tabular())
}

// writeOutput writes nested when the format allows it and flattening was not
// requested, otherwise rows.
func writeOutput(ctx context.Context, stdout io.Writer, c *config.Config, nested any, rows func() []tabular.Record) error {
	check := *c
	check.Export = exportConfig(c)
	if err := check.Validate("export"); err != nil {
		return err
	}
	ec := check.Export

	format, err := export.ParseFormat(ec.Format)
	if err != nil {
		return err
	}

	w := stdout
	switch format {
	case export.FormatJSON, export.FormatYAML, export.FormatCSV:
		if ec.Path == "" {
			break
		}
		f, err := os.Create(ec.Path)
		if err != nil {
			return eris.Wrapf(err, "search: create %s", ec.Path)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	if !format.Tabular() && !outFlatten {
		return export.WriteValue(w, format, nested)
	}

	target := export.Target{
		Format: format,
		Writer: w,
		Path:   ec.Path,
		Table:  ec.Table,
	}

	if format == export.FormatPostgres {
		pool, err := pgxpool.New(ctx, ec.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "search: create connection pool")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return eris.Wrap(err, "search: ping database")
		}
		target.Pool = pool
	}

	n, err := export.Write(ctx, target, rows())
	if err != nil {
		return eris.Wrapf(err, "search: write %s", format)
	}

	zap.L().Info("search: results written",
		zap.String("format", string(format)),
		zap.String("path", ec.Path),
		zap.Int("rows", n),
	)
	return nil
}
