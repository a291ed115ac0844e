package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/indicator-cli/pkg/geosearch"
	"github.com/sells-group/indicator-cli/pkg/tabular"
)

var natLocation string

var searchNationalCmd = &cobra.Command{
	Use:   "national",
	Short: "Fetch all national indicators for a country",
	Long:  "Fetches the national indicators of the country containing --location (Australia only for now), keyed by folder.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("search"); err != nil {
			return err
		}

		client := newGeosearchClient(cfg)
		q := geosearch.NationalQuery{Location: natLocation}

		if wantsRows(exportConfig(cfg)) {
			rows, err := client.NationalIndicatorsTable(ctx, q)
			if err != nil {
				return eris.Wrap(err, "search national")
			}
			zap.L().Info("search national: flattened rows", zap.Int("rows", len(rows)))
			return writeRows(cmd, rows)
		}

		results, err := client.NationalIndicators(ctx, q)
		if err != nil {
			return eris.Wrap(err, "search national")
		}
		zap.L().Info("search national: resolved folders", zap.Int("folders", results.Len()))
		return writeOutput(ctx, cmd.OutOrStdout(), cfg, results, func() []tabular.Record {
			return results.Flatten(geosearch.FolderField)
		})
	},
}

// writeRows writes already-flat rows; nested formats get the rows as a list.
func writeRows(cmd *cobra.Command, rows []tabular.Record) error {
	if rows == nil {
		rows = []tabular.Record{}
	}
	return writeOutput(cmd.Context(), cmd.OutOrStdout(), cfg, rows, func() []tabular.Record { return rows })
}

func init() {
	searchNationalCmd.Flags().StringVar(&natLocation, "location", geosearch.DefaultNationalLocation, "any city or place in the target country")
	searchCmd.AddCommand(searchNationalCmd)
}
