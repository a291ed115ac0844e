package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/indicator-cli/pkg/geosearch"
	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// SearchKeyField tags flattened distance rows with their search key.
const SearchKeyField = "search_key"

var (
	distLocation   string
	distDistance   float64
	distType       string
	distFolder     string
	distWithAssets bool
	distIndicator  string
)

var searchDistanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Search indicators within a radius of a location",
	Long:  "Finds indicators within --distance of --location, resolves each one to its actual values, and writes them keyed by search key.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("search"); err != nil {
			return err
		}

		client := newGeosearchClient(cfg)
		results, err := client.SearchByDistance(ctx, geosearch.DistanceQuery{
			Location:                    distLocation,
			Distance:                    distDistance,
			DistanceType:                distType,
			IncludeIndicatorsWithAssets: geosearch.Bool(distWithAssets),
			FolderName:                  distFolder,
			Indicator:                   distIndicator,
		})
		if err != nil {
			return eris.Wrap(err, "search distance")
		}

		zap.L().Info("search distance: resolved indicators",
			zap.String("location", distLocation),
			zap.Int("indicators", results.Len()),
		)

		return writeOutput(ctx, cmd.OutOrStdout(), cfg, results, func() []tabular.Record {
			return results.Flatten(SearchKeyField)
		})
	},
}

func init() {
	f := searchDistanceCmd.Flags()
	f.StringVar(&distLocation, "location", "", "city, address or place to search around (required)")
	f.Float64Var(&distDistance, "distance", 0, "search radius (required)")
	f.StringVar(&distType, "distance-type", "km", "radius unit: km or miles")
	f.StringVar(&distFolder, "folder", geosearch.DefaultFolder, "folder: Any, Retail, Residential, Country Specific, Office")
	f.BoolVar(&distWithAssets, "with-assets", true, "only indicators with an associated asset (false: only those without)")
	f.StringVar(&distIndicator, "indicator", "", "restrict to one indicator name id")
	_ = searchDistanceCmd.MarkFlagRequired("location")
	_ = searchDistanceCmd.MarkFlagRequired("distance")
	searchCmd.AddCommand(searchDistanceCmd)
}
