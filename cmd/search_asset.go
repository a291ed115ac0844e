package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var assetName string

var searchAssetCmd = &cobra.Command{
	Use:   "asset",
	Short: "List indicators linked to an asset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		client := newGeosearchClient(cfg)
		rows, err := client.IndicatorsForAsset(cmd.Context(), assetName)
		if err != nil {
			return eris.Wrapf(err, "search asset %s", assetName)
		}

		zap.L().Info("search asset: indicators found",
			zap.String("asset", assetName),
			zap.Int("indicators", len(rows)),
		)
		return writeRows(cmd, rows)
	},
}

func init() {
	searchAssetCmd.Flags().StringVar(&assetName, "asset", "", "asset name (required)")
	_ = searchAssetCmd.MarkFlagRequired("asset")
	searchCmd.AddCommand(searchAssetCmd)
}
