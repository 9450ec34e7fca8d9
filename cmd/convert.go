package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verdevoid/geo-boundary-automation/internal/batch"
	"github.com/verdevoid/geo-boundary-automation/internal/boundary"
	"github.com/verdevoid/geo-boundary-automation/internal/geometry"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert places from the local boundary dataset",
	Long: `Resolves each configured place name against the boundary index (exact, then
fuzzy), dissolves multi-row sources, cleans and simplifies the geometry, and
writes one GeoJSON FeatureCollection per place.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		places, err := placeList(cmd)
		if err != nil {
			return err
		}

		idx, err := boundary.LoadIndex(indexOptions(), cfg.Index.CheckFreshness)
		if err != nil {
			return eris.Wrap(err, "convert: load index")
		}

		st, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		driver := &batch.Driver{
			Source: &batch.DatasetSource{
				Resolver: boundary.NewResolver(idx, cfg.Resolver.SimilarityThreshold),
				DataRoot: cfg.Index.DataRoot,
			},
			Geometry: geometry.Options{
				Simplify:  true,
				Tolerance: cfg.Geometry.SimplifyTolerance,
			},
			Variant: "convert",
			OutDir:  cfg.Output.Dir,
			Pretty:  cfg.Output.Pretty,
			Store:   st,
		}

		summary, err := driver.Run(cmd.Context(), places)
		if err != nil {
			return eris.Wrap(err, "convert")
		}

		fmt.Printf("batch complete: %d/%d exported, %d failed\n",
			summary.Succeeded, summary.Total, summary.Failed)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringSlice("places", nil, "place names to process (default: batch.places from config)")
	rootCmd.AddCommand(convertCmd)
}

// placeList returns the --places flag when set, otherwise the configured list.
func placeList(cmd *cobra.Command) ([]string, error) {
	places, _ := cmd.Flags().GetStringSlice("places")
	if len(places) == 0 {
		places = cfg.Batch.Places
	}
	if len(places) == 0 {
		return nil, eris.New("no places configured; set batch.places or pass --places")
	}
	return places, nil
}
