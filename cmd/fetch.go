package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verdevoid/geo-boundary-automation/internal/batch"
	"github.com/verdevoid/geo-boundary-automation/internal/geometry"
	"github.com/verdevoid/geo-boundary-automation/internal/store"
	"github.com/verdevoid/geo-boundary-automation/pkg/nominatim"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch boundaries live from OpenStreetMap",
	Long: `Geocodes each configured place via Nominatim with polygon output and writes
one GeoJSON FeatureCollection per place. Geometry is cleaned but kept at
exact fidelity unless --simplify is given.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		places, err := placeList(cmd)
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		opts := []nominatim.Option{
			nominatim.WithTimeout(cfg.Nominatim.Timeout()),
			nominatim.WithRateLimit(cfg.Nominatim.RateLimit),
		}
		if st != nil {
			opts = append(opts, nominatim.WithCache(st))
		}
		client := nominatim.New(cfg.Nominatim.BaseURL, cfg.Nominatim.UserAgent, opts...)

		simplify, _ := cmd.Flags().GetBool("simplify")

		driver := &batch.Driver{
			Source: &batch.OSMSource{Client: client},
			Geometry: geometry.Options{
				Simplify:  simplify,
				Tolerance: cfg.Geometry.SimplifyTolerance,
			},
			Variant: "fetch",
			OutDir:  cfg.Output.Dir,
			Pretty:  cfg.Output.Pretty,
			Store:   st,
		}

		summary, err := driver.Run(ctx, places)
		if err != nil {
			return eris.Wrap(err, "fetch")
		}

		fmt.Printf("batch complete: %d/%d exported, %d failed\n",
			summary.Succeeded, summary.Total, summary.Failed)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringSlice("places", nil, "place names to process (default: batch.places from config)")
	fetchCmd.Flags().Bool("simplify", false, "apply topology simplification (merge flow); default keeps exact boundaries (QA flow)")
	rootCmd.AddCommand(fetchCmd)
}

// openStore opens the run-log store when configured. The returned close
// function is always safe to defer.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	if cfg.Store.Path == "" {
		return nil, func() {}, nil
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}
	return st, func() { _ = st.Close() }, nil
}
