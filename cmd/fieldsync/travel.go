package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/rgoodwin/fieldsync/pkg/travel"
)

var (
	travelFrom string
	travelTo   []string
)

var travelCmd = &cobra.Command{
	Use:   "travel",
	Short: "Estimate drive time between addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := travel.NewGeocodeCache(cfg.GeocodeCachePath)
		if err != nil {
			return err
		}
		est, err := travel.NewEstimator(cfg.MapsAPIKey,
			travel.WithGeocodeCache(cache),
			travel.WithLogger(log))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		origin := est.Geocode(ctx, travelFrom)
		if origin == nil {
			return errors.Newf("could not resolve origin address %q", travelFrom)
		}

		for _, to := range travelTo {
			dest := est.Geocode(ctx, to)
			if dest == nil {
				fmt.Printf("%s: address could not be resolved\n", to)
				continue
			}
			e := est.Estimate(ctx, *origin, *dest)
			fmt.Printf("%s: %s, %s (%s)\n", to,
				travel.FormatDistance(e.DistanceKm),
				travel.FormatDuration(e.DurationMin),
				e.Source)
		}
		return nil
	},
}

func init() {
	travelCmd.Flags().StringVar(&travelFrom, "from", "", "origin address")
	travelCmd.Flags().StringSliceVar(&travelTo, "to", nil, "destination address (repeatable)")
	travelCmd.MarkFlagRequired("from") //nolint:errcheck
	travelCmd.MarkFlagRequired("to")   //nolint:errcheck
	rootCmd.AddCommand(travelCmd)
}
