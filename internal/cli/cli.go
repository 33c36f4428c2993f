// Package cli exposes the aggregation core on the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-dashboard/internal/aqi"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// New builds the root command. source produces snapshots and search resolves
// place names.
func New(source weather.SnapshotSource, search weather.ForwardGeocoder) *cobra.Command {
	root := &cobra.Command{
		Use:           "weather-cli",
		Short:         "Weather and air quality snapshots from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSnapshotCmd(source),
		newAQICmd(),
		newSearchCmd(search),
	)
	return root
}

func newSnapshotCmd(source weather.SnapshotSource) *cobra.Command {
	var (
		lat, lon float64
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch a merged weather and air quality snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := source.Aggregate(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			printSnapshot(cmd, snap)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func printSnapshot(cmd *cobra.Command, s weather.WeatherSnapshot) {
	cmd.Printf("LOCATION\t %s\n", s.Location)
	cmd.Printf("PROVIDERS\t %s / %s (%s)\n", s.Sources.Weather, s.Sources.AirQuality, s.Sources.AQIPolicy)
	cmd.Printf("NOW\t\t %s %.0f°C (feels %.0f°C) %s\n",
		s.Current.Icon,
		s.Current.Temperature,
		s.Current.FeelsLike,
		s.Current.Description,
	)
	cmd.Printf("AIR\t\t AQI %d %s, PM2.5 %.1f\n", s.AirQuality.AQI, s.AirQuality.Category, s.AirQuality.PM25)

	cmd.Printf("TIME\t\t")
	for _, h := range s.Hourly {
		cmd.Printf("%6s  ", h.Time)
	}
	cmd.Printf("\nTEMP\t\t")
	for _, h := range s.Hourly {
		cmd.Printf("%6.0f  ", h.Temperature)
	}
	cmd.Printf("\n")

	for _, d := range s.Daily {
		cmd.Printf("%-8s\t %s %3.0f / %3.0f  %s\n", d.Date, d.Icon, d.MaxTemp, d.MinTemp, d.Description)
	}
}

func newAQICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aqi <pm25>",
		Short: "Convert a PM2.5 concentration (µg/m³) to a US EPA AQI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm25, err := strconv.ParseFloat(args[0], 64)
			if err != nil || pm25 < 0 {
				return fmt.Errorf("pm25 must be a non-negative number, got %q", args[0])
			}
			idx := aqi.FromPM25(pm25)
			cmd.Printf("AQI\t\t %d\nCATEGORY\t %s\n", idx.Value, idx.Category)
			return nil
		},
	}
}

func newSearchCmd(search weather.ForwardGeocoder) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for places by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			places, err := search.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(places) == 0 {
				cmd.Printf("no places found for %q\n", args[0])
				return nil
			}
			for _, p := range places {
				name := p.Name
				if p.Admin1 != "" {
					name += ", " + p.Admin1
				}
				cmd.Printf("%-40s %-20s %9.4f %9.4f\n", name, p.Country, p.Latitude, p.Longitude)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of results")
	return cmd
}
