package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/totegamma/transparence/client"
	"github.com/totegamma/transparence/geofilter"
	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/internal/infra/gateway"
	"github.com/totegamma/transparence/internal/ledger"
	"github.com/totegamma/transparence/internal/recordstore"
)

type zoneFlags struct {
	mode     string
	country  string
	lat      float64
	lng      float64
	radiusKm float64
	centered bool
}

func (f zoneFlags) zone() (domain.ZoneSpec, error) {
	mode, err := domain.ParseZoneMode(f.mode)
	if err != nil {
		return domain.ZoneSpec{}, err
	}
	zone := domain.ZoneSpec{}.WithMode(mode)
	if f.country != "" {
		zone = zone.WithCountry(f.country)
	}
	if f.centered {
		zone = zone.WithCenter(domain.LatLng{Lat: f.lat, Lng: f.lng})
	}
	if f.radiusKm != 0 {
		zone = zone.WithRadius(f.radiusKm)
	}
	return zone, zone.Validate()
}

// warnUnknownCountry reports a selected country no boundary feature carries,
// which always filters to an empty result.
func warnUnknownCountry(w io.Writer, index *geofilter.CountryIndex, zone domain.ZoneSpec) bool {
	if index == nil || zone.SelectedCountry == nil || index.Known(*zone.SelectedCountry) {
		return false
	}
	fmt.Fprintf(w, "unknown country %q (%d boundaries loaded)\n", *zone.SelectedCountry, index.Len())
	return true
}

func newJournalCmd(defaultEndpoint, defaultCountriesURL string) *cobra.Command {
	var (
		endpoint     string
		account      string
		maxPages     int
		countriesURL string
		timeout      time.Duration
		zf           zoneFlags
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Fetch, decode and filter the journal of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			zf.centered = cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			zone, err := zf.zone()
			if err != nil {
				return err
			}
			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			journal := gateway.NewLedgerGateway(client.New(endpoint), nil, account, maxPages, 0)
			txs, err := journal.FetchJournal(ctx)
			if err != nil {
				return fmt.Errorf("fetching journal: %w", err)
			}

			var index *geofilter.CountryIndex
			if zone.Mode == domain.ZoneCountry && zone.SelectedCountry != nil && countriesURL != "" {
				index, err = gateway.NewCountryGateway(countriesURL).Load(ctx)
				if err != nil {
					fmt.Fprintf(os.Stderr, "country boundaries unavailable, matching by name: %v\n", err)
				}
				warnUnknownCountry(os.Stderr, index, zone)
			}

			records, report := ledger.Decoder{Now: time.Now}.DecodeWithReport(txs)
			records = recordstore.SortNewestFirst(geofilter.Filter(records, zone, index))

			if verboseFlag {
				fmt.Fprintf(os.Stderr, "decoded %d, skipped %v\n", report.Decoded, report.Skipped)
			}
			return printRecords(os.Stdout, format, records)
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", defaultEndpoint, "Ledger node endpoint (ws, wss, http or https)")
	cmd.Flags().StringVar(&account, "account", "", "Journal account address")
	cmd.Flags().IntVar(&maxPages, "max-pages", 5, "Maximum account_tx pages to read")
	cmd.Flags().StringVar(&countriesURL, "countries-url", defaultCountriesURL, "Country boundaries GeoJSON")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")
	cmd.Flags().StringVar(&zf.mode, "mode", "NONE", "Zone mode: NONE, COUNTRY, RADIUS")
	cmd.Flags().StringVar(&zf.country, "country", "", "Country name (COUNTRY mode)")
	cmd.Flags().Float64Var(&zf.lat, "lat", 0, "Center latitude (RADIUS mode)")
	cmd.Flags().Float64Var(&zf.lng, "lng", 0, "Center longitude (RADIUS mode)")
	cmd.Flags().Float64Var(&zf.radiusKm, "radius", 0, "Radius in km (RADIUS mode)")
	cmd.MarkFlagRequired("account")

	return cmd
}
