package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/totegamma/transparence/geofilter"
)

const (
	countriesCacheKey = "countries"
	maxCountriesBytes = 32 << 20
)

// CountryGateway fetches country boundaries and keeps the parsed index.
type CountryGateway struct {
	client *http.Client
	cache  *cache.Cache
	url    string
}

func NewCountryGateway(url string) *CountryGateway {
	return &CountryGateway{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache.New(6*time.Hour, time.Hour),
		url:    url,
	}
}

// Load returns the country index, fetching it on first use.
func (g *CountryGateway) Load(ctx context.Context) (*geofilter.CountryIndex, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Country.Load")
	defer span.End()

	if x, found := g.cache.Get(countriesCacheKey); found {
		return x.(*geofilter.CountryIndex), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Gateway.Country.Load: request failed"))
		return nil, fmt.Errorf("failed to fetch countries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCountriesBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read countries: %w", err)
	}

	idx, err := geofilter.ParseCountries(data)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Gateway.Country.Load: parse failed"))
		return nil, err
	}

	slog.InfoContext(
		ctx, "country boundaries loaded",
		slog.String("module", "geo"),
		slog.Int("countries", idx.Len()),
	)

	g.cache.Set(countriesCacheKey, idx, cache.DefaultExpiration)
	return idx, nil
}
