package feeds

import (
	"context"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
)

// SWPC product endpoints.
const (
	DefaultGeomagURL    = "https://services.swpc.noaa.gov/products/noaa-planetary-k-index.json"
	DefaultSolarWindURL = "https://services.swpc.noaa.gov/products/solar-wind/plasma-7-day.json"
)

// NOAA reads the space-weather products published by the SWPC.
type NOAA struct {
	client       *Client
	geomagURL    string
	solarWindURL string
}

// NewNOAA creates a SWPC source. Empty URLs select the public endpoints.
func NewNOAA(client *Client, geomagURL, solarWindURL string) *NOAA {
	if geomagURL == "" {
		geomagURL = DefaultGeomagURL
	}
	if solarWindURL == "" {
		solarWindURL = DefaultSolarWindURL
	}
	return &NOAA{client: client, geomagURL: geomagURL, solarWindURL: solarWindURL}
}

// Geomag returns the latest planetary K-index, or the fallback reading if the
// product cannot be fetched or parsed.
func (n *NOAA) Geomag(ctx context.Context) domain.GeomagReading {
	r, err := fetchNormalized(ctx, n.client, domain.FeedGeomag, n.geomagURL, nil, domain.NormalizeGeomag)
	if err != nil {
		return domain.FallbackGeomag()
	}
	return r
}

// SolarWind returns the latest plasma sample, or the fallback reading.
func (n *NOAA) SolarWind(ctx context.Context) domain.SolarWindReading {
	r, err := fetchNormalized(ctx, n.client, domain.FeedSolarWind, n.solarWindURL, nil, domain.NormalizeSolarWind)
	if err != nil {
		return domain.FallbackSolarWind()
	}
	return r
}
