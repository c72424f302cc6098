package feeds

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultINGVURL is the FDSN event service of the Istituto Nazionale di
// Geofisica e Vulcanologia.
const DefaultINGVURL = "https://webservices.ingv.it/fdsnws/event/1/query"

// SeismicWindow is how far back the catalog query reaches.
const SeismicWindow = 7 * 24 * time.Hour

// fdsnTimeLayout is the time format the FDSN query parameters expect.
const fdsnTimeLayout = "2006-01-02T15:04:05"

// BoundingBox limits a catalog query to a rectangle in degrees.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// CampiFlegrei covers the caldera west of Naples.
var CampiFlegrei = BoundingBox{MinLat: 40.7, MaxLat: 40.9, MinLon: 14.0, MaxLon: 14.3}

// INGV reads recent local earthquakes from the INGV FDSN service.
type INGV struct {
	client *Client
	url    string
	box    BoundingBox
	window time.Duration
	clock  clockwork.Clock
}

// NewINGV creates a seismic source for the Campi Flegrei box. An empty URL
// selects the public endpoint.
func NewINGV(client *Client, rawURL string, clock clockwork.Clock) *INGV {
	if rawURL == "" {
		rawURL = DefaultINGVURL
	}
	return &INGV{
		client: client,
		url:    rawURL,
		box:    CampiFlegrei,
		window: SeismicWindow,
		clock:  clock,
	}
}

// Seismic returns the events of the last SeismicWindow. Unlike the space
// weather sources it returns the error so the caller can substitute a
// synthetic table.
func (s *INGV) Seismic(ctx context.Context) (domain.SeismicTable, error) {
	return fetchNormalized(ctx, s.client, domain.FeedSeismic, s.url, s.query(), domain.NormalizeSeismic)
}

func (s *INGV) query() url.Values {
	end := s.clock.Now().UTC()
	start := end.Add(-s.window)
	return url.Values{
		"starttime": {start.Format(fdsnTimeLayout)},
		"endtime":   {end.Format(fdsnTimeLayout)},
		"minlat":    {formatDegrees(s.box.MinLat)},
		"maxlat":    {formatDegrees(s.box.MaxLat)},
		"minlon":    {formatDegrees(s.box.MinLon)},
		"maxlon":    {formatDegrees(s.box.MaxLon)},
		"format":    {"text"},
	}
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
