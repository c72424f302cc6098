package feeds

import (
	"context"
	"net/url"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultDONKIURL is NASA's coronal mass ejection catalog.
const DefaultDONKIURL = "https://api.nasa.gov/DONKI/CME"

// DemoAPIKey is NASA's shared, heavily rate-limited key.
const DemoAPIKey = "DEMO_KEY"

const cmeWindow = 5 * 24 * time.Hour

// DONKI reads recent CMEs from the NASA DONKI service.
type DONKI struct {
	client *Client
	url    string
	apiKey string
	clock  clockwork.Clock
}

// NewDONKI creates a CME source. Empty values select the public endpoint and
// the demo key.
func NewDONKI(client *Client, rawURL, apiKey string, clock clockwork.Clock) *DONKI {
	if rawURL == "" {
		rawURL = DefaultDONKIURL
	}
	if apiKey == "" {
		apiKey = DemoAPIKey
	}
	return &DONKI{client: client, url: rawURL, apiKey: apiKey, clock: clock}
}

// CME returns the CMEs of the last five days, or the fallback status.
func (d *DONKI) CME(ctx context.Context) domain.CMEStatus {
	end := d.clock.Now().UTC()
	params := url.Values{
		"startDate": {end.Add(-cmeWindow).Format(time.DateOnly)},
		"endDate":   {end.Format(time.DateOnly)},
		"api_key":   {d.apiKey},
	}
	s, err := fetchNormalized(ctx, d.client, domain.FeedCME, d.url, params, domain.NormalizeCME)
	if err != nil {
		return domain.FallbackCME()
	}
	return s
}
