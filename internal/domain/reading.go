package domain

import (
	"fmt"
	"time"
)

// FeedStatus tells consumers whether a reading came from the live feed or is a
// fallback value substituted after a failure.
type FeedStatus string

const (
	StatusOK       FeedStatus = "ok"
	StatusFallback FeedStatus = "fallback"
)

// Feed identifiers. They double as cache keys, log attributes and metric labels.
const (
	FeedGeomag    = "geomag"
	FeedSolarWind = "solar_wind"
	FeedSeismic   = "seismic"
	FeedCME       = "cme"
)

const (
	// FallbackTimeTag replaces the upstream time tag on fallback readings.
	FallbackTimeTag = "Fallback"

	// DefaultSolarSpeedKmS is the nominal solar-wind speed reported while the
	// plasma feed is down.
	DefaultSolarSpeedKmS = 688.0
)

// GeomagReading is the latest planetary K-index.
type GeomagReading struct {
	KpIndex float64    `json:"kp_index"`
	TimeTag string     `json:"time_tag"`
	Status  FeedStatus `json:"status"`
}

// FallbackGeomag is reported when the K-index feed is unusable.
func FallbackGeomag() GeomagReading {
	return GeomagReading{KpIndex: 0, TimeTag: FallbackTimeTag, Status: StatusFallback}
}

// SolarWindReading is the latest solar-wind plasma sample.
type SolarWindReading struct {
	SpeedKmS    float64    `json:"speed_km_s"`
	DensityPcm3 float64    `json:"density_p_cm3"`
	TimeTag     string     `json:"time_tag"`
	Status      FeedStatus `json:"status"`
}

// FallbackSolarWind is reported when the plasma feed is unusable.
func FallbackSolarWind() SolarWindReading {
	return SolarWindReading{
		SpeedKmS:    DefaultSolarSpeedKmS,
		DensityPcm3: 0,
		TimeTag:     FallbackTimeTag,
		Status:      StatusFallback,
	}
}

// CMEStatus summarizes recent coronal mass ejections. Display only.
type CMEStatus struct {
	Count       int        `json:"count"`
	LatestStart string     `json:"latest_start"`
	Status      FeedStatus `json:"status"`
}

// FallbackCME is reported when the DONKI feed is unusable.
func FallbackCME() CMEStatus {
	return CMEStatus{Count: 0, LatestStart: FallbackTimeTag, Status: StatusFallback}
}

// Summary renders the status line shown next to the space-weather panel.
func (c CMEStatus) Summary() string {
	if c.Count == 0 {
		return "No CMEs"
	}
	return fmt.Sprintf("%d CME(s) detected", c.Count)
}

// SeismicEvent is one catalog row. All three fields are always populated and
// DepthKm is never negative.
type SeismicEvent struct {
	Time      time.Time `json:"time"`
	Magnitude float64   `json:"magnitude"`
	DepthKm   float64   `json:"depth_km"`
}

// SeismicTable is the ordered event list for one cycle. Synthetic marks
// placeholder data; the metric code does not read it.
type SeismicTable struct {
	Events    []SeismicEvent `json:"events"`
	Synthetic bool           `json:"synthetic"`
}

// Len returns the number of events.
func (t SeismicTable) Len() int { return len(t.Events) }

// Status maps the Synthetic flag onto the common feed status.
func (t SeismicTable) Status() FeedStatus {
	if t.Synthetic {
		return StatusFallback
	}
	return StatusOK
}
