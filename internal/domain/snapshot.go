package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// Snapshot is the read-only result of one refresh cycle, handed to the
// presentation layer and the snapshot sinks.
type Snapshot struct {
	ID               string           `json:"id"`
	GeneratedAt      time.Time        `json:"generated_at"`
	Psi              float64          `json:"psi_s"`
	Geomag           GeomagReading    `json:"geomag"`
	Solar            SolarWindReading `json:"solar"`
	Seismic          SeismicTable     `json:"seismic"`
	CME              *CMEStatus       `json:"cme,omitempty"`
	Stats            SeismicStats     `json:"stats"`
	EII              float64          `json:"eii"`
	Phase            Phase            `json:"phase"`
	PhaseDescription string           `json:"phase_description"`
	CCI              float64          `json:"cci"`
	CoherenceBand    CoherenceBand    `json:"coherence_band"`
	Forecast         ForecastSeries   `json:"forecast"`
}

// Inputs are the normalized feed readings gathered for one cycle.
type Inputs struct {
	Geomag  GeomagReading
	Solar   SolarWindReading
	Seismic SeismicTable
	CME     *CMEStatus
}

// NewSnapshot assembles a snapshot and stamps it with the current time.
func NewSnapshot(psi float64, in Inputs, a Assessment, forecast ForecastSeries) Snapshot {
	at := now()
	return Snapshot{
		ID:               snapshotID(at, psi),
		GeneratedAt:      at,
		Psi:              psi,
		Geomag:           in.Geomag,
		Solar:            in.Solar,
		Seismic:          in.Seismic,
		CME:              in.CME,
		Stats:            a.Stats,
		EII:              a.EII,
		Phase:            a.Phase,
		PhaseDescription: a.Phase.Description(),
		CCI:              a.CCI,
		CoherenceBand:    a.CoherenceBand,
		Forecast:         forecast,
	}
}

// DegradedFeeds lists the feeds that fell back in this snapshot.
func (s Snapshot) DegradedFeeds() []string {
	var out []string
	if s.Geomag.Status == StatusFallback {
		out = append(out, FeedGeomag)
	}
	if s.Solar.Status == StatusFallback {
		out = append(out, FeedSolarWind)
	}
	if s.Seismic.Synthetic {
		out = append(out, FeedSeismic)
	}
	if s.CME != nil && s.CME.Status == StatusFallback {
		out = append(out, FeedCME)
	}
	return out
}

// ValidatePsi rejects operator input outside [0, 1].
func ValidatePsi(psi float64) error {
	if math.IsNaN(psi) || psi < 0 || psi > 1 {
		return fmt.Errorf("psi_s must be within [0, 1], got %v", psi)
	}
	return nil
}

// snapshotID is deterministic in the generation time and ψₛ so sinks can
// upsert idempotently.
func snapshotID(at time.Time, psi float64) string {
	input := fmt.Sprintf("%s|%.6f", at.Format(time.RFC3339Nano), psi)
	hash := sha256.Sum256([]byte(input))
	return "snap-" + hex.EncodeToString(hash[:8])
}
