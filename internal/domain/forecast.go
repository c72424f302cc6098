package domain

import "math"

// ForecastHorizon is the default projection length in hours.
const ForecastHorizon = 48

const forecastAmplitude = 0.3

// ForecastPoint is one hourly projection of ψₛ.
type ForecastPoint struct {
	HourOffset   int     `json:"hour_offset"`
	ProjectedPsi float64 `json:"projected_psi"`
}

// ForecastSeries is an hourly projection ordered by offset.
type ForecastSeries []ForecastPoint

// GenerateForecast projects ψₛ as one full sine period over the horizon:
// projected[h] = sin(2π·h/hours)·0.3 + psi for h in [0, hours). It depends on
// nothing but its arguments.
func GenerateForecast(psi float64, hours int) ForecastSeries {
	if hours <= 0 {
		return ForecastSeries{}
	}
	out := make(ForecastSeries, hours)
	for h := range out {
		out[h] = ForecastPoint{
			HourOffset:   h,
			ProjectedPsi: math.Sin(2*math.Pi*float64(h)/float64(hours))*forecastAmplitude + psi,
		}
	}
	return out
}
