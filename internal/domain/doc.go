// Package domain models the three upstream feeds fused by the continuum and
// the metrics derived from them.
//
// # Data Sources
//
// Geomagnetic activity comes from the NOAA SWPC planetary K-index product
// (https://services.swpc.noaa.gov/products/noaa-planetary-k-index.json), a JSON
// array whose last row is the most recent three-hour Kp estimate.
//
// Solar-wind plasma comes from the SWPC seven-day plasma product
// (https://services.swpc.noaa.gov/products/solar-wind/plasma-7-day.json). The
// product is a JSON array of string rows; the first row is usually a header
// naming the columns.
//
// Seismic events come from the INGV FDSN event service
// (https://webservices.ingv.it/fdsnws/event/1/query?format=text), queried for the
// last seven days over the Campi Flegrei caldera. The text format is a
// pipe-delimited table whose header starts with '#'.
//
// CME activity comes from the NASA DONKI CME endpoint. It is display-only and
// never enters the instability index.
//
// # Schema Drift
//
// None of the upstream shapes is contractually stable. The normalizers in this
// package tolerate the variants seen in the wild:
//
//	Kp rows:        [time_tag, kp, ...] arrays or {"time_tag", "Kp"} objects
//	Plasma rows:    header-located columns, positional [time_tag, speed, density] otherwise
//	Seismic table:  '|' then ';' then whitespace delimiters; columns found by
//	                ordered header matchers (see [SeismicColumns])
//
// Numeric cells may be JSON strings or numbers. A feed that cannot be
// normalized degrades to a Fallback reading; an unusable seismic table is
// replaced by a synthetic one (see [Synthesizer]) so the metric code never sees
// an empty dataset.
//
// # Derived Metrics
//
//	EII   = clip(0.2·max_mag + 0.15·mean_mag + 0.4·shallow_ratio + 0.25·ψₛ, 0, 1)
//	Phase = ACTIVE (EII ≥ 0.85) | ELEVATED (EII ≥ 0.6) | MONITORING
//	CCI   = r² between a 24-sample synthetic ψₛ history and the interpolated
//	        rolling-mean depth signal, both z-scored
//
// shallow_ratio is the fraction of events shallower than 2.5 km. These are
// descriptive transforms, not a validated forecasting model.
package domain
