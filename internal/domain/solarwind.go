package domain

import (
	"encoding/json"
	"strings"
)

// plasmaColumns holds the positions of the fields we read from a plasma row.
type plasmaColumns struct {
	timeTag int
	speed   int
	density int
}

// positionalPlasma is the layout assumed when the payload has no header row.
var positionalPlasma = plasmaColumns{timeTag: 0, speed: 1, density: 2}

// NormalizeSolarWind extracts the most recent speed and density sample.
// A leading header row, when present, decides which column is which.
func NormalizeSolarWind(payload []byte) (SolarWindReading, error) {
	rawRows, err := decodeRows(FeedSolarWind, payload)
	if err != nil {
		return SolarWindReading{}, err
	}

	rows := make([][]json.RawMessage, 0, len(rawRows))
	for _, r := range rawRows {
		var cells []json.RawMessage
		if err := json.Unmarshal(r, &cells); err != nil {
			return SolarWindReading{}, schemaError(FeedSolarWind, "row is not an array")
		}
		rows = append(rows, cells)
	}

	cols := positionalPlasma
	if hdr, ok := plasmaHeader(rows[0]); ok {
		cols = hdr
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return SolarWindReading{}, emptyError(FeedSolarWind, "payload has only a header row")
	}

	last := rows[len(rows)-1]
	if need := max(cols.timeTag, cols.speed, cols.density) + 1; len(last) < need {
		return SolarWindReading{}, schemaError(FeedSolarWind, "row has %d cells, want at least %d", len(last), need)
	}

	speed, err := cellFloat(last[cols.speed])
	if err != nil {
		return SolarWindReading{}, schemaError(FeedSolarWind, "parse speed: %v", err)
	}
	density, err := cellFloat(last[cols.density])
	if err != nil {
		return SolarWindReading{}, schemaError(FeedSolarWind, "parse density: %v", err)
	}

	return SolarWindReading{
		SpeedKmS:    speed,
		DensityPcm3: density,
		TimeTag:     cellString(last[cols.timeTag]),
		Status:      StatusOK,
	}, nil
}

// plasmaHeader recognizes a header row (all string cells naming speed and
// density) and returns the column positions it declares.
func plasmaHeader(row []json.RawMessage) (plasmaColumns, bool) {
	cols := plasmaColumns{timeTag: 0, speed: -1, density: -1}
	for i, cell := range row {
		if !isStringCell(cell) {
			return plasmaColumns{}, false
		}
		switch strings.ToLower(cellString(cell)) {
		case "time_tag":
			cols.timeTag = i
		case "speed":
			cols.speed = i
		case "density":
			cols.density = i
		}
	}
	if cols.speed < 0 || cols.density < 0 {
		return plasmaColumns{}, false
	}
	return cols, true
}
