package domain

import (
	"encoding/json"
)

// kpKeys are the object keys that have carried the K-index value.
var kpKeys = []string{"Kp", "kp_index", "kp"}

// NormalizeGeomag extracts the most recent K-index from the SWPC product.
// The last row wins; rows may be arrays or objects.
func NormalizeGeomag(payload []byte) (GeomagReading, error) {
	rows, err := decodeRows(FeedGeomag, payload)
	if err != nil {
		return GeomagReading{}, err
	}

	timeCell, kpCell, err := geomagCells(rows[len(rows)-1])
	if err != nil {
		return GeomagReading{}, err
	}

	kp, err := cellFloat(kpCell)
	if err != nil {
		return GeomagReading{}, schemaError(FeedGeomag, "parse kp %s: %v", string(kpCell), err)
	}

	return GeomagReading{
		KpIndex: kp,
		TimeTag: cellString(timeCell),
		Status:  StatusOK,
	}, nil
}

func geomagCells(row json.RawMessage) (timeCell, kpCell json.RawMessage, err error) {
	var cells []json.RawMessage
	if json.Unmarshal(row, &cells) == nil {
		if len(cells) < 2 {
			return nil, nil, schemaError(FeedGeomag, "row has %d cells, want at least 2", len(cells))
		}
		return cells[0], cells[1], nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(row, &obj); err != nil {
		return nil, nil, schemaError(FeedGeomag, "row is neither array nor object")
	}
	for _, k := range kpKeys {
		if v, ok := obj[k]; ok {
			return obj["time_tag"], v, nil
		}
	}
	return nil, nil, schemaError(FeedGeomag, "row has no Kp field")
}
