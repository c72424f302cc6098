package domain

import (
	"encoding/json"
)

type donkiCME struct {
	StartTime string `json:"startTime"`
}

// NormalizeCME counts the CMEs in a DONKI response and reports the start time
// of the last one. An empty list is a valid "no CMEs" answer.
func NormalizeCME(payload []byte) (CMEStatus, error) {
	var cmes []donkiCME
	if err := json.Unmarshal(payload, &cmes); err != nil {
		return CMEStatus{}, schemaError(FeedCME, "decode list: %v", err)
	}

	status := CMEStatus{Count: len(cmes), LatestStart: "N/A", Status: StatusOK}
	if len(cmes) > 0 && cmes[len(cmes)-1].StartTime != "" {
		status.LatestStart = cmes[len(cmes)-1].StartTime
	}
	return status, nil
}
