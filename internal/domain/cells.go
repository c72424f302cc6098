package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errNullCell      = errors.New("null cell")
	errNonFiniteCell = errors.New("non-finite cell")
)

// cellString renders a JSON cell as text. Strings are unquoted; anything else
// is returned as its raw JSON form.
func cellString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// cellFloat parses a JSON cell that may hold a number or a numeric string.
// NaN and infinities are rejected.
func cellFloat(raw json.RawMessage) (float64, error) {
	v, err := parseCell(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNonFiniteCell
	}
	return v, nil
}

func parseCell(raw json.RawMessage) (float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, errNullCell
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, fmt.Errorf("decode string cell: %w", err)
		}
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return 0, fmt.Errorf("decode numeric cell: %w", err)
	}
	return v, nil
}

// isStringCell reports whether a cell is a JSON string.
func isStringCell(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// decodeRows splits a JSON array payload into its rows.
func decodeRows(feed string, payload []byte) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, schemaError(feed, "decode rows: %v", err)
	}
	if len(rows) == 0 {
		return nil, emptyError(feed, "payload has no rows")
	}
	return rows, nil
}
