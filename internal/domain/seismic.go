package domain

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// SeismicField names a canonical column of the seismic table.
type SeismicField string

const (
	FieldTime      SeismicField = "time"
	FieldMagnitude SeismicField = "magnitude"
	FieldDepth     SeismicField = "depth_km"
)

// ColumnMatcher selects a header either by exact name or by any of a set of
// case-sensitive substrings.
type ColumnMatcher struct {
	Exact    string
	Contains []string
}

func (m ColumnMatcher) matches(header string) bool {
	if m.Exact != "" {
		return header == m.Exact
	}
	for _, sub := range m.Contains {
		if strings.Contains(header, sub) {
			return true
		}
	}
	return false
}

// ColumnRule is the ordered matcher list for one canonical field. The first
// matcher that hits any header wins; within a matcher the first header wins.
type ColumnRule struct {
	Field    SeismicField
	Matchers []ColumnMatcher
}

// SeismicColumns is the header-sniffing strategy for the seismic feed. The
// upstream column names are not stable, so the table is located by substring.
// "Magnitude" is tried exactly first because the INGV text format also carries
// a "MagType" column ahead of it.
var SeismicColumns = []ColumnRule{
	{Field: FieldTime, Matchers: []ColumnMatcher{{Contains: []string{"Time", "Origin"}}}},
	{Field: FieldMagnitude, Matchers: []ColumnMatcher{{Exact: "Magnitude"}, {Contains: []string{"Mag"}}}},
	{Field: FieldDepth, Matchers: []ColumnMatcher{{Contains: []string{"Depth"}}}},
}

// eventTimeLayouts are tried in order when parsing the time column.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// NormalizeSeismic parses a delimited seismic catalog into a SeismicTable.
// Rows with an unparseable time, magnitude or depth, or a negative depth, are
// dropped. A missing column is a schema error and an empty result is an empty
// dataset error; callers substitute synthetic data for both.
func NormalizeSeismic(body []byte) (SeismicTable, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return SeismicTable{}, emptyError(FeedSeismic, "empty body")
	}

	records, err := splitRecords(text, DetectDelimiter(text))
	if err != nil {
		return SeismicTable{}, schemaError(FeedSeismic, "split rows: %v", err)
	}
	if len(records) == 0 {
		return SeismicTable{}, emptyError(FeedSeismic, "no rows")
	}

	header := normalizeHeader(records[0])
	idx, err := LocateColumns(header)
	if err != nil {
		return SeismicTable{}, err
	}

	events := make([]SeismicEvent, 0, len(records)-1)
	for _, rec := range records[1:] {
		if ev, ok := parseSeismicRow(rec, idx); ok {
			events = append(events, ev)
		}
	}
	if len(events) == 0 {
		return SeismicTable{}, emptyError(FeedSeismic, "no parseable rows out of %d", len(records)-1)
	}
	return SeismicTable{Events: events}, nil
}

// DetectDelimiter picks '|' if present, then ';', and returns 0 to mean
// generic whitespace.
func DetectDelimiter(text string) rune {
	switch {
	case strings.ContainsRune(text, '|'):
		return '|'
	case strings.ContainsRune(text, ';'):
		return ';'
	default:
		return 0
	}
}

// LocateColumns maps each canonical field to a header index using
// SeismicColumns.
func LocateColumns(header []string) (map[SeismicField]int, error) {
	idx := make(map[SeismicField]int, len(SeismicColumns))
	for _, rule := range SeismicColumns {
		pos := -1
		for _, m := range rule.Matchers {
			if pos = findHeader(header, m); pos >= 0 {
				break
			}
		}
		if pos < 0 {
			return nil, schemaError(FeedSeismic, "no %s column in header %q", rule.Field, header)
		}
		idx[rule.Field] = pos
	}
	return idx, nil
}

func findHeader(header []string, m ColumnMatcher) int {
	for i, h := range header {
		if m.matches(h) {
			return i
		}
	}
	return -1
}

func splitRecords(text string, delim rune) ([][]string, error) {
	if delim == 0 {
		var records [][]string
		for _, line := range strings.Split(text, "\n") {
			if fields := strings.Fields(line); len(fields) > 0 {
				records = append(records, fields)
			}
		}
		return records, nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// normalizeHeader trims cells and strips the '#' that FDSN text output puts in
// front of the first column name.
func normalizeHeader(rec []string) []string {
	header := make([]string, len(rec))
	for i, h := range rec {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) > 0 {
		header[0] = strings.TrimSpace(strings.TrimPrefix(header[0], "#"))
	}
	return header
}

func parseSeismicRow(rec []string, idx map[SeismicField]int) (SeismicEvent, bool) {
	for _, i := range idx {
		if i >= len(rec) {
			return SeismicEvent{}, false
		}
	}

	t, ok := parseEventTime(rec[idx[FieldTime]])
	if !ok {
		return SeismicEvent{}, false
	}
	mag, ok := parseFinite(rec[idx[FieldMagnitude]])
	if !ok {
		return SeismicEvent{}, false
	}
	depth, ok := parseFinite(rec[idx[FieldDepth]])
	if !ok || depth < 0 {
		return SeismicEvent{}, false
	}
	return SeismicEvent{Time: t, Magnitude: mag, DepthKm: depth}, true
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
