package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ingvSample = `#EventID|Time|Latitude|Longitude|Depth/Km|Author|Catalog|Contributor|ContributorID|MagType|Magnitude|MagAuthor|EventLocationName|EventType
41234567|2024-05-20T18:10:02.450000|40.8290|14.1410|2.6|SURVEY-INGV-OV||||Md|4.4|--|Campi Flegrei|earthquake
41234568|2024-05-20T19:02:11.120000|40.8270|14.1390|1.9|SURVEY-INGV-OV||||Md|1.2|--|Campi Flegrei|earthquake
`

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var ne *NormalizeError
	require.True(t, errors.As(err, &ne), "expected *NormalizeError, got %T", err)
	assert.Equal(t, kind, ne.Kind)
	assert.Equal(t, kind, KindOf(err))
}

func TestNormalizeSeismic_INGVText(t *testing.T) {
	table, err := NormalizeSeismic([]byte(ingvSample))
	require.NoError(t, err)
	require.Len(t, table.Events, 2)
	assert.False(t, table.Synthetic)

	first := table.Events[0]
	assert.Equal(t, time.Date(2024, 5, 20, 18, 10, 2, 450000000, time.UTC), first.Time)
	assert.Equal(t, 4.4, first.Magnitude, "MagType must not shadow Magnitude")
	assert.Equal(t, 2.6, first.DepthKm)
	assert.Equal(t, 1.9, table.Events[1].DepthKm)
}

func TestNormalizeSeismic_SemicolonVariant(t *testing.T) {
	body := "OriginTime;Mag;Depth/Km\n" +
		"2024-05-20 10:00:00;1.1;0.9\n" +
		"not-a-time;1.5;1.0\n" +
		"2024-05-20 13:00:00;0.8;3.2\n"

	table, err := NormalizeSeismic([]byte(body))
	require.NoError(t, err)
	require.Len(t, table.Events, 2)
	assert.Equal(t, 1.1, table.Events[0].Magnitude)
	assert.Equal(t, 3.2, table.Events[1].DepthKm)
	assert.Equal(t, 13, table.Events[1].Time.Hour())
}

func TestNormalizeSeismic_WhitespaceVariant(t *testing.T) {
	body := "Time  Magnitude   Depth\n" +
		"2024-05-20T10:00:00Z   1.2   2.0\n" +
		"2024-05-20T11:00:00Z   0.7   0.4\n"

	table, err := NormalizeSeismic([]byte(body))
	require.NoError(t, err)
	require.Len(t, table.Events, 2)
	assert.Equal(t, 0.7, table.Events[1].Magnitude)
}

func TestNormalizeSeismic_DropsBadRows(t *testing.T) {
	body := "Time|Magnitude|Depth\n" +
		"2024-05-20T10:00:00|1.2|-0.5\n" + // negative depth
		"2024-05-20T11:00:00|abc|1.0\n" + // bad magnitude
		"2024-05-20T12:00:00|NaN|1.0\n" + // non-finite
		"2024-05-20T13:00:00|0.9\n" + // short row
		"2024-05-20T14:00:00|1.0|1.1\n"

	table, err := NormalizeSeismic([]byte(body))
	require.NoError(t, err)
	require.Len(t, table.Events, 1)
	assert.Equal(t, 1.1, table.Events[0].DepthKm)
	for _, ev := range table.Events {
		assert.GreaterOrEqual(t, ev.DepthKm, 0.0)
	}
}

func TestNormalizeSeismic_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind ErrorKind
	}{
		{"empty body", "", KindEmpty},
		{"blank body", "  \n\n ", KindEmpty},
		{"missing depth column", "Time|Magnitude\n2024-05-20T10:00:00|1.0\n", KindSchema},
		{"missing magnitude column", "Time;Depth\n2024-05-20T10:00:00;1.0\n", KindSchema},
		{"html error page", "<html><body>Service Unavailable</body></html>", KindSchema},
		{"header only", "Time|Magnitude|Depth\n", KindEmpty},
		{"no parseable rows", "Time|Magnitude|Depth\nx|y|z\n", KindEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeSeismic([]byte(tt.body))
			requireKind(t, err, tt.kind)
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, '|', DetectDelimiter("a|b;c"))
	assert.Equal(t, ';', DetectDelimiter("a;b c"))
	assert.Equal(t, rune(0), DetectDelimiter("a b\tc"))
}

func TestLocateColumns(t *testing.T) {
	t.Run("exact magnitude beats MagType", func(t *testing.T) {
		idx, err := LocateColumns([]string{"EventID", "Time", "Depth/Km", "MagType", "Magnitude"})
		require.NoError(t, err)
		assert.Equal(t, 1, idx[FieldTime])
		assert.Equal(t, 2, idx[FieldDepth])
		assert.Equal(t, 4, idx[FieldMagnitude])
	})

	t.Run("substring fallback", func(t *testing.T) {
		idx, err := LocateColumns([]string{"OriginTime", "ML_Mag", "DepthKm"})
		require.NoError(t, err)
		assert.Equal(t, 0, idx[FieldTime])
		assert.Equal(t, 1, idx[FieldMagnitude])
		assert.Equal(t, 2, idx[FieldDepth])
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, err := LocateColumns([]string{"time", "mag", "depth"})
		requireKind(t, err, KindSchema)
	})
}
