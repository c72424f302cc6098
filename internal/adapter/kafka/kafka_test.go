package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/config"
	"github.com/couchcryptid/resonance-continuum/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	snap := domain.Snapshot{
		ID:          "snap-0011223344556677",
		GeneratedAt: now,
		Psi:         0.72,
		Geomag:      domain.FallbackGeomag(),
		Solar:       domain.FallbackSolarWind(),
		EII:         1,
		Phase:       domain.PhaseActive,
		Forecast:    domain.GenerateForecast(0.72, 3),
	}

	msg, err := serializeToMessage(snap)
	require.NoError(t, err)

	assert.Equal(t, []byte("snap-0011223344556677"), msg.Key)
	assert.Equal(t, now, msg.Time)
	assert.Contains(t, string(msg.Value), `"phase":"ACTIVE"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "phase", msg.Headers[0].Key)
	assert.Equal(t, []byte("ACTIVE"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, snap.ID, decoded.ID)
	assert.Len(t, decoded.Forecast, 3)
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"b1:9092", "b2:9092"}, KafkaTopic: "snapshots"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "kafka", w.Name())
	assert.Equal(t, "snapshots", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
	assert.IsType(t, &kafkago.Hash{}, w.writer.Balancer)
}
