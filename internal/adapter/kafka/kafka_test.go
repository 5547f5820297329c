package kafka

import (
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/pandemic-map-etl/internal/config"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(now time.Time) domain.SeriesRecord {
	return domain.SeriesRecord{
		Dataset:     domain.DatasetGlobal,
		Metric:      domain.MetricCases,
		Entity:      "Mainland China",
		Geo:         domain.Geo{Lat: 30.97, Lon: 112.27},
		Dates:       []string{"2020-01-22", "2020-01-23"},
		Values:      []float64{548, 643},
		ProcessedAt: now,
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	msg, err := serializeToMessage(testRecord(now))
	require.NoError(t, err)

	assert.Equal(t, []byte("global/cases/Mainland China"), msg.Key)
	assert.Contains(t, string(msg.Value), `"entity":"Mainland China"`)
	assert.Contains(t, string(msg.Value), `"values":[548,643]`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, kafkago.Header{Key: "dataset", Value: []byte("global")}, msg.Headers[0])
	assert.Equal(t, kafkago.Header{Key: "metric", Value: []byte("cases")}, msg.Headers[1])
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestDecodeMessage(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	want := testRecord(now)

	msg, err := serializeToMessage(want)
	require.NoError(t, err)

	got, err := DecodeMessage(msg)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded record mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodeMessage(kafkago.Message{Key: []byte("k"), Value: []byte("not json")})
	assert.Error(t, err)
}

func TestMessageKey_DistinguishesTables(t *testing.T) {
	r := testRecord(time.Time{})
	cases := MessageKey(r)
	r.Metric = domain.MetricDeaths
	assert.NotEqual(t, cases, MessageKey(r))
}

func TestNewWriter_UsesConfig(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"b1:9092", "b2:9092"}, KafkaSinkTopic: "pandemic-series"}

	w := NewWriter(cfg, slog.Default())
	defer w.Close()

	assert.Equal(t, "pandemic-series", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}

func TestLoadBatch_Empty(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaSinkTopic: "t"}, slog.Default())
	defer w.Close()

	assert.NoError(t, w.LoadBatch(t.Context(), nil))
}
