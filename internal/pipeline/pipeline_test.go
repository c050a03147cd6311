package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/preservation-eval/internal/domain"
	"github.com/couchcryptid/preservation-eval/internal/eval"
	"github.com/couchcryptid/preservation-eval/internal/lookup"
	"github.com/couchcryptid/preservation-eval/internal/observability"
	"github.com/couchcryptid/preservation-eval/internal/pipeline"
	"github.com/couchcryptid/preservation-eval/internal/tables"
)

// --- mocks ---

type mockExtractor struct {
	events []domain.RawEvent
	done   atomic.Bool
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	if m.done.Swap(true) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if len(m.events) > batchSize {
		return m.events[:batchSize], nil
	}
	return m.events, nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	loaded []domain.OutputEvent
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// testEvaluator builds an evaluator over a single-cell table set anchored at
// 20 °C and 50 % rh. PI and EMC clamp, so every valid reading resolves to the
// anchor cell; mold raises outside it and reads as no risk.
func testEvaluator(t *testing.T) *eval.Evaluator {
	t.Helper()

	pi, err := lookup.New([][]int16{{50}}, 20, 50, lookup.Clamp)
	require.NoError(t, err)
	mold, err := lookup.New([][]int16{{30}}, 20, 50, lookup.Raise)
	require.NoError(t, err)
	emc, err := lookup.New([][]float64{{7.5}}, 20, 50, lookup.Clamp)
	require.NoError(t, err)

	return eval.New(&tables.Set{PI: pi, Mold: mold, EMC: emc})
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "vault2-north", 20, 50)

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no events, will block
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var committed atomic.Int64

	raw := makeRawEvent(t, "vault2-north", 20, 50)
	raw.Commit = func(_ context.Context) error {
		committed.Add(1)
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	tfm := &mockTransformer{err: errors.New("bad data")}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()),
		"skipped readings do not make the pipeline ready")
	assert.EqualValues(t, 1, committed.Load(),
		"poison messages are committed so they are not re-read forever")
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := makeRawEvent(t, "vault2-north", 20, 50)
	raw.Topic = "climate-readings"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, commitCalled)
}

func TestClimateTransformer_Transform(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 14, 12, 30, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	raw := makeRawEvent(t, "vault2-north", 20, 50)
	tfm := pipeline.NewTransformer(testEvaluator(t), slog.Default())

	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, []byte("vault2-north"), out.Key)
	assert.Equal(t, "vault2-north", out.Headers["sensor_id"])
	assert.Equal(t, "2026-03-14T12:30:00Z", out.Headers["evaluated_at"])

	var a domain.Assessment
	require.NoError(t, json.Unmarshal(out.Value, &a))
	assert.Equal(t, "vault2-north", a.SensorID)
	assert.Equal(t, 20.0, a.TemperatureC)
	assert.Equal(t, int16(50), a.PI)
	assert.Equal(t, 7.5, a.EMC)
	assert.Equal(t, int16(30), a.MoldRisk)
	assert.Equal(t, string(eval.RatingRisk), a.MoldGrowth)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, fakeClock.Now().UTC(), a.EvaluatedAt)
}

func TestClimateTransformer_ConvertsFahrenheit(t *testing.T) {
	payload, err := json.Marshal(domain.RawReading{
		SensorID:         "attic-1",
		Temperature:      68,
		Scale:            "f",
		RelativeHumidity: 50,
	})
	require.NoError(t, err)

	raw := domain.RawEvent{
		Key:       []byte("attic-1"),
		Value:     payload,
		Timestamp: time.Now(),
	}

	tfm := pipeline.NewTransformer(testEvaluator(t), slog.Default())
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	var a domain.Assessment
	require.NoError(t, json.Unmarshal(out.Value, &a))
	assert.InDelta(t, 20.0, a.TemperatureC, 1e-9)
	assert.Equal(t, int16(30), a.MoldRisk, "68 °F lands exactly on the mold cell")
}

func TestClimateTransformer_RejectsBadInput(t *testing.T) {
	tfm := pipeline.NewTransformer(testEvaluator(t), slog.Default())

	for _, tc := range []struct {
		name  string
		value string
	}{
		{"not json", "not json"},
		{"out of range humidity", `{"sensor_id":"s1","temperature":20,"relative_humidity":130}`},
		{"out of range temperature", `{"sensor_id":"s1","temperature":200,"relative_humidity":50}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(tc.value)})
			assert.Error(t, err)
		})
	}
}

// --- helpers ---

func makeRawEvent(t *testing.T, sensorID string, temp, rh float64) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.RawReading{
		SensorID:         sensorID,
		Space:            "vault-2",
		Temperature:      temp,
		RelativeHumidity: rh,
		RecordedAt:       "2026-03-14T11:58:30Z",
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(sensorID),
		Value: data,
	}
}
