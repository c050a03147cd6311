package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/preservation-eval/internal/domain"
	"github.com/couchcryptid/preservation-eval/internal/eval"
)

// ClimateTransformer implements Transformer by evaluating each reading
// against the preservation tables.
type ClimateTransformer struct {
	evaluator *eval.Evaluator
	logger    *slog.Logger
}

// NewTransformer creates a ClimateTransformer over the given evaluator.
func NewTransformer(evaluator *eval.Evaluator, logger *slog.Logger) *ClimateTransformer {
	return &ClimateTransformer{
		evaluator: evaluator,
		logger:    logger,
	}
}

func (t *ClimateTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	reading, err := domain.ParseReading(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	tempC, err := eval.ToCelsius(reading.Temperature, reading.Scale)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("transform reading %s: %w", reading.SensorID, err)
	}

	result, err := t.evaluator.Evaluate(tempC, reading.RelativeHumidity)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("evaluate reading %s: %w", reading.SensorID, err)
	}

	assessment := domain.FinalizeAssessment(domain.Assessment{
		SensorID:         reading.SensorID,
		Space:            reading.Space,
		TemperatureC:     tempC,
		RelativeHumidity: reading.RelativeHumidity,
		DewPoint:         result.DewPoint,

		PI:       result.PI,
		EMC:      result.EMC,
		MoldRisk: result.Mold,

		NaturalAging:     string(result.NaturalAging),
		MechanicalDamage: string(result.MechanicalDamage),
		MetalCorrosion:   string(result.MetalCorrosion),
		MoldGrowth:       string(result.MoldGrowth),

		RecordedAt: reading.RecordedAt,
	})

	return serializeAssessment(assessment)
}

// serializeAssessment renders an assessment as an output event. The key is
// the sensor ID so one sensor's assessments land on one partition in order.
func serializeAssessment(a domain.Assessment) (domain.OutputEvent, error) {
	value, err := json.Marshal(a)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize assessment %s: %w", a.ID, err)
	}

	return domain.OutputEvent{
		Key:   []byte(a.SensorID),
		Value: value,
		Headers: map[string]string{
			"sensor_id":    a.SensorID,
			"evaluated_at": a.EvaluatedAt.Format(time.RFC3339),
		},
	}, nil
}
