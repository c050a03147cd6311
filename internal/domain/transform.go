package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// ParseReading deserializes a RawEvent's value into a ClimateReading.
// It expects the flat JSON produced by the sensor collector.
func ParseReading(raw RawEvent) (ClimateReading, error) {
	var rec RawReading
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return ClimateReading{}, fmt.Errorf("parse raw reading: %w", err)
	}

	if strings.TrimSpace(rec.SensorID) == "" {
		return ClimateReading{}, fmt.Errorf("parse raw reading: missing sensor_id")
	}

	scale, err := normalizeScale(rec.Scale)
	if err != nil {
		return ClimateReading{}, fmt.Errorf("parse raw reading: %w", err)
	}

	if !isFinite(rec.Temperature) || !isFinite(rec.RelativeHumidity) {
		return ClimateReading{}, fmt.Errorf("parse raw reading: non-finite measurement")
	}

	return ClimateReading{
		SensorID:         strings.TrimSpace(rec.SensorID),
		Space:            strings.TrimSpace(rec.Space),
		Temperature:      rec.Temperature,
		Scale:            scale,
		RelativeHumidity: rec.RelativeHumidity,
		RecordedAt:       parseRecordedAt(raw.Timestamp, rec.RecordedAt),

		RawPayload: raw.Value,
	}, nil
}

// normalizeScale lowercases the scale tag and defaults to Celsius. Only
// "c", "f" and "k" are accepted.
func normalizeScale(scale string) (string, error) {
	scale = strings.ToLower(strings.TrimSpace(scale))
	switch scale {
	case "":
		return "c", nil
	case "c", "f", "k":
		return scale, nil
	default:
		return "", fmt.Errorf("unknown temperature scale %q", scale)
	}
}

// parseRecordedAt parses an RFC 3339 timestamp, falling back to the message
// timestamp when the field is empty or malformed. Always returns UTC.
func parseRecordedAt(fallback time.Time, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback.UTC()
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback.UTC()
	}
	return t.UTC()
}

// FinalizeAssessment assigns the deterministic ID and evaluation timestamp.
// Reprocessing the same reading yields the same ID, so downstream sinks can
// upsert on conflict and replays stay idempotent.
func FinalizeAssessment(a Assessment) Assessment {
	a.ID = assessmentID(a.SensorID, a.RecordedAt, a.TemperatureC, a.RelativeHumidity)
	a.EvaluatedAt = clock.Now().UTC()
	return a
}

func assessmentID(sensorID string, recordedAt time.Time, tempC, rh float64) string {
	input := fmt.Sprintf("%s|%s|%.2f|%.2f",
		sensorID, recordedAt.UTC().Format(time.RFC3339), tempC, rh)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if sensorID == "" {
		return short
	}
	return sensorID + "-" + short
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
