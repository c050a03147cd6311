package domain

import (
	"context"
	"time"
)

// RawReading represents the flat JSON structure produced by the sensor
// collector. Temperature arrives in whatever scale the sensor reports;
// the Scale field names it ("c", "f" or "k", defaulting to Celsius).
type RawReading struct {
	SensorID         string  `json:"sensor_id"`
	Space            string  `json:"space,omitempty"` // storage space, e.g. "vault-2"
	Temperature      float64 `json:"temperature"`
	Scale            string  `json:"scale,omitempty"`
	RelativeHumidity float64 `json:"relative_humidity"`
	RecordedAt       string  `json:"recorded_at,omitempty"` // RFC 3339
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ClimateReading is the domain-rich representation after parsing.
type ClimateReading struct {
	SensorID         string    `json:"sensor_id"`
	Space            string    `json:"space,omitempty"`
	Temperature      float64   `json:"temperature"`
	Scale            string    `json:"scale"`
	RelativeHumidity float64   `json:"relative_humidity"`
	RecordedAt       time.Time `json:"recorded_at"`

	RawPayload []byte `json:"-"`
}

// Assessment is the preservation evaluation of one climate reading.
// Temperature is always in °C regardless of the reading's scale.
type Assessment struct {
	ID               string  `json:"id"`
	SensorID         string  `json:"sensor_id"`
	Space            string  `json:"space,omitempty"`
	TemperatureC     float64 `json:"temperature_c"`
	RelativeHumidity float64 `json:"relative_humidity"`
	DewPoint         float64 `json:"dew_point"`

	PI       int16   `json:"pi"`
	EMC      float64 `json:"emc"`
	MoldRisk int16   `json:"mold_risk"`

	NaturalAging     string `json:"natural_aging"`
	MechanicalDamage string `json:"mechanical_damage"`
	MetalCorrosion   string `json:"metal_corrosion"`
	MoldGrowth       string `json:"mold_growth"`

	RecordedAt  time.Time `json:"recorded_at"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
