// Package domain models climate sensor readings and the preservation
// assessments derived from them.
//
// # Data Source
//
// Readings originate from environmental sensors placed in archival storage
// spaces. The upstream collector service polls the sensors, normalizes their
// payloads to flat JSON, and publishes each reading to the Kafka source topic.
//
// # Reading Conventions
//
// Temperature scale:
//
//	The "scale" field names the unit the sensor reports in: "c", "f" or "k"
//	(case-insensitive). An absent scale means Celsius. Assessments always
//	carry temperature in °C.
//
// Timestamps:
//
//	"recorded_at" is RFC 3339. When it is missing or malformed the Kafka
//	message timestamp (set by the collector at publish time) stands in.
//	All times are normalized to UTC.
//
// Relative humidity:
//
//	Percent, 0 to 100. Non-finite measurements are rejected at parse time;
//	out-of-range values are rejected later by the evaluator.
//
// # ID Generation
//
// Assessment IDs are deterministic SHA-256 hashes of
// sensor|recorded_at|temperature|humidity. This enables idempotent upserts
// downstream (ON CONFLICT DO NOTHING) and replay safety without distributed
// coordination. See [FinalizeAssessment].
package domain
