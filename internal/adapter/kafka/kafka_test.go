package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/preservation-eval/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("vault2-north"),
		Value:     []byte(`{"sensor_id":"vault2-north"}`),
		Topic:     "climate-readings",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "collector", Value: []byte("sensor-gw")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("vault2-north"), raw.Key)
	assert.JSONEq(t, `{"sensor_id":"vault2-north"}`, string(raw.Value))
	assert.Equal(t, "climate-readings", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "sensor-gw", raw.Headers["collector"])
	assert.Nil(t, raw.Commit)
}

func TestOutputToMessage(t *testing.T) {
	event := domain.OutputEvent{
		Key:   []byte("vault2-north"),
		Value: []byte(`{"id":"vault2-north-abc"}`),
		Headers: map[string]string{
			"sensor_id":    "vault2-north",
			"evaluated_at": "2026-03-14T12:30:00Z",
		},
	}

	msg := outputToMessage(event)

	assert.Equal(t, []byte("vault2-north"), msg.Key)
	assert.Equal(t, event.Value, msg.Value)

	// Headers come out sorted by key.
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "evaluated_at", msg.Headers[0].Key)
	assert.Equal(t, []byte("2026-03-14T12:30:00Z"), msg.Headers[0].Value)
	assert.Equal(t, "sensor_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("vault2-north"), msg.Headers[1].Value)
}

func TestOutputToMessage_NoHeaders(t *testing.T) {
	msg := outputToMessage(domain.OutputEvent{Key: []byte("k"), Value: []byte("v")})
	assert.Empty(t, msg.Headers)
}
