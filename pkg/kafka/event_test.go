package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewPayload struct {
	ReviewID   string  `json:"review_id"`
	CustomerID string  `json:"customer_id"`
	Overall    float64 `json:"overall"`
}

func TestNewEvent_Fields(t *testing.T) {
	data := reviewPayload{ReviewID: "rev-1", CustomerID: "cust-1", Overall: 4.5}
	event, err := NewEvent("review.created", "cust-1", "customer", "patronscore", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "review.created", event.EventType)
	assert.Equal(t, "cust-1", event.AggregateID)
	assert.Equal(t, "customer", event.AggregateType)
	assert.Equal(t, "patronscore", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got reviewPayload
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("review.created", "x", "customer", "patronscore", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review.created")
}

func TestEvent_MarshalUnmarshal(t *testing.T) {
	original, err := NewEvent("customer.flagged", "cust-9", "customer", "patronscore", map[string]float64{"overall": 2.1})
	require.NoError(t, err)
	original.WithCorrelationID("corr-1").WithMetadata("trigger", "review.created")

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.Equal(t, "review.created", restored.Metadata["trigger"])
	assert.True(t, original.Timestamp.Equal(restored.Timestamp))
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{nope"))
	assert.Error(t, err)
}
