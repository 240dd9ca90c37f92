package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampText(t *testing.T) {
	a := Timestamp{time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)}
	data, err := a.MarshalText()
	require.NoError(t, err)
	var b Timestamp
	err = b.UnmarshalText(data)
	require.NoError(t, err)
	assert.True(t, a.Equal(b.Time))
}

func TestTimestampWithoutOffset(t *testing.T) {
	var payload struct {
		CreatedAt Timestamp `json:"created_at"`
	}
	err := json.Unmarshal([]byte(`{"created_at": "2024-03-04T10:30:00.123456"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 30, 0, 123456000, time.UTC), payload.CreatedAt.Time)
}

func TestTimestampWithOffset(t *testing.T) {
	var ts Timestamp
	err := ts.UnmarshalText([]byte("2024-03-04T12:30:00+02:00"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC), ts.Time)
}

func TestTimestampInvalid(t *testing.T) {
	var ts Timestamp
	err := ts.UnmarshalText([]byte("yesterday"))
	assert.Error(t, err)
}
