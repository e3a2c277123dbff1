package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/complaints", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/complaints", "GET", 200, 7*time.Millisecond)
	m.RecordRequest("/complaints", "POST", 201, time.Millisecond)
	m.RecordError("/complaints/abc", "GET", "VALIDATION_FAILED")

	assert.Equal(t, int64(2), m.RequestCount("/complaints", "GET", 200))
	assert.Equal(t, int64(1), m.RequestCount("/complaints", "POST", 201))
	assert.Equal(t, int64(0), m.RequestCount("/complaints", "GET", 500))
	assert.Equal(t, int64(1), m.ErrorCount("/complaints/abc", "GET", "VALIDATION_FAILED"))
	assert.Equal(t, int64(0), m.ErrorCount("/complaints/abc", "GET", "NOT_FOUND"))
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "INTERNAL_ERROR")
	assert.Equal(t, int64(0), m.RequestCount("/", "GET", 200))
	assert.Equal(t, int64(0), m.ErrorCount("/", "GET", "INTERNAL_ERROR"))
}
