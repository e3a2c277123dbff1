package observability

import (
	"strconv"
	"sync"
	"time"
)

type requestStat struct {
	count   int64
	latency time.Duration
}

// Metrics keeps in-process request and error counters keyed by route.
// There is no external metrics backend in this service; the counters are
// read back for tests and shutdown logging.
type Metrics struct {
	mu       sync.RWMutex
	requests map[string]*requestStat
	errors   map[string]int64
}

// NewMetrics initializes empty counters.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]*requestStat),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts one completed request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	stat, ok := m.requests[key]
	if !ok {
		stat = &requestStat{}
		m.requests[key] = stat
	}
	stat.count++
	stat.latency += duration
}

// RecordError counts one taxonomy-coded failure.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method+" "+path+" "+code]++
}

// RequestCount reads the counter for a method/path/status combination.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if stat, ok := m.requests[requestKey(path, method, status)]; ok {
		return stat.count
	}
	return 0
}

// ErrorCount reads the counter for a method/path/code combination.
func (m *Metrics) ErrorCount(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errors[method+" "+path+" "+code]
}

func requestKey(path, method string, status int) string {
	return method + " " + path + " " + strconv.Itoa(status)
}
