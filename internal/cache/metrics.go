package cache

import (
	"sync/atomic"
	"time"
)

type Metrics struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Errors    int64 `json:"errors"`
	Sets      int64 `json:"sets"`
	Deletes   int64 `json:"deletes"`
	StartTime int64 `json:"startTime"`
}

func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now().Unix()}
}

func (m *Metrics) RecordHit()    { atomic.AddInt64(&m.Hits, 1) }
func (m *Metrics) RecordMiss()   { atomic.AddInt64(&m.Misses, 1) }
func (m *Metrics) RecordError()  { atomic.AddInt64(&m.Errors, 1) }
func (m *Metrics) RecordSet()    { atomic.AddInt64(&m.Sets, 1) }
func (m *Metrics) RecordDelete() { atomic.AddInt64(&m.Deletes, 1) }

// Snapshot returns a consistent-enough copy for reporting.
func (m *Metrics) Snapshot() Metrics {
	return Metrics{
		Hits:      atomic.LoadInt64(&m.Hits),
		Misses:    atomic.LoadInt64(&m.Misses),
		Errors:    atomic.LoadInt64(&m.Errors),
		Sets:      atomic.LoadInt64(&m.Sets),
		Deletes:   atomic.LoadInt64(&m.Deletes),
		StartTime: m.StartTime,
	}
}

// HitRate is a percentage in [0, 100].
func (m *Metrics) HitRate() float64 {
	hits := atomic.LoadInt64(&m.Hits)
	total := hits + atomic.LoadInt64(&m.Misses)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
