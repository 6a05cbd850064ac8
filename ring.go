package bordo

import (
	"sync"
)

// ring is a fixed capacity FIFO. Once full, each push evicts the oldest entry.
type ring[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{
		items: make([]T, capacity),
	}
}

func (r *ring[T]) push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.items) {
		r.items[(r.head+r.size)%len(r.items)] = v
		r.size++
		return
	}
	// eviction and insert share the slot and the lock
	r.items[r.head] = v
	r.head = (r.head + 1) % len(r.items)
}

func (r *ring[T]) last() (v T, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.size == 0 {
		return v, false
	}
	return r.items[(r.head+r.size-1)%len(r.items)], true
}

// snapshot returns a copy of the entries, oldest first.
func (r *ring[T]) snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.head+i)%len(r.items)]
	}
	return out
}

func (r *ring[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// TelemetryLog keeps the most recent HistoryCapacity records in insertion order.
// It is safe for concurrent use.
type TelemetryLog struct {
	r *ring[TelemetryRecord]
}

func NewTelemetryLog() *TelemetryLog {
	return &TelemetryLog{
		r: newRing[TelemetryRecord](HistoryCapacity),
	}
}

func (l *TelemetryLog) Append(rec TelemetryRecord) {
	l.r.push(rec)
}

// Latest returns the reading of the newest record. ok is false when nothing
// has been appended yet.
func (l *TelemetryLog) Latest() (reading SensorReading, ok bool) {
	rec, ok := l.r.last()
	return rec.Reading, ok
}

func (l *TelemetryLog) LatestRecord() (TelemetryRecord, bool) {
	return l.r.last()
}

func (l *TelemetryLog) Records() []TelemetryRecord {
	return l.r.snapshot()
}

func (l *TelemetryLog) Len() int {
	return l.r.len()
}

func (l *TelemetryLog) Cap() int {
	return len(l.r.items)
}

// DrivingPatternLog stores driving samples for later analysis. Nothing consumes it yet.
type DrivingPatternLog struct {
	r *ring[DrivingPattern]
}

func NewDrivingPatternLog() *DrivingPatternLog {
	return &DrivingPatternLog{
		r: newRing[DrivingPattern](HistoryCapacity),
	}
}

func (l *DrivingPatternLog) Append(p DrivingPattern) {
	l.r.push(p)
}

func (l *DrivingPatternLog) Patterns() []DrivingPattern {
	return l.r.snapshot()
}

func (l *DrivingPatternLog) Len() int {
	return l.r.len()
}
