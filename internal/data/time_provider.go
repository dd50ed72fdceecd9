package data

import "time"

// TimeProvider abstracts the clock so due-date comparisons and processed_at
// stamps can be pinned in tests.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock. The zero value is ready to use.
type RealTimeProvider struct{}

func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// FixedTimeProvider returns a pinned instant, letting tests advance time
// explicitly instead of sleeping.
type FixedTimeProvider struct {
	at time.Time
}

// NewFixedTimeProvider pins the clock at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{at: t}
}

func (f *FixedTimeProvider) Now() time.Time {
	return f.at
}

// SetTime moves the pinned clock to t.
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.at = t
}

// AddTime advances the pinned clock by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.at = f.at.Add(d)
}
