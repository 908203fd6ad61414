// Package config holds the process-wide knobs spec.md §6 names as external
// inputs: SAMPLE_COUNT, INTERVAL, OCCUPY_TIMEOUT, STATISTIC_MAX_RT, as a
// Config/DefaultConfig pair like every teacher service's. A Config is
// passed by value: each engine, topology manager and statistic node keeps
// the copy it was constructed with, so changing a Config afterwards does
// not affect components that already exist.
package config

import "time"

// Config mirrors spec.md §6's four process-wide settings.
type Config struct {
	// SampleCount is the sub-second ring's bucket count (default 2).
	SampleCount int
	// IntervalMs is the sub-second ring's total horizon in milliseconds
	// (default 1000). Must be a whole multiple of SampleCount.
	IntervalMs int64
	// OccupyTimeoutMs bounds how long a prioritized caller may be told to
	// wait for a future bucket to free up (default 500ms).
	OccupyTimeoutMs int64
	// StatisticMaxRtMs caps the response time recorded for a single call,
	// preventing one pathological request from skewing avg_rt (default
	// 5000ms).
	StatisticMaxRtMs int64
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		SampleCount:      2,
		IntervalMs:       1000,
		OccupyTimeoutMs:  500,
		StatisticMaxRtMs: 5000,
	}
}

// WindowLengthMs derives the sub-second ring's per-bucket width.
func (c Config) WindowLengthMs() uint64 {
	return uint64(c.IntervalMs) / uint64(c.SampleCount)
}

// OccupyTimeout as a time.Duration, for callers doing the actual sleep.
func (c Config) OccupyTimeout() time.Duration {
	return time.Duration(c.OccupyTimeoutMs) * time.Millisecond
}

// ClampRt enforces StatisticMaxRtMs on a measured response time.
func (c Config) ClampRt(rtMs int64) int64 {
	if rtMs > c.StatisticMaxRtMs {
		return c.StatisticMaxRtMs
	}
	if rtMs < 0 {
		return 0
	}
	return rtMs
}
