package iterate

import "fmt"

// Counter is a monotonic counter bounded by a Threshold.
//
// Add reports whether the running count has reached the threshold. The
// reached state is sticky: once the count first equals the threshold,
// every subsequent Add keeps reporting true until Drop resets the count.
// Callers rely on polling the reached state repeatedly, so this must not
// be simplified to an edge-triggered signal.
//
// A counter built from a disabled threshold is permanently disabled:
// Add performs no counting at all and always reports false.
type Counter struct {
	threshold Threshold
	count     int
}

// NewCounter creates a counter bounded by the given threshold.
func NewCounter(threshold Threshold) *Counter {
	return &Counter{threshold: threshold}
}

// Add advances the count by one and reports whether the threshold has
// been reached. For a disabled counter it is a no-op returning false.
func (c *Counter) Add() bool {
	if !c.threshold.Enabled() {
		return false
	}
	c.count++
	return c.count >= c.threshold.Value()
}

// Drop resets the count to zero, un-latching the reached state.
func (c *Counter) Drop() {
	if !c.threshold.Enabled() {
		return
	}
	c.count = 0
}

// Count returns the current running count.
func (c *Counter) Count() int {
	return c.count
}

// Enabled reports whether the counter performs any counting.
func (c *Counter) Enabled() bool {
	return c.threshold.Enabled()
}

// Threshold returns the counter's bound.
func (c *Counter) Threshold() Threshold {
	return c.threshold
}

// String describes the counter state for logs.
func (c *Counter) String() string {
	if !c.Enabled() {
		return "counter disabled"
	}
	return fmt.Sprintf("counter %d/%d", c.count, c.threshold.Value())
}
