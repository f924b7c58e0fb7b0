package iterate

import (
	"fmt"
	"strconv"
)

// Threshold is an optional positive limit. The zero value is "no limit":
// a disabled threshold that no counter ever reaches. A zero constructor
// argument is normalized to the disabled state.
type Threshold struct {
	value int
}

// NewThreshold creates a threshold from n. Zero means "no limit";
// negative values are rejected with ErrInvalidThreshold.
func NewThreshold(n int) (Threshold, error) {
	if n < 0 {
		return Threshold{}, fmt.Errorf("%w: got %d", ErrInvalidThreshold, n)
	}
	return Threshold{value: n}, nil
}

// Enabled reports whether the threshold carries a limit.
func (t Threshold) Enabled() bool {
	return t.value != 0
}

// Value returns the configured limit, or 0 if the threshold is disabled.
func (t Threshold) Value() int {
	return t.value
}

// String returns the limit as a decimal string, or "none" when disabled.
func (t Threshold) String() string {
	if !t.Enabled() {
		return "none"
	}
	return strconv.Itoa(t.value)
}
