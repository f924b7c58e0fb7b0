package iterate

import "fmt"

// Reserved context keys. The raw value and its exclusion key are set at
// construction and cannot be overwritten through Set.
const (
	KeyValue        = "value"
	KeyExcludeValue = "exclude_value"
)

// Context is the per-element carrier passed through the pipeline stages.
// It holds the raw value pulled from the primary sequence, the key derived
// from it for exclusion testing, auxiliary named fields writable by
// stages, and an append-only log of close reasons. A context lives for a
// single primary element and is discarded once the element is processed.
type Context struct {
	value        any
	excludeKey   any
	fields       map[string]any
	closeReasons []string
}

// NewContext creates a context for one primary element.
func NewContext(value, excludeKey any) *Context {
	return &Context{
		value:      value,
		excludeKey: excludeKey,
	}
}

// Value returns the raw element pulled from the primary sequence.
func (c *Context) Value() any {
	return c.value
}

// ExcludeKey returns the key used for exclusion testing.
func (c *Context) ExcludeKey() any {
	return c.excludeKey
}

// Set stores an auxiliary field. Writing a reserved key fails with
// ErrReservedKey.
func (c *Context) Set(key string, value any) error {
	if key == KeyValue || key == KeyExcludeValue {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	if c.fields == nil {
		c.fields = make(map[string]any)
	}
	c.fields[key] = value
	return nil
}

// Update stores every entry of fields, failing on the first reserved key.
func (c *Context) Update(fields map[string]any) error {
	for key, value := range fields {
		if err := c.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Get returns an auxiliary field. The reserved keys resolve to the raw
// value and the exclusion key respectively.
func (c *Context) Get(key string) (any, bool) {
	switch key {
	case KeyValue:
		return c.value, true
	case KeyExcludeValue:
		return c.excludeKey, true
	}
	value, ok := c.fields[key]
	return value, ok
}

// SetCloseReason appends a close reason. The last appended reason is the
// current one. Empty messages fail with ErrInvalidArgument.
func (c *Context) SetCloseReason(message string) error {
	if message == "" {
		return fmt.Errorf("%w: close reason message must not be empty", ErrInvalidArgument)
	}
	c.closeReasons = append(c.closeReasons, message)
	return nil
}

// CloseReason returns the most recently appended close reason, or false
// if none has been set.
func (c *Context) CloseReason() (string, bool) {
	if len(c.closeReasons) == 0 {
		return "", false
	}
	return c.closeReasons[len(c.closeReasons)-1], true
}

// CloseReasons returns a copy of the full close reason log in append order.
func (c *Context) CloseReasons() []string {
	if len(c.closeReasons) == 0 {
		return nil
	}
	reasons := make([]string, len(c.closeReasons))
	copy(reasons, c.closeReasons)
	return reasons
}
