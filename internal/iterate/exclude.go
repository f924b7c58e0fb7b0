package iterate

import "iter"

// ExcludeCursor lazily consumes an ordered sequence of already-seen keys
// and tests values pulled from a primary sequence against it.
//
// This is a merge-style single-pass comparison, not a set membership test:
// each exclude key is held until it matches, consumed at most once, and
// never retested afterwards. Correctness therefore depends on the caller
// presenting both sequences in the same relative order (descending numeric
// job numbers in the reference use case). The ordering is a hard
// precondition on the caller, not validated here; keys out of order are
// silently missed.
//
// Keys must be comparable with ==.
type ExcludeCursor struct {
	next      func() (any, bool)
	stop      func()
	pending   any
	fallback  any
	compare   func(a, b any) int
	completed bool
}

// NewExcludeCursor creates a cursor over seq. Once seq is drained the
// pending key is replaced with the fallback sentinel and the cursor is
// completed. A nil seq yields a cursor that is completed immediately.
// The first key is pulled eagerly.
func NewExcludeCursor(seq iter.Seq[any], fallback any) *ExcludeCursor {
	if seq == nil {
		seq = func(func(any) bool) {}
	}
	next, stop := iter.Pull(seq)
	c := &ExcludeCursor{
		next:     next,
		stop:     stop,
		fallback: fallback,
	}
	c.advance()
	return c
}

// NewOrderedExcludeCursor creates a cursor that additionally knows the
// scan order of both sequences: compare(a, b) reports a negative value
// when a is scanned before b. With the order known, Test can discard
// pending exclude keys that refer to elements already past the scan
// position, which happens when a primary element was dropped by a case
// stage before its key could be matched. Stale keys are consumed without
// counting as matches.
func NewOrderedExcludeCursor(seq iter.Seq[any], fallback any, compare func(a, b any) int) *ExcludeCursor {
	c := NewExcludeCursor(seq, fallback)
	c.compare = compare
	return c
}

// advance pulls the next exclude key, or latches the completed state.
func (c *ExcludeCursor) advance() {
	value, ok := c.next()
	if !ok {
		value = c.fallback
		c.completed = true
	}
	c.pending = value
}

// Test reports whether key is excluded. On a match the cursor advances to
// the next exclude key. Once the exclude sequence is drained, Test always
// reports false: there is nothing left to exclude against.
func (c *ExcludeCursor) Test(key any) bool {
	if c.compare != nil {
		for !c.completed && c.compare(c.pending, key) < 0 {
			// Pending key belongs to an element already behind the scan
			// position; it can never match a future key.
			c.advance()
		}
	}
	if c.completed {
		return false
	}
	if key == c.pending {
		c.advance()
		return true
	}
	return false
}

// Pending returns the next not-yet-consumed exclude key, or the fallback
// sentinel once the sequence is exhausted.
func (c *ExcludeCursor) Pending() any {
	return c.pending
}

// Completed reports whether the exclude sequence has been drained.
func (c *ExcludeCursor) Completed() bool {
	return c.completed
}

// Close releases the underlying pull iterator. Safe to call more than once.
func (c *ExcludeCursor) Close() {
	c.stop()
}
