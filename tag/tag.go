// Package tag implements the (offset, key, value) annotations attached
// to sample positions and the policy governing how they cross a block.
package tag

import "sort"

// Tag annotates a sample position within a port's item stream.
type Tag struct {
	Offset uint64
	Key    string
	Value  any
}

// Policy controls whether and how trimmed input tags propagate to
// output ports.
type Policy int

const (
	// DontPropagate drops trimmed input tags.
	DontPropagate Policy = iota
	// AllToAll emits every trimmed input tag, rate-scaled, on every
	// output port.
	AllToAll
	// OneToOne emits a trimmed input tag from port i, rate-scaled, on
	// output port i only (dropped if there is no matching output port).
	OneToOne
)

// List is the ordered per-input-port tag sequence plus the "changed"
// flag that defers re-sorting until the handler actually needs an
// offset-ordered view.
type List struct {
	tags    []Tag
	changed bool
}

// Add appends a tag and marks the list as needing a re-sort before its
// next ordered use.
func (l *List) Add(t Tag) {
	l.tags = append(l.tags, t)
	l.changed = true
}

// SortIfChanged sorts the list by Offset ascending exactly when the
// changed flag is set, then clears it. Idempotent between Adds.
func (l *List) SortIfChanged() {
	if !l.changed {
		return
	}
	sort.Slice(l.tags, func(i, j int) bool { return l.tags[i].Offset < l.tags[j].Offset })
	l.changed = false
}

// Tags returns the current backing slice. Callers must not mutate it;
// use TrimBefore to remove a prefix.
func (l *List) Tags() []Tag { return l.tags }

// TrimBefore removes and returns every tag with Offset < before, in
// order. The caller is expected to have called SortIfChanged first so
// that the returned prefix is the correct offset-ordered set.
func (l *List) TrimBefore(before uint64) []Tag {
	last := 0
	for last < len(l.tags) && l.tags[last].Offset < before {
		last++
	}
	if last == 0 {
		return nil
	}
	trimmed := append([]Tag(nil), l.tags[:last]...)
	l.tags = l.tags[last:]
	return trimmed
}

// Scaled returns a copy of t with Offset scaled by rate and rounded
// half away from zero, matching GNU Radio's myulround convention for
// carrying a tag's position across a rate change.
func Scaled(t Tag, rate float64) Tag {
	t.Offset = RoundRate(float64(t.Offset) * rate)
	return t
}

// RoundRate rounds a non-negative float to the nearest integer, ties
// away from zero.
func RoundRate(x float64) uint64 {
	if x < 0 {
		x = 0
	}
	return uint64(x + 0.5)
}
