package core

import "time"

// windowsOverlap reports whether two effective-date windows intersect.
// A nil bound is open-ended, so a window with both bounds nil covers all
// time and overlaps everything. Bounds are inclusive: a window ending the
// day another starts still overlaps; ending the day before does not.
func windowsOverlap(aFrom, aTo, bFrom, bTo *time.Time) bool {
	startsBeforeEnds := func(start, end *time.Time) bool {
		if start == nil || end == nil {
			return true
		}
		return !start.After(*end)
	}
	return startsBeforeEnds(aFrom, bTo) && startsBeforeEnds(bFrom, aTo)
}

// windowContains reports whether the [from, to] window (nil = open-ended)
// contains the reference instant.
func windowContains(from, to *time.Time, at time.Time) bool {
	if from != nil && from.After(at) {
		return false
	}
	if to != nil && to.Before(at) {
		return false
	}
	return true
}
