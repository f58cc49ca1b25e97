package fcurve

import (
	"fmt"
	"log/slog"
)

// SearchThreshold is the distance within which two key times are treated
// as the same time.
const SearchThreshold = 0.01

// DebugChecks enables invariant assertions on every mutation. Tests turn it
// on; production code leaves it off.
var DebugChecks = false

func timesEqual(a, b, threshold float64) bool {
	if a > b {
		return a-b <= threshold
	}
	return b-a <= threshold
}

// BinarySearch finds the slot for time t in points.
//
// It returns the index of the matching point and true when a point already
// sits within SearchThreshold of t, or the insertion index and false
// otherwise. An empty slice yields (0, false).
func BinarySearch(points []Point, t float64) (int, bool) {
	return binarySearch(points, t, SearchThreshold)
}

func binarySearch(points []Point, t, threshold float64) (int, bool) {
	n := len(points)
	if n == 0 {
		return 0, false
	}

	// Before or on the first key. A single-key curve always exits here or
	// at the last-key check.
	first := points[0].Time()
	if timesEqual(t, first, threshold) {
		return 0, true
	}
	if t < first {
		return 0, false
	}

	last := points[n-1].Time()
	if timesEqual(t, last, threshold) {
		return n - 1, true
	}
	if t > last {
		return n, false
	}

	start, end := 0, n-1
	maxLoop := n * 2
	loops := 0
	for ; start <= end && loops < maxLoop; loops++ {
		mid := start + (end-start)/2
		midTime := points[mid].Time()
		if timesEqual(t, midTime, threshold) {
			return mid, true
		}
		if t > midTime {
			start = mid + 1
		} else {
			end = mid - 1
		}
	}

	if loops == maxLoop {
		slog.Error("binary search did not converge", "time", t, "points", n)
	}
	return start, false
}

// AssertSorted panics when the points are not strictly ascending. It is a
// no-op unless DebugChecks is set.
func AssertSorted(c *Curve) {
	if !DebugChecks {
		return
	}
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i-1].Time() >= c.Points[i].Time() {
			panic(fmt.Sprintf("fcurve %s[%d]: points not sorted at %d (%v >= %v)",
				c.Path, c.Index, i, c.Points[i-1].Time(), c.Points[i].Time()))
		}
	}
}
