// Package fcurve implements the keyframe curve data model and the mutation
// rules used when keys are inserted.
//
// A Curve is a flat slice of Points sorted by the time of their center
// control point. Times are unique: an insertion either adds a new point at
// the position found by binary search or replaces the point that already
// sits at that time. The slice is never restructured into a tree; curves are
// small and neighbour access by index dominates.
//
// INVARIANTS:
//   - Points are strictly ascending by Control[1].Time
//   - Control[0].Time <= Control[1].Time <= Control[2].Time for every point
//     after handle recalculation
//   - A rejected insertion leaves the curve untouched and reports index -1
//
// This package performs no locking. Callers hold the document's writer lock
// for the duration of a keying call.
package fcurve
