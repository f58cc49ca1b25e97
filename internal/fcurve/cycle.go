package fcurve

import "math"

// CycleMode is the extrapolation applied on one side of a cycle modifier.
type CycleMode int

const (
	CycleOff CycleMode = iota
	CycleRepeat
	CycleRepeatOffset
	CycleMirror
)

// Cycle repeats the keyed range of a curve before and after itself.
// A count of zero means unlimited repetitions.
type Cycle struct {
	Before      CycleMode `json:"before" yaml:"before"`
	After       CycleMode `json:"after" yaml:"after"`
	BeforeCount int       `json:"before_count" yaml:"before_count"`
	AfterCount  int       `json:"after_count" yaml:"after_count"`

	Muted bool `json:"muted,omitempty" yaml:"muted,omitempty"`
	// Restricted is set when the modifier only applies in a frame range or
	// with partial influence.
	Restricted bool `json:"restricted,omitempty" yaml:"restricted,omitempty"`
}

// CycleKind classifies how a curve cycles.
type CycleKind int

const (
	CycleNone CycleKind = iota
	CyclePerfect
	CycleOffset
)

// CycleType reports how the curve cycles. Only an active, unrestricted,
// unlimited cycle in both directions counts.
func CycleType(c *Curve) CycleKind {
	cy := c.Cycle
	if cy == nil || cy.Muted || cy.Restricted {
		return CycleNone
	}
	if cy.BeforeCount != 0 || cy.AfterCount != 0 {
		return CycleNone
	}
	if cy.Before == CycleRepeat && cy.After == CycleRepeat {
		return CyclePerfect
	}
	repeats := func(m CycleMode) bool { return m == CycleRepeat || m == CycleRepeatOffset }
	if repeats(cy.Before) && repeats(cy.After) {
		return CycleOffset
	}
	return CycleNone
}

// IsPerfectCycle reports whether the first and last keys of the curve are
// meant to hold the same value.
func IsPerfectCycle(c *Curve) bool {
	return CycleType(c) == CyclePerfect
}

// shiftValue moves all three control points of dst vertically so that its
// key lands on src's value, and copies src's selection. Handle slopes are
// preserved.
func shiftValue(dst *Point, src *Point) {
	dy := src.Control[1].Value - dst.Control[1].Value
	dst.Control[0].Value += dy
	dst.Control[1].Value += dy
	dst.Control[2].Value += dy
	dst.Select = src.Select
}

// remapCyclicLocation folds a time outside the keyed range of a cyclic
// curve back into the range. For offset cycles the value is shifted by the
// accumulated offset of the skipped periods.
func remapCyclicLocation(c *Curve, t, v float64) (float64, float64) {
	if len(c.Points) < 2 {
		return t, v
	}
	kind := CycleType(c)
	if kind == CycleNone {
		return t, v
	}

	first, last := &c.Points[0], &c.Points[len(c.Points)-1]
	start, end := first.Time(), last.Time()
	if start >= end {
		return t, v
	}
	if t >= start && t <= end {
		return t, v
	}

	period := end - start
	step := math.Floor((t - start) / period)
	t -= step * period

	if kind == CycleOffset {
		mode := c.Cycle.After
		if step < 0 {
			mode = c.Cycle.Before
		}
		if mode == CycleRepeatOffset {
			v -= step * (last.Value() - first.Value())
		}
	}
	return t, v
}
