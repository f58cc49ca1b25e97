package fcurve

import "sort"

// Evaluate samples the curve at t.
//
// Cyclic curves are folded into their keyed range first. Outside the keyed
// range the curve extrapolates according to c.Extrapolation. Baked curves
// interpolate linearly between samples.
func Evaluate(c *Curve, t float64) float64 {
	if len(c.Points) == 0 {
		return evaluateSamples(c.Samples, t)
	}

	// Folding the value 0 yields minus the accumulated cycle offset.
	t, offset := remapCyclicLocation(c, t, 0)
	return evaluatePoints(c, t) - offset
}

func evaluatePoints(c *Curve, t float64) float64 {
	pts := c.Points
	n := len(pts)
	first, last := &pts[0], &pts[n-1]

	if t <= first.Time() {
		if c.Extrapolation != ExtrapolateLinear || n < 2 || first.Interp == InterpConstant {
			return first.Value()
		}
		return first.Value() - leadSlope(first, &pts[1])*(first.Time()-t)
	}
	if t >= last.Time() {
		if c.Extrapolation != ExtrapolateLinear || n < 2 || pts[n-2].Interp == InterpConstant {
			return last.Value()
		}
		return last.Value() + trailSlope(&pts[n-2], last)*(t-last.Time())
	}

	// First point strictly after t; t lies in the segment ending there.
	i := sort.Search(n, func(i int) bool { return pts[i].Time() > t })
	a, b := &pts[i-1], &pts[i]
	if t == a.Time() {
		return a.Value()
	}
	return evaluateSegment(a, b, t)
}

// leadSlope is the extrapolation slope before the first key. Bezier keys
// follow their left handle.
func leadSlope(first, next *Point) float64 {
	if first.Interp == InterpBezier {
		if s, ok := slope(first.Control[0], first.Control[1]); ok {
			return s
		}
	}
	s, _ := slope(first.Control[1], next.Control[1])
	return s
}

// trailSlope is the extrapolation slope after the last key.
func trailSlope(prev, last *Point) float64 {
	if prev.Interp == InterpBezier {
		if s, ok := slope(last.Control[1], last.Control[2]); ok {
			return s
		}
	}
	s, _ := slope(prev.Control[1], last.Control[1])
	return s
}

func slope(a, b Vec2) (float64, bool) {
	if b.Time == a.Time {
		return 0, false
	}
	return (b.Value - a.Value) / (b.Time - a.Time), true
}

func evaluateSegment(a, b *Point, t float64) float64 {
	switch a.Interp {
	case InterpConstant:
		return a.Value()
	case InterpLinear:
		f := (t - a.Time()) / (b.Time() - a.Time())
		return a.Value() + f*(b.Value()-a.Value())
	}

	p0, p3 := a.Control[1], b.Control[1]
	p1, p2 := correctSegment(p0, a.Control[2], b.Control[0], p3)
	u, ok := solveSegmentTime(t, p0.Time, p1.Time, p2.Time, p3.Time)
	if !ok {
		f := (t - p0.Time) / (p3.Time - p0.Time)
		return p0.Value + f*(p3.Value-p0.Value)
	}
	return cubic(u, p0.Value, p1.Value, p2.Value, p3.Value)
}

func evaluateSamples(samples []Vec2, t float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	if t <= samples[0].Time {
		return samples[0].Value
	}
	if t >= samples[n-1].Time {
		return samples[n-1].Value
	}
	i := sort.Search(n, func(i int) bool { return samples[i].Time > t })
	a, b := samples[i-1], samples[i]
	f := (t - a.Time) / (b.Time - a.Time)
	return a.Value + f*(b.Value-a.Value)
}
