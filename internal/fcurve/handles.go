package fcurve

import "math"

// autoFitTolerance is how close the key's left handle must be to one third
// of the previous key distance for continuous-acceleration smoothing to
// keep the point automatic.
const autoFitTolerance = 1e-3

// ReconcileHandles adjusts the handles of the freshly inserted interior
// point at idx so that inserting it does not change the shape of the
// segment it splits.
//
// The point's handles are fitted by subdividing the Bezier segment between
// its neighbours. If the point uses auto handles that would later be
// recomputed into a different shape, both of its handles are switched to
// Aligned. Nothing happens when either touching segment is not Bezier, or
// when the point and both facing neighbour handles are already automatic.
func ReconcileHandles(c *Curve, idx int) {
	if idx <= 0 || idx >= len(c.Points)-1 {
		return
	}
	prev, pt, next := &c.Points[idx-1], &c.Points[idx], &c.Points[idx+1]

	if prev.Interp != InterpBezier || pt.Interp != InterpBezier {
		return
	}

	// Vector handles and fully automatic regions stay as they are.
	ptAuto := pt.isAutoPair() || pt.isVectorPair()
	prevAuto := prev.isAutoPair() || prev.HandleRight == HandleVector
	nextAuto := next.isAutoPair() || next.HandleLeft == HandleVector
	if ptAuto && prevAuto && nextAuto {
		return
	}

	if !subdivideHandles(pt, prev, next) {
		return
	}

	if !pt.isAutoPair() {
		return
	}

	if (prevAuto || nextAuto) && c.Smoothing == SmoothContinuousAcceleration {
		// This smoothing always sizes handles at a third of the key distance.
		hx := pt.Control[1].Time - pt.Control[0].Time
		dx := pt.Control[1].Time - prev.Control[1].Time
		if math.Abs(hx-dx/3) < autoFitTolerance {
			return
		}
	}

	pt.HandleLeft = HandleAligned
	pt.HandleRight = HandleAligned
}

// subdivideHandles splits the Bezier segment prev→next at the time of pt
// using de Casteljau's algorithm. The facing neighbour handles are
// shortened and pt's handles are placed on the split, offset by the
// vertical distance between pt and the curve. It reports false, changing
// nothing, when pt does not lie strictly inside the segment.
func subdivideHandles(pt, prev, next *Point) bool {
	p0 := prev.Control[1]
	p1 := prev.Control[2]
	p2 := next.Control[0]
	p3 := next.Control[1]
	key := pt.Control[1]

	if key.Time <= p0.Time || key.Time >= p3.Time {
		return false
	}

	p1, p2 = correctSegment(p0, p1, p2, p3)

	t, ok := solveSegmentTime(key.Time, p0.Time, p1.Time, p2.Time, p3.Time)
	if !ok || t <= 0 || t >= 1 {
		return false
	}

	a0 := lerp(p0, p1, t)
	a1 := lerp(p1, p2, t)
	a2 := lerp(p2, p3, t)
	b0 := lerp(a0, a1, t)
	b1 := lerp(a1, a2, t)
	split := lerp(b0, b1, t)

	prev.Control[2] = a0
	next.Control[0] = a2

	diff := Vec2{Time: key.Time - split.Time, Value: key.Value - split.Value}
	pt.Control[0] = Vec2{Time: b0.Time + diff.Time, Value: b0.Value + diff.Value}
	pt.Control[2] = Vec2{Time: b1.Time + diff.Time, Value: b1.Value + diff.Value}
	return true
}

// correctSegment shortens the inner handles of a segment so that their
// combined time extent does not exceed the segment's duration.
func correctSegment(p0, p1, p2, p3 Vec2) (Vec2, Vec2) {
	h1 := Vec2{Time: p0.Time - p1.Time, Value: p0.Value - p1.Value}
	h2 := Vec2{Time: p3.Time - p2.Time, Value: p3.Value - p2.Value}

	length := p3.Time - p0.Time
	len1 := math.Abs(h1.Time)
	len2 := math.Abs(h2.Time)
	if len1+len2 == 0 {
		return p1, p2
	}
	if len1+len2 > length {
		fac := length / (len1 + len2)
		p1 = Vec2{Time: p0.Time - fac*h1.Time, Value: p0.Value - fac*h1.Value}
		p2 = Vec2{Time: p3.Time - fac*h2.Time, Value: p3.Value - fac*h2.Value}
	}
	return p1, p2
}

// solveSegmentTime finds the curve parameter at which the cubic through
// x0..x3 reaches x, by bisection.
func solveSegmentTime(x, x0, x1, x2, x3 float64) (float64, bool) {
	f := func(t float64) float64 {
		return cubic(t, x0, x1, x2, x3) - x
	}
	lo, hi := 0.0, 1.0
	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return lo, true
	}
	if fhi == 0 {
		return hi, true
	}
	if (flo < 0) == (fhi < 0) {
		return 0, false
	}
	for i := 0; i < 64; i++ {
		mid := (lo + hi) / 2
		fm := f(mid)
		if fm == 0 || hi-lo < 1e-12 {
			return mid, true
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}

func cubic(t, a, b, c, d float64) float64 {
	u := 1 - t
	return u*u*u*a + 3*u*u*t*b + 3*u*t*t*c + t*t*t*d
}

func lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{
		Time:  a.Time + (b.Time-a.Time)*t,
		Value: a.Value + (b.Value-a.Value)*t,
	}
}

// RecalcHandles recomputes every automatic and vector handle of the curve
// from the neighbouring keys, re-aligns Aligned handles and clamps handle
// times so that no handle crosses its key.
//
// Automatic handles extend one third of the distance to the neighbouring
// key. AutoClamped handles are flat at local extrema and never overshoot
// the neighbouring values. With constant extrapolation the automatic
// handles of the first and last key are flat.
func RecalcHandles(c *Curve) {
	n := len(c.Points)
	for i := range c.Points {
		var prev, next *Point
		if i > 0 {
			prev = &c.Points[i-1]
		}
		if i < n-1 {
			next = &c.Points[i+1]
		}
		calcPointHandles(c, &c.Points[i], prev, next)
	}
}

func calcPointHandles(c *Curve, p, prev, next *Point) {
	key := p.Control[1]

	// Missing neighbours are mirrored through the key.
	var a, b Vec2
	switch {
	case prev != nil:
		a = prev.Control[1]
	case next != nil:
		nk := next.Control[1]
		a = Vec2{Time: 2*key.Time - nk.Time, Value: 2*key.Value - nk.Value}
	default:
		a = Vec2{Time: key.Time - 1, Value: key.Value}
	}
	switch {
	case next != nil:
		b = next.Control[1]
	case prev != nil:
		pk := prev.Control[1]
		b = Vec2{Time: 2*key.Time - pk.Time, Value: 2*key.Value - pk.Value}
	default:
		b = Vec2{Time: key.Time + 1, Value: key.Value}
	}

	dxA := key.Time - a.Time
	if dxA <= 0 {
		dxA = 1
	}
	dxB := b.Time - key.Time
	if dxB <= 0 {
		dxB = 1
	}

	slope := (b.Value - a.Value) / (dxA + dxB)

	clamped := p.HandleLeft == HandleAutoClamped || p.HandleRight == HandleAutoClamped
	if clamped {
		extremum := (key.Value >= a.Value && key.Value >= b.Value) ||
			(key.Value <= a.Value && key.Value <= b.Value)
		if extremum {
			slope = 0
		} else {
			slope = clampSlope(slope, math.Abs(key.Value-a.Value)*3/dxA)
			slope = clampSlope(slope, math.Abs(b.Value-key.Value)*3/dxB)
		}
	}

	if (prev == nil || next == nil) && c.Extrapolation == ExtrapolateConstant {
		slope = 0
	}

	switch p.HandleLeft {
	case HandleAuto, HandleAutoClamped:
		p.Control[0] = Vec2{Time: key.Time - dxA/3, Value: key.Value - slope*dxA/3}
	case HandleVector:
		p.Control[0] = Vec2{Time: key.Time + (a.Time-key.Time)/3, Value: key.Value + (a.Value-key.Value)/3}
	}
	switch p.HandleRight {
	case HandleAuto, HandleAutoClamped:
		p.Control[2] = Vec2{Time: key.Time + dxB/3, Value: key.Value + slope*dxB/3}
	case HandleVector:
		p.Control[2] = Vec2{Time: key.Time + (b.Time-key.Time)/3, Value: key.Value + (b.Value-key.Value)/3}
	}

	if p.HandleLeft == HandleAligned && p.HandleRight != HandleAligned {
		alignHandle(&p.Control[0], key, p.Control[2])
	} else if p.HandleRight == HandleAligned {
		alignHandle(&p.Control[2], key, p.Control[0])
	}

	if p.Control[0].Time > key.Time {
		p.Control[0].Time = key.Time
	}
	if p.Control[2].Time < key.Time {
		p.Control[2].Time = key.Time
	}
}

func clampSlope(slope, limit float64) float64 {
	if slope > limit {
		return limit
	}
	if slope < -limit {
		return -limit
	}
	return slope
}

// alignHandle points dst directly away from other through key, keeping
// the length of dst.
func alignHandle(dst *Vec2, key, other Vec2) {
	dir := Vec2{Time: key.Time - other.Time, Value: key.Value - other.Value}
	dirLen := math.Hypot(dir.Time, dir.Value)
	if dirLen == 0 {
		return
	}
	length := math.Hypot(dst.Time-key.Time, dst.Value-key.Value)
	dst.Time = key.Time + dir.Time/dirLen*length
	dst.Value = key.Value + dir.Value/dirLen*length
}
