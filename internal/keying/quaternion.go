package keying

import "github.com/roach88/keyframe/internal/fcurve"

// groupsQuaternion reports whether prop must be keyed as a whole group.
// Only action curves of quaternion rotations under a tweaked strip that
// blends in Replace or Combine mode are grouped.
func (d *Dispatcher) groupsQuaternion(req *request, prop *Property) bool {
	if req.source != SourceAction || !prop.IsQuaternion() {
		return false
	}
	if !d.host.NLAEnabled(req.owner) {
		return false
	}
	strip := d.host.ActiveStrip(req.owner)
	return strip != nil && strip.Blend.GroupsQuaternions()
}

// insertQuaternionGroup decides once for all four components and then
// keys all of them or none.
//
// Each policy flag in effect must be satisfied by at least one component:
// Available by an existing curve, Replace by an existing key at the
// target time, Needed by a component whose value would change. With none
// of these flags the group is always keyed.
func (d *Dispatcher) insertQuaternionGroup(req *request, prop *Property, values []float64) {
	curves := make([]*fcurve.Curve, len(values))
	for i := range values {
		curves[i] = d.host.FindCurve(CurveKey{Owner: req.owner, Path: prop.Path, Index: i, Source: req.source})
	}

	verdict := true
	if req.flags.Available {
		verdict = verdict && anyComponent(curves, func(i int, c *fcurve.Curve) bool {
			return c != nil
		})
	}
	if req.flags.Replace {
		verdict = verdict && anyComponent(curves, func(i int, c *fcurve.Curve) bool {
			if c == nil {
				return false
			}
			_, match := fcurve.BinarySearch(c.Points, req.time)
			return match
		})
	}
	if req.flags.Needed {
		verdict = verdict && anyComponent(curves, func(i int, c *fcurve.Curve) bool {
			return d.keyNeeded(c, req.time, values[i])
		})
	}

	if !verdict {
		for i := range values {
			d.record(req, prop.Path, i, QuaternionGroupSuppressed, "")
		}
		return
	}

	flags := req.flags
	flags.Available = false
	flags.Replace = false
	flags.Needed = false
	for i := range values {
		d.insertElement(req, prop, i, values[i], flags)
	}
}

func anyComponent(curves []*fcurve.Curve, pred func(int, *fcurve.Curve) bool) bool {
	for i, c := range curves {
		if pred(i, c) {
			return true
		}
	}
	return false
}
