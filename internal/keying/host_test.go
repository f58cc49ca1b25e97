package keying

import (
	"fmt"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/nla"
)

// fakeHost is a minimal Host keeping everything in maps.
type fakeHost struct {
	props  map[string]*Property
	curves map[CurveKey]*fcurve.Curve
	owners map[string]bool
	strip  *nla.Strip
	visual map[string][]float64
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		props:  make(map[string]*Property),
		curves: make(map[CurveKey]*fcurve.Curve),
		owners: make(map[string]bool),
		visual: make(map[string][]float64),
	}
}

func (h *fakeHost) addProp(p *Property) *fakeHost {
	h.props[p.Path] = p
	return h
}

func (h *fakeHost) Resolve(owner, path string) (*Property, error) {
	if owner != "Cube" {
		return nil, NewTargetError(ErrCodeOwnerNotFound, owner, path, -1)
	}
	p, ok := h.props[path]
	if !ok {
		return nil, NewTargetError(ErrCodePathNotFound, owner, path, -1)
	}
	return p, nil
}

func (h *fakeHost) FindCurve(key CurveKey) *fcurve.Curve {
	return h.curves[key]
}

func (h *fakeHost) EnsureCurve(key CurveKey, flags fcurve.ValueFlags) (*fcurve.Curve, error) {
	if c, ok := h.curves[key]; ok {
		return c, nil
	}
	if key.Path == "broken" {
		return nil, fmt.Errorf("no curve for %s", key.Path)
	}
	h.owners[key.Owner] = true
	c := fcurve.NewCurve(key.Path, key.Index)
	c.Flags = flags
	h.curves[key] = c
	return c, nil
}

func (h *fakeHost) EnsureOwner(owner string) error {
	h.owners[owner] = true
	return nil
}

// Evaluate interpolates linearly between points and holds the ends.
func (h *fakeHost) Evaluate(c *fcurve.Curve, t float64) float64 {
	pts := c.Points
	if len(pts) == 0 {
		return 0
	}
	if t <= pts[0].Time() {
		return pts[0].Value()
	}
	for i := 1; i < len(pts); i++ {
		if t <= pts[i].Time() {
			a, b := pts[i-1], pts[i]
			f := (t - a.Time()) / (b.Time() - a.Time())
			return a.Value() + f*(b.Value()-a.Value())
		}
	}
	return pts[len(pts)-1].Value()
}

func (h *fakeHost) ActiveStrip(owner string) *nla.Strip {
	return h.strip
}

func (h *fakeHost) NLAEnabled(owner string) bool {
	return true
}

func (h *fakeHost) VisualValues(owner, path string) ([]float64, bool) {
	v, ok := h.visual[path]
	return v, ok
}
