package keying

import (
	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/nla"
)

// PropertyKind is the value type of a property.
type PropertyKind int

const (
	KindFloat PropertyKind = iota
	KindInt
	KindBool
	KindEnum
)

// Subtype refines how the elements of an array property relate.
type Subtype int

const (
	SubtypeNone Subtype = iota
	SubtypeQuaternion
)

// Property is a snapshot of a resolved property.
type Property struct {
	Path       string
	Values     []float64
	Kind       PropertyKind
	Subtype    Subtype
	Animatable bool
}

// Len returns the array length; scalars have length 1.
func (p *Property) Len() int {
	return len(p.Values)
}

// IsQuaternion reports whether the property is a 4-component rotation.
func (p *Property) IsQuaternion() bool {
	return p.Subtype == SubtypeQuaternion && len(p.Values) == 4
}

// CurveFlags returns the value constraints for curves driving p.
func (p *Property) CurveFlags() fcurve.ValueFlags {
	switch p.Kind {
	case KindInt:
		return fcurve.IntegerOnly
	case KindBool, KindEnum:
		return fcurve.IntegerOnly | fcurve.DiscreteOnly
	default:
		return 0
	}
}

// PropertySystem resolves property paths on an owner.
type PropertySystem interface {
	// Resolve returns the property at path. Failures are *TargetError.
	Resolve(owner, path string) (*Property, error)
}

// CurveSource selects which curve collection a key is written to.
type CurveSource int

const (
	SourceAction CurveSource = iota
	SourceDriver
)

// CurveKey identifies one curve.
type CurveKey struct {
	Owner  string
	Path   string
	Index  int
	Source CurveSource
}

// CurveContainer owns the curves of all owners.
type CurveContainer interface {
	// FindCurve returns the curve for key, or nil.
	FindCurve(key CurveKey) *fcurve.Curve

	// EnsureCurve returns the curve for key, creating it and its owning
	// animation data and action when missing. New curves get flags.
	EnsureCurve(key CurveKey, flags fcurve.ValueFlags) (*fcurve.Curve, error)

	// EnsureOwner creates the owner's animation data and action.
	EnsureOwner(owner string) error
}

// Evaluator samples a curve. It is only used by the Needed policy.
type Evaluator interface {
	Evaluate(c *fcurve.Curve, t float64) float64
}

// NLAContext exposes the NLA state of owners.
type NLAContext interface {
	// ActiveStrip returns the strip in tweak mode for owner, or nil.
	ActiveStrip(owner string) *nla.Strip

	// NLAEnabled reports whether NLA evaluation is on for owner.
	NLAEnabled(owner string) bool
}

// VisualKeyer supplies visual values for the Visual flag.
type VisualKeyer interface {
	// VisualValues returns the evaluated values of path, false when the
	// property has no visual counterpart.
	VisualValues(owner, path string) ([]float64, bool)
}

// Host is everything the dispatcher needs from the application.
type Host interface {
	PropertySystem
	CurveContainer
	Evaluator
	NLAContext
}

// RemapTime unmaps a global time into the local time of owner's active
// strip. Without an active strip, or with NLA evaluation off, the time is
// returned unchanged.
func RemapTime(ctx NLAContext, owner string, t float64) float64 {
	if !ctx.NLAEnabled(owner) {
		return t
	}
	strip := ctx.ActiveStrip(owner)
	if strip == nil {
		return t
	}
	return strip.ToLocal(t)
}

// MapTime is the inverse of RemapTime: it maps a local action time of
// owner's active strip back to global time.
func MapTime(ctx NLAContext, owner string, t float64) float64 {
	if !ctx.NLAEnabled(owner) {
		return t
	}
	strip := ctx.ActiveStrip(owner)
	if strip == nil {
		return t
	}
	return strip.ToGlobal(t)
}
