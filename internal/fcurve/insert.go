package fcurve

// Defaults are the user preferences applied to newly created points.
type Defaults struct {
	Handle        HandleType    `json:"handle" yaml:"handle"`
	Interpolation Interpolation `json:"interpolation" yaml:"interpolation"`
}

// BuiltinDefaults are used when the caller asks to ignore user preferences.
var BuiltinDefaults = Defaults{
	Handle:        HandleAuto,
	Interpolation: InterpBezier,
}

// InsertFlags are the subset of keying flags that affect a single curve.
type InsertFlags struct {
	// Replace only overwrites existing keys and never adds new ones.
	Replace bool
	// CycleAware keeps the end keys of a perfectly cyclic curve in sync and
	// folds out-of-range times into the cycle.
	CycleAware bool
	// OverwriteFull replaces the whole point, handles included, on a match.
	OverwriteFull bool
	// Fast skips handle recalculation. Callers must run RecalcHandles later.
	Fast bool
	// NoUserPref uses BuiltinDefaults instead of the supplied defaults.
	NoUserPref bool
}

// Rejected is the index returned when an insertion was structurally refused.
const Rejected = -1

// NewPoint builds the point that InsertValue would insert at (t, v):
// flat unit-length handles, all controls selected, handle type and
// interpolation from the defaults, downgraded by the curve's value flags.
func NewPoint(c *Curve, t, v float64, keyType KeyType, defaults Defaults) Point {
	p := Point{
		Control: [3]Vec2{
			{Time: t - 1, Value: v},
			{Time: t, Value: v},
			{Time: t + 1, Value: v},
		},
		HandleLeft:  defaults.Handle,
		HandleRight: defaults.Handle,
		Interp:      defaults.Interpolation,
		KeyType:     keyType,
		Select:      SelectAll,
		Back:        DefaultBack,
		Amplitude:   DefaultAmplitude,
		Period:      DefaultPeriod,
	}

	if c.Flags&DiscreteOnly != 0 {
		p.Interp = InterpConstant
	} else if c.Flags&IntegerOnly != 0 && p.Interp == InterpBezier {
		p.Interp = InterpLinear
	}
	return p
}

// InsertPoint writes p into the curve, replacing the point at the same time
// if there is one. Unless flags.OverwriteFull is set a replace keeps the
// existing handles, shifted to p's value, and takes p's selection and key
// type.
//
// It returns the index written and whether a new point was added. When the
// curve refuses the point (Replace set and no match, or the curve holds
// baked samples) it returns (Rejected, false) and leaves the curve as it was.
func InsertPoint(c *Curve, p Point, flags InsertFlags) (int, bool) {
	AssertSorted(c)

	if len(c.Points) == 0 {
		if flags.Replace || len(c.Samples) > 0 {
			return Rejected, false
		}
		c.Points = append(c.Points, p)
		return 0, true
	}

	i, match := BinarySearch(c.Points, p.Time())
	if match {
		if flags.OverwriteFull {
			c.Points[i] = p
		} else {
			shiftValue(&c.Points[i], &p)
			c.Points[i].KeyType = p.KeyType
		}

		if flags.CycleAware && (i == 0 || i == len(c.Points)-1) && IsPerfectCycle(c) {
			other := 0
			if i == 0 {
				other = len(c.Points) - 1
			}
			shiftValue(&c.Points[other], &p)
		}
		return i, false
	}

	if flags.Replace || len(c.Samples) > 0 {
		return Rejected, false
	}

	c.Points = append(c.Points, Point{})
	copy(c.Points[i+1:], c.Points[i:])
	c.Points[i] = p

	AssertSorted(c)
	return i, true
}

// InsertValue creates a key at (t, v) or updates the key already at t.
//
// New interior points take their interpolation from a neighbour and have
// their handles reconciled against the existing shape. Unless flags.Fast is
// set the auto handles of the whole curve are recalculated afterwards.
// The returned bool is true when a point was added and false when an
// existing point was replaced; the index is Rejected when nothing was written.
func InsertValue(c *Curve, t, v float64, keyType KeyType, defaults Defaults, flags InsertFlags) (int, bool) {
	if flags.NoUserPref {
		defaults = BuiltinDefaults
	}
	if flags.CycleAware {
		t, v = remapCyclicLocation(c, t, v)
	}

	p := NewPoint(c, t, v, keyType, defaults)
	i, inserted := InsertPoint(c, p, flags)
	if i == Rejected {
		return Rejected, false
	}
	c.Active = i

	n := len(c.Points)
	if inserted && n > 2 {
		pt := &c.Points[i]
		if i > 0 {
			pt.Interp = c.Points[i-1].Interp
		} else if i < n-1 {
			pt.Interp = c.Points[i+1].Interp
		}

		if i > 0 && i < n-1 && !flags.OverwriteFull {
			ReconcileHandles(c, i)
		}
	}

	if !flags.Fast {
		RecalcHandles(c)
	}
	return i, inserted
}
