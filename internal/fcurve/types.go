package fcurve

import "fmt"

// Vec2 is a (time, value) pair.
type Vec2 struct {
	Time  float64 `json:"time" yaml:"time"`
	Value float64 `json:"value" yaml:"value"`
}

// HandleType controls how a handle is positioned.
type HandleType int

const (
	HandleFree HandleType = iota
	HandleAuto
	HandleVector
	HandleAligned
	HandleAutoClamped
)

var handleTypeNames = map[HandleType]string{
	HandleFree:        "free",
	HandleAuto:        "auto",
	HandleVector:      "vector",
	HandleAligned:     "aligned",
	HandleAutoClamped: "auto_clamped",
}

func (h HandleType) String() string {
	if s, ok := handleTypeNames[h]; ok {
		return s
	}
	return fmt.Sprintf("HandleType(%d)", int(h))
}

// IsAuto reports whether the handle is recomputed from its neighbours.
func (h HandleType) IsAuto() bool {
	return h == HandleAuto || h == HandleAutoClamped
}

// ParseHandleType converts a handle type name to its value.
func ParseHandleType(s string) (HandleType, error) {
	for k, v := range handleTypeNames {
		if v == s {
			return k, nil
		}
	}
	return HandleFree, fmt.Errorf("unknown handle type %q", s)
}

// Interpolation is the interpolation mode of the segment leaving a point.
type Interpolation int

const (
	InterpConstant Interpolation = iota
	InterpLinear
	InterpBezier
)

var interpolationNames = map[Interpolation]string{
	InterpConstant: "constant",
	InterpLinear:   "linear",
	InterpBezier:   "bezier",
}

func (i Interpolation) String() string {
	if s, ok := interpolationNames[i]; ok {
		return s
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// ParseInterpolation converts an interpolation name to its value.
func ParseInterpolation(s string) (Interpolation, error) {
	for k, v := range interpolationNames {
		if v == s {
			return k, nil
		}
	}
	return InterpConstant, fmt.Errorf("unknown interpolation %q", s)
}

// KeyType is a descriptive tag on a point. It never affects curve shape.
type KeyType int

const (
	KeyKeyframe KeyType = iota
	KeyBreakdown
	KeyMovingHold
	KeyExtreme
	KeyJitter
)

var keyTypeNames = map[KeyType]string{
	KeyKeyframe:   "keyframe",
	KeyBreakdown:  "breakdown",
	KeyMovingHold: "moving_hold",
	KeyExtreme:    "extreme",
	KeyJitter:     "jitter",
}

func (k KeyType) String() string {
	if s, ok := keyTypeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("KeyType(%d)", int(k))
}

// ParseKeyType converts a key type name to its value. The empty string is
// a plain keyframe.
func ParseKeyType(s string) (KeyType, error) {
	if s == "" {
		return KeyKeyframe, nil
	}
	for k, v := range keyTypeNames {
		if v == s {
			return k, nil
		}
	}
	return KeyKeyframe, fmt.Errorf("unknown keyframe type %q", s)
}

// Selection holds per-control selection bits.
type Selection uint8

const (
	SelectLeft Selection = 1 << iota
	SelectCenter
	SelectRight

	SelectAll = SelectLeft | SelectCenter | SelectRight
)

// Easing parameters carried opaquely for the easing interpolation family.
const (
	DefaultBack      = 1.70158
	DefaultAmplitude = 0.8
	DefaultPeriod    = 4.1
)

// Point is one keyframe: a center control point flanked by two handles.
type Point struct {
	// Control holds the left handle, the key itself and the right handle.
	Control [3]Vec2 `json:"control"`

	HandleLeft  HandleType    `json:"handle_left"`
	HandleRight HandleType    `json:"handle_right"`
	Interp      Interpolation `json:"interpolation"`
	KeyType     KeyType       `json:"key_type"`
	Select      Selection     `json:"select"`

	Back      float64 `json:"back"`
	Amplitude float64 `json:"amplitude"`
	Period    float64 `json:"period"`
}

// Time returns the time of the key.
func (p *Point) Time() float64 { return p.Control[1].Time }

// Value returns the value of the key.
func (p *Point) Value() float64 { return p.Control[1].Value }

// isAutoPair reports whether both handles are automatic.
func (p *Point) isAutoPair() bool {
	return p.HandleLeft.IsAuto() && p.HandleRight.IsAuto()
}

// isVectorPair reports whether both handles are vector handles.
func (p *Point) isVectorPair() bool {
	return p.HandleLeft == HandleVector && p.HandleRight == HandleVector
}

// ValueFlags constrain the values a curve may take.
type ValueFlags uint8

const (
	IntegerOnly ValueFlags = 1 << iota
	DiscreteOnly
)

// Extrapolation is how a curve extends past its first and last keys.
type Extrapolation int

const (
	ExtrapolateConstant Extrapolation = iota
	ExtrapolateLinear
)

// Smoothing selects the auto-handle smoothing algorithm.
type Smoothing int

const (
	SmoothNone Smoothing = iota
	SmoothContinuousAcceleration
)

// Curve is an ordered sequence of points driving one scalar channel.
type Curve struct {
	Path  string `json:"path"`
	Index int    `json:"index"`

	Points []Point `json:"points"`

	// Samples holds baked values. A curve with samples refuses new points.
	Samples []Vec2 `json:"samples,omitempty"`

	Flags         ValueFlags    `json:"flags"`
	Extrapolation Extrapolation `json:"extrapolation"`
	Smoothing     Smoothing     `json:"smoothing"`
	Cycle         *Cycle        `json:"cycle,omitempty"`

	// Active is the index of the last written point, -1 when none.
	Active int `json:"active"`
}

// NewCurve creates an empty curve for path[index].
func NewCurve(path string, index int) *Curve {
	return &Curve{Path: path, Index: index, Active: -1}
}

// Len returns the number of points.
func (c *Curve) Len() int { return len(c.Points) }

// Times returns the key times in order.
func (c *Curve) Times() []float64 {
	out := make([]float64, len(c.Points))
	for i := range c.Points {
		out[i] = c.Points[i].Time()
	}
	return out
}

// Values returns the key values in order.
func (c *Curve) Values() []float64 {
	out := make([]float64, len(c.Points))
	for i := range c.Points {
		out[i] = c.Points[i].Value()
	}
	return out
}

// Clone returns a deep copy of the curve.
func (c *Curve) Clone() *Curve {
	cp := *c
	cp.Points = append([]Point(nil), c.Points...)
	cp.Samples = append([]Vec2(nil), c.Samples...)
	if c.Cycle != nil {
		cy := *c.Cycle
		cp.Cycle = &cy
	}
	return &cp
}
