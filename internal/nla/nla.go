// Package nla converts times between the global scene time-space and the
// local time-space of an action placed on an NLA strip.
//
// Keys are always stored in the action's own time-space. When a strip is
// in tweak mode, a key requested at a global time has to be unmapped into
// strip-local time before it is written to a curve.
package nla

import (
	"fmt"
	"math"
)

// BlendMode is how a strip combines with the result of the tracks below it.
type BlendMode int

const (
	BlendReplace BlendMode = iota
	BlendCombine
	BlendAdd
	BlendSubtract
	BlendMultiply
)

var blendNames = map[BlendMode]string{
	BlendReplace:  "replace",
	BlendCombine:  "combine",
	BlendAdd:      "add",
	BlendSubtract: "subtract",
	BlendMultiply: "multiply",
}

func (b BlendMode) String() string {
	if s, ok := blendNames[b]; ok {
		return s
	}
	return fmt.Sprintf("BlendMode(%d)", int(b))
}

// ParseBlendMode converts a blend mode name. The empty string is Replace.
func ParseBlendMode(s string) (BlendMode, error) {
	if s == "" {
		return BlendReplace, nil
	}
	for k, v := range blendNames {
		if v == s {
			return k, nil
		}
	}
	return BlendReplace, fmt.Errorf("unknown blend mode %q", s)
}

func (b BlendMode) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *BlendMode) UnmarshalText(text []byte) error {
	v, err := ParseBlendMode(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// GroupsQuaternions reports whether keying one quaternion component under
// this blend mode has to key all four to keep the rotation consistent.
func (b BlendMode) GroupsQuaternions() bool {
	return b == BlendReplace || b == BlendCombine
}

// Strip places a range of an action on the global timeline.
type Strip struct {
	Name string `json:"name" yaml:"name"`

	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`

	ActionStart float64 `json:"action_start" yaml:"action_start"`
	ActionEnd   float64 `json:"action_end" yaml:"action_end"`

	// Scale is the playback scale. Zero means not authored; the scale is
	// then derived from the strip length, action length and repeat count.
	Scale  float64 `json:"scale" yaml:"scale"`
	Repeat float64 `json:"repeat" yaml:"repeat"`

	Blend    BlendMode `json:"blend" yaml:"blend"`
	Reversed bool      `json:"reversed,omitempty" yaml:"reversed,omitempty"`
}

// EffectiveScale returns the factor by which strip playback stretches the
// action. An authored scale wins. Otherwise the scale is
// (end-start) / ((action_end-action_start) * repeat), and 1 when that is
// not a finite positive number.
func (s *Strip) EffectiveScale() float64 {
	if s.Scale != 0 {
		return math.Abs(s.Scale)
	}

	repeat := s.Repeat
	if repeat == 0 {
		repeat = 1
	}
	actLen := (s.ActionEnd - s.ActionStart) * repeat
	stripLen := s.End - s.Start
	if actLen == 0 || stripLen == 0 {
		return 1
	}
	scale := math.Abs(stripLen / actLen)
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale == 0 {
		return 1
	}
	return scale
}

// ToLocal unmaps a global time into the strip's action time.
func (s *Strip) ToLocal(global float64) float64 {
	scale := s.EffectiveScale()
	if s.Reversed {
		return (s.End + (s.ActionStart*scale - global)) / scale
	}
	return s.ActionStart + (global-s.Start)/scale
}

// ToGlobal maps an action time onto the global timeline.
func (s *Strip) ToGlobal(local float64) float64 {
	scale := s.EffectiveScale()
	if s.Reversed {
		return s.End - scale*(local-s.ActionStart)
	}
	return s.Start + scale*(local-s.ActionStart)
}

// Track is one layer of strips.
type Track struct {
	Name   string  `json:"name" yaml:"name"`
	Strips []Strip `json:"strips" yaml:"strips"`
	Muted  bool    `json:"muted,omitempty" yaml:"muted,omitempty"`
}

// Stack is the NLA state of one animated owner.
type Stack struct {
	Tracks []Track `json:"tracks,omitempty" yaml:"tracks,omitempty"`

	// Tweak is the strip whose action is being edited, nil outside tweak mode.
	Tweak *Strip `json:"tweak,omitempty" yaml:"tweak,omitempty"`

	// Disabled turns NLA evaluation off for the owner.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	// ActionBlend is the blend mode of the active action outside tweak mode.
	ActionBlend BlendMode `json:"action_blend" yaml:"action_blend"`
}

// ActiveStrip returns the strip used for time remapping, or nil when
// keys are written in global time.
func (st *Stack) ActiveStrip() *Strip {
	if st == nil || st.Disabled || st.Tweak == nil {
		return nil
	}
	return st.Tweak
}

// RemapToLocal unmaps a global time through the active strip. Without an
// active strip the time is returned unchanged.
func (st *Stack) RemapToLocal(global float64) float64 {
	strip := st.ActiveStrip()
	if strip == nil {
		return global
	}
	return strip.ToLocal(global)
}

// RemapToGlobal is the inverse of RemapToLocal.
func (st *Stack) RemapToGlobal(local float64) float64 {
	strip := st.ActiveStrip()
	if strip == nil {
		return local
	}
	return strip.ToGlobal(local)
}
