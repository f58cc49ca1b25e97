package fcurve

import "fmt"

// Text encodings let the enum types appear by name in scene files,
// preferences and JSON output.

func (h HandleType) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *HandleType) UnmarshalText(b []byte) error {
	v, err := ParseHandleType(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

func (i Interpolation) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Interpolation) UnmarshalText(b []byte) error {
	v, err := ParseInterpolation(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (k KeyType) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *KeyType) UnmarshalText(b []byte) error {
	v, err := ParseKeyType(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

var extrapolationNames = map[Extrapolation]string{
	ExtrapolateConstant: "constant",
	ExtrapolateLinear:   "linear",
}

func (e Extrapolation) String() string {
	if s, ok := extrapolationNames[e]; ok {
		return s
	}
	return fmt.Sprintf("Extrapolation(%d)", int(e))
}

// ParseExtrapolation converts an extrapolation name to its value. The empty
// string is constant extrapolation.
func ParseExtrapolation(s string) (Extrapolation, error) {
	if s == "" {
		return ExtrapolateConstant, nil
	}
	for k, v := range extrapolationNames {
		if v == s {
			return k, nil
		}
	}
	return ExtrapolateConstant, fmt.Errorf("unknown extrapolation %q", s)
}

var cycleModeNames = map[CycleMode]string{
	CycleOff:          "off",
	CycleRepeat:       "repeat",
	CycleRepeatOffset: "repeat_offset",
	CycleMirror:       "mirror",
}

func (m CycleMode) String() string {
	if s, ok := cycleModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("CycleMode(%d)", int(m))
}

// ParseCycleMode converts a cycle mode name to its value. The empty string
// is CycleOff.
func ParseCycleMode(s string) (CycleMode, error) {
	if s == "" {
		return CycleOff, nil
	}
	for k, v := range cycleModeNames {
		if v == s {
			return k, nil
		}
	}
	return CycleOff, fmt.Errorf("unknown cycle mode %q", s)
}

func (m CycleMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *CycleMode) UnmarshalText(b []byte) error {
	v, err := ParseCycleMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

var cycleKindNames = map[CycleKind]string{
	CycleNone:    "none",
	CyclePerfect: "perfect",
	CycleOffset:  "offset",
}

func (k CycleKind) String() string {
	if s, ok := cycleKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CycleKind(%d)", int(k))
}
