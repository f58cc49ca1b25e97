package keying

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/keyframe/internal/fcurve"
)

// Flags is the keying policy of one InsertKeys call.
type Flags struct {
	// Needed only writes keys that change the curve's current value.
	Needed bool
	// Visual keys the visual (constraint-evaluated) value instead of the
	// raw property value.
	Visual bool
	// Fast skips handle recalculation after each insertion.
	Fast bool
	// Replace only overwrites existing keys.
	Replace bool
	// CycleAware keeps perfectly cyclic curves consistent.
	CycleAware bool
	// Available only keys channels that already have a curve.
	Available bool
	// NoUserPref ignores the configured handle and interpolation defaults.
	NoUserPref bool
	// OverwriteFull replaces whole keys instead of only their values.
	OverwriteFull bool
	// Driver writes into driver curves instead of action curves.
	Driver bool
}

var flagFields = map[string]func(*Flags) *bool{
	"NEEDED":         func(f *Flags) *bool { return &f.Needed },
	"MATRIX":         func(f *Flags) *bool { return &f.Visual },
	"FAST":           func(f *Flags) *bool { return &f.Fast },
	"REPLACE":        func(f *Flags) *bool { return &f.Replace },
	"CYCLE_AWARE":    func(f *Flags) *bool { return &f.CycleAware },
	"AVAILABLE":      func(f *Flags) *bool { return &f.Available },
	"NO_USER_PREF":   func(f *Flags) *bool { return &f.NoUserPref },
	"OVERWRITE_FULL": func(f *Flags) *bool { return &f.OverwriteFull },
	"DRIVER":         func(f *Flags) *bool { return &f.Driver },
}

// ParseFlags builds Flags from flag names such as "NEEDED" or
// "cycle_aware". "VISUAL" is accepted as an alias of "MATRIX".
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, raw := range names {
		name := strings.ToUpper(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if name == "VISUAL" {
			name = "MATRIX"
		}
		field, ok := flagFields[name]
		if !ok {
			return Flags{}, fmt.Errorf("unknown keying flag %q", raw)
		}
		*field(&f) = true
	}
	return f, nil
}

// Names returns the names of the set flags in sorted order.
func (f Flags) Names() []string {
	var names []string
	for name, field := range flagFields {
		if *field(&f) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (f Flags) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}

// mayCreateCurves reports whether missing curves may be created.
func (f Flags) mayCreateCurves() bool {
	return !f.Replace && !f.Available
}

func (f Flags) insertFlags() fcurve.InsertFlags {
	return fcurve.InsertFlags{
		Replace:       f.Replace,
		CycleAware:    f.CycleAware,
		OverwriteFull: f.OverwriteFull,
		Fast:          f.Fast,
		NoUserPref:    f.NoUserPref,
	}
}
