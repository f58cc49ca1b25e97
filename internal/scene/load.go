package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/nla"
)

// File is the on-disk form of a document. YAML and CUE scene files share
// it; CUE files are exported to JSON before decoding.
type File struct {
	Preferences *PreferencesFile `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	Objects     []ObjectFile     `json:"objects" yaml:"objects"`
}

// PreferencesFile holds the keying preferences of a scene. Omitted fields
// keep the built-in defaults.
type PreferencesFile struct {
	Handle        string `json:"handle,omitempty" yaml:"handle,omitempty"`
	Interpolation string `json:"interpolation,omitempty" yaml:"interpolation,omitempty"`
}

// ObjectFile describes one object.
type ObjectFile struct {
	Name       string               `json:"name" yaml:"name"`
	Properties []PropertyFile       `json:"properties" yaml:"properties"`
	Visual     map[string][]float64 `json:"visual,omitempty" yaml:"visual,omitempty"`
	NLA        *nla.Stack           `json:"nla,omitempty" yaml:"nla,omitempty"`
	Curves     []CurveFile          `json:"curves,omitempty" yaml:"curves,omitempty"`
}

// PropertyFile describes one property. Kind is float, int, bool or enum;
// subtype is empty or quaternion. Properties are animatable unless stated.
type PropertyFile struct {
	Path       string    `json:"path" yaml:"path"`
	Values     []float64 `json:"values" yaml:"values"`
	Kind       string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Subtype    string    `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Animatable *bool     `json:"animatable,omitempty" yaml:"animatable,omitempty"`
}

// CurveFile describes a pre-existing curve.
type CurveFile struct {
	Path          string        `json:"path" yaml:"path"`
	Index         int           `json:"index" yaml:"index"`
	Driver        bool          `json:"driver,omitempty" yaml:"driver,omitempty"`
	Extrapolation string        `json:"extrapolation,omitempty" yaml:"extrapolation,omitempty"`
	Smoothing     string        `json:"smoothing,omitempty" yaml:"smoothing,omitempty"`
	Cycle         *fcurve.Cycle `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	Samples       []fcurve.Vec2 `json:"samples,omitempty" yaml:"samples,omitempty"`
	Keys          []KeyFile     `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// KeyFile describes one authored key. Empty handle and interpolation fall
// back to the document preferences.
type KeyFile struct {
	Time          float64 `json:"time" yaml:"time"`
	Value         float64 `json:"value" yaml:"value"`
	Interpolation string  `json:"interpolation,omitempty" yaml:"interpolation,omitempty"`
	Handle        string  `json:"handle,omitempty" yaml:"handle,omitempty"`
	KeyType       string  `json:"key_type,omitempty" yaml:"key_type,omitempty"`
}

// Load reads a scene file, choosing the decoder by extension.
func Load(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported scene file %s: want .yaml, .yml or .cue", path)
	}
}

// LoadYAML reads a YAML scene file.
func LoadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return DecodeYAML(bytes.NewReader(data))
}

// DecodeYAML parses a YAML scene. Unknown fields are rejected.
func DecodeYAML(r io.Reader) (*Document, error) {
	var f File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return f.Build()
}

// LoadCUE reads a CUE scene file. The file's top level is the scene.
func LoadCUE(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return CompileCUE(data, path)
}

// CompileCUE evaluates CUE source and decodes the result as a scene.
// The value must be concrete.
func CompileCUE(src []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("scene is not concrete: %w", err)
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting CUE: %w", err)
	}

	var f File
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	return f.Build()
}

// Build converts the file form into a document.
func (f *File) Build() (*Document, error) {
	doc := New()
	if p := f.Preferences; p != nil {
		var err error
		if p.Handle != "" {
			if doc.Preferences.Handle, err = fcurve.ParseHandleType(p.Handle); err != nil {
				return nil, fmt.Errorf("preferences: %w", err)
			}
		}
		if p.Interpolation != "" {
			if doc.Preferences.Interpolation, err = fcurve.ParseInterpolation(p.Interpolation); err != nil {
				return nil, fmt.Errorf("preferences: %w", err)
			}
		}
	}

	for i, of := range f.Objects {
		if of.Name == "" {
			return nil, fmt.Errorf("objects[%d]: name is required", i)
		}
		if doc.Object(of.Name) != nil {
			return nil, fmt.Errorf("objects[%d]: duplicate object %q", i, of.Name)
		}
		obj, err := of.build(doc.Preferences)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", of.Name, err)
		}
		doc.Add(obj)
	}
	return doc, nil
}

func (of *ObjectFile) build(prefs fcurve.Defaults) (*Object, error) {
	obj := NewObject(of.Name)

	for i, pf := range of.Properties {
		p, err := pf.build()
		if err != nil {
			return nil, fmt.Errorf("properties[%d]: %w", i, err)
		}
		obj.AddProperty(p)
	}

	for path, values := range of.Visual {
		path = norm.NFC.String(path)
		if _, ok := obj.Properties[path]; !ok {
			return nil, fmt.Errorf("visual values for unknown property %q", path)
		}
		obj.Visual[path] = values
	}

	if of.NLA != nil {
		obj.Anim = &AnimData{NLA: *of.NLA}
	}

	for i, cf := range of.Curves {
		prop, ok := obj.Properties[norm.NFC.String(cf.Path)]
		if !ok {
			return nil, fmt.Errorf("curves[%d]: unknown property %q", i, cf.Path)
		}
		if cf.Index < 0 || cf.Index >= prop.Len() {
			return nil, fmt.Errorf("curves[%d]: index %d out of range for %s", i, cf.Index, cf.Path)
		}
		c, err := cf.build(prop, prefs)
		if err != nil {
			return nil, fmt.Errorf("curves[%d]: %w", i, err)
		}

		anim := obj.ensureAnim()
		if cf.Driver {
			anim.Drivers = append(anim.Drivers, c)
		} else {
			anim.Action.Curves = append(anim.Action.Curves, c)
		}
	}
	return obj, nil
}

func (pf *PropertyFile) build() (*keying.Property, error) {
	if pf.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if len(pf.Values) == 0 {
		return nil, fmt.Errorf("%s: values are required", pf.Path)
	}
	kind, err := ParseKind(pf.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pf.Path, err)
	}
	subtype, err := ParseSubtype(pf.Subtype)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pf.Path, err)
	}

	p := &keying.Property{
		Path:       pf.Path,
		Values:     append([]float64(nil), pf.Values...),
		Kind:       kind,
		Subtype:    subtype,
		Animatable: pf.Animatable == nil || *pf.Animatable,
	}
	if subtype == keying.SubtypeQuaternion && len(p.Values) != 4 {
		return nil, fmt.Errorf("%s: quaternion needs 4 values, got %d", pf.Path, len(p.Values))
	}
	return p, nil
}

func (cf *CurveFile) build(prop *keying.Property, prefs fcurve.Defaults) (*fcurve.Curve, error) {
	c := fcurve.NewCurve(prop.Path, cf.Index)
	c.Flags = prop.CurveFlags()
	c.Cycle = cf.Cycle
	c.Samples = cf.Samples

	var err error
	if c.Extrapolation, err = fcurve.ParseExtrapolation(cf.Extrapolation); err != nil {
		return nil, err
	}
	switch cf.Smoothing {
	case "", "none":
	case "continuous_acceleration":
		c.Smoothing = fcurve.SmoothContinuousAcceleration
	default:
		return nil, fmt.Errorf("unknown smoothing %q", cf.Smoothing)
	}

	if len(cf.Samples) > 0 && len(cf.Keys) > 0 {
		return nil, fmt.Errorf("%s[%d]: a baked curve cannot have keys", cf.Path, cf.Index)
	}

	for _, kf := range cf.Keys {
		defaults := prefs
		if kf.Handle != "" {
			if defaults.Handle, err = fcurve.ParseHandleType(kf.Handle); err != nil {
				return nil, err
			}
		}
		if kf.Interpolation != "" {
			if defaults.Interpolation, err = fcurve.ParseInterpolation(kf.Interpolation); err != nil {
				return nil, err
			}
		}
		keyType, err := fcurve.ParseKeyType(kf.KeyType)
		if err != nil {
			return nil, err
		}

		p := fcurve.NewPoint(c, kf.Time, kf.Value, keyType, defaults)
		if _, inserted := fcurve.InsertPoint(c, p, fcurve.InsertFlags{}); !inserted {
			return nil, fmt.Errorf("%s[%d]: duplicate key at %g", cf.Path, cf.Index, kf.Time)
		}
	}
	fcurve.RecalcHandles(c)
	return c, nil
}

// ParseKind converts a property kind name. The empty string is float.
func ParseKind(s string) (keying.PropertyKind, error) {
	switch s {
	case "", "float":
		return keying.KindFloat, nil
	case "int":
		return keying.KindInt, nil
	case "bool":
		return keying.KindBool, nil
	case "enum":
		return keying.KindEnum, nil
	}
	return keying.KindFloat, fmt.Errorf("unknown property kind %q", s)
}

// ParseSubtype converts a property subtype name. The empty string is none.
func ParseSubtype(s string) (keying.Subtype, error) {
	switch s {
	case "", "none":
		return keying.SubtypeNone, nil
	case "quaternion":
		return keying.SubtypeQuaternion, nil
	}
	return keying.SubtypeNone, fmt.Errorf("unknown property subtype %q", s)
}
