package scene

import (
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/nla"
)

// Action is a named collection of curves.
type Action struct {
	Name   string
	Curves []*fcurve.Curve
}

// AnimData is the animation state of one object.
type AnimData struct {
	Action  *Action
	Drivers []*fcurve.Curve
	NLA     nla.Stack
}

// Object is an animatable entity.
type Object struct {
	Name       string
	Properties map[string]*keying.Property
	Visual     map[string][]float64
	Anim       *AnimData
}

// NewObject creates an object without properties.
func NewObject(name string) *Object {
	return &Object{
		Name:       norm.NFC.String(name),
		Properties: make(map[string]*keying.Property),
		Visual:     make(map[string][]float64),
	}
}

// AddProperty registers p, normalizing its path.
func (o *Object) AddProperty(p *keying.Property) {
	p.Path = norm.NFC.String(p.Path)
	o.Properties[p.Path] = p
}

// PropertyPaths returns the property paths in sorted order.
func (o *Object) PropertyPaths() []string {
	paths := make([]string, 0, len(o.Properties))
	for p := range o.Properties {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Curves returns the action curves followed by the driver curves.
func (o *Object) Curves() []*fcurve.Curve {
	if o.Anim == nil {
		return nil
	}
	var out []*fcurve.Curve
	if o.Anim.Action != nil {
		out = append(out, o.Anim.Action.Curves...)
	}
	return append(out, o.Anim.Drivers...)
}

// ensureAnim creates the animation data and action when missing.
func (o *Object) ensureAnim() *AnimData {
	if o.Anim == nil {
		o.Anim = &AnimData{}
	}
	if o.Anim.Action == nil {
		o.Anim.Action = &Action{Name: o.Name + "Action"}
	}
	return o.Anim
}

// Document is a set of objects plus the keying preferences of the file
// they were loaded from.
type Document struct {
	mu sync.Mutex

	Preferences fcurve.Defaults
	objects     map[string]*Object
}

// New creates an empty document with built-in preferences.
func New() *Document {
	return &Document{
		Preferences: fcurve.BuiltinDefaults,
		objects:     make(map[string]*Object),
	}
}

// Add inserts or replaces an object.
func (d *Document) Add(o *Object) {
	d.objects[o.Name] = o
}

// Object returns the named object, or nil.
func (d *Document) Object(name string) *Object {
	return d.objects[norm.NFC.String(name)]
}

// ObjectNames returns all object names in sorted order.
func (d *Document) ObjectNames() []string {
	names := make([]string, 0, len(d.objects))
	for n := range d.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Edit runs fn while holding the document's writer lock.
func (d *Document) Edit(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn()
}

// Set overwrites the current values of a property.
func (d *Document) Set(owner, path string, values []float64) error {
	prop, err := d.lookup(owner, path)
	if err != nil {
		return err
	}
	if len(values) != len(prop.Values) {
		return keying.NewTargetError(keying.ErrCodeIndexOutOfRange, owner, path, len(values)-1)
	}
	copy(prop.Values, values)
	return nil
}

// SetVisual sets the visual values keyed under the Visual flag.
func (d *Document) SetVisual(owner, path string, values []float64) error {
	prop, err := d.lookup(owner, path)
	if err != nil {
		return err
	}
	d.Object(owner).Visual[prop.Path] = append([]float64(nil), values...)
	return nil
}

func (d *Document) lookup(owner, path string) (*keying.Property, error) {
	obj := d.Object(owner)
	if obj == nil {
		return nil, keying.NewTargetError(keying.ErrCodeOwnerNotFound, owner, path, -1)
	}
	prop, ok := obj.Properties[norm.NFC.String(path)]
	if !ok {
		return nil, keying.NewTargetError(keying.ErrCodePathNotFound, owner, path, -1)
	}
	return prop, nil
}

// Resolve implements keying.PropertySystem. The returned property is a
// snapshot.
func (d *Document) Resolve(owner, path string) (*keying.Property, error) {
	prop, err := d.lookup(owner, path)
	if err != nil {
		return nil, err
	}
	cp := *prop
	cp.Values = append([]float64(nil), prop.Values...)
	return &cp, nil
}

// FindCurve implements keying.CurveContainer.
func (d *Document) FindCurve(key keying.CurveKey) *fcurve.Curve {
	obj := d.Object(key.Owner)
	if obj == nil || obj.Anim == nil {
		return nil
	}
	return findCurve(curveList(obj.Anim, key.Source), key)
}

// EnsureCurve implements keying.CurveContainer.
func (d *Document) EnsureCurve(key keying.CurveKey, flags fcurve.ValueFlags) (*fcurve.Curve, error) {
	obj := d.Object(key.Owner)
	if obj == nil {
		return nil, keying.NewTargetError(keying.ErrCodeOwnerNotFound, key.Owner, key.Path, key.Index)
	}
	anim := obj.ensureAnim()
	if c := findCurve(curveList(anim, key.Source), key); c != nil {
		return c, nil
	}

	c := fcurve.NewCurve(norm.NFC.String(key.Path), key.Index)
	c.Flags = flags
	if key.Source == keying.SourceDriver {
		anim.Drivers = append(anim.Drivers, c)
	} else {
		anim.Action.Curves = append(anim.Action.Curves, c)
	}
	return c, nil
}

// EnsureOwner implements keying.CurveContainer.
func (d *Document) EnsureOwner(owner string) error {
	obj := d.Object(owner)
	if obj == nil {
		return keying.NewTargetError(keying.ErrCodeOwnerNotFound, owner, "", -1)
	}
	obj.ensureAnim()
	return nil
}

// Evaluate implements keying.Evaluator.
func (d *Document) Evaluate(c *fcurve.Curve, t float64) float64 {
	return fcurve.Evaluate(c, t)
}

// ActiveStrip implements keying.NLAContext.
func (d *Document) ActiveStrip(owner string) *nla.Strip {
	obj := d.Object(owner)
	if obj == nil || obj.Anim == nil {
		return nil
	}
	return obj.Anim.NLA.ActiveStrip()
}

// NLAEnabled implements keying.NLAContext.
func (d *Document) NLAEnabled(owner string) bool {
	obj := d.Object(owner)
	return obj != nil && obj.Anim != nil && !obj.Anim.NLA.Disabled
}

// VisualValues implements keying.VisualKeyer.
func (d *Document) VisualValues(owner, path string) ([]float64, bool) {
	obj := d.Object(owner)
	if obj == nil {
		return nil, false
	}
	v, ok := obj.Visual[norm.NFC.String(path)]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

func curveList(anim *AnimData, src keying.CurveSource) []*fcurve.Curve {
	if src == keying.SourceDriver {
		return anim.Drivers
	}
	if anim.Action == nil {
		return nil
	}
	return anim.Action.Curves
}

func findCurve(curves []*fcurve.Curve, key keying.CurveKey) *fcurve.Curve {
	path := norm.NFC.String(key.Path)
	for _, c := range curves {
		if c.Path == path && c.Index == key.Index {
			return c
		}
	}
	return nil
}

var (
	_ keying.Host        = (*Document)(nil)
	_ keying.VisualKeyer = (*Document)(nil)
)
