package keying

import (
	"log/slog"
	"math"

	"github.com/roach88/keyframe/internal/fcurve"
)

// Dispatcher inserts keys for batches of targets.
type Dispatcher struct {
	host     Host
	visual   VisualKeyer
	defaults fcurve.Defaults
	logger   *slog.Logger
	ids      IDGenerator
	clock    *Clock

	// eagerOwner creates the owner's animation data and action before any
	// target is looked at, even if every target is later filtered out.
	eagerOwner bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDefaults sets the handle and interpolation preferences for new keys.
//
// Default: fcurve.BuiltinDefaults
func WithDefaults(d fcurve.Defaults) Option {
	return func(ds *Dispatcher) {
		ds.defaults = d
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ds *Dispatcher) {
		ds.logger = l
	}
}

// WithIDGenerator sets the batch ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(ds *Dispatcher) {
		ds.ids = g
	}
}

// WithClock sets the logical clock stamping batches.
func WithClock(c *Clock) Option {
	return func(ds *Dispatcher) {
		ds.clock = c
	}
}

// WithVisualKeyer sets the source of visual values for the Visual flag.
// Without one, Visual keys the raw property values.
func WithVisualKeyer(v VisualKeyer) Option {
	return func(ds *Dispatcher) {
		ds.visual = v
	}
}

// WithEagerOwnerCreation controls whether animation data and an action are
// created for the owner at the start of every non-driver batch.
//
// Default: true. Keying with Available then still leaves an (empty) action
// behind even when no key was written.
func WithEagerOwnerCreation(eager bool) Option {
	return func(ds *Dispatcher) {
		ds.eagerOwner = eager
	}
}

// New creates a Dispatcher over host.
func New(host Host, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		host:       host,
		defaults:   fcurve.BuiltinDefaults,
		logger:     slog.Default(),
		ids:        UUIDv7Generator{},
		clock:      NewClock(),
		eagerOwner: true,
	}
	if v, ok := host.(VisualKeyer); ok {
		d.visual = v
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Defaults returns the configured key defaults.
func (d *Dispatcher) Defaults() fcurve.Defaults {
	return d.defaults
}

// request carries the per-batch state shared by every element.
type request struct {
	owner   string
	time    float64
	flags   Flags
	keyType fcurve.KeyType
	source  CurveSource
	result  *CombinedResult
}

// InsertKeys keys every target of owner at the global time t.
//
// Each array element of each target yields one entry in the result. Use
// GetCount(Success) for the number of keys written.
func (d *Dispatcher) InsertKeys(owner string, targets []Target, t float64, flags Flags, keyType fcurve.KeyType) *CombinedResult {
	res := NewCombinedResult()
	res.BatchID = d.ids.Generate()
	res.Seq = d.clock.Next()
	res.Owner = owner
	res.Time = t
	res.Flags = flags.Names()

	req := &request{
		owner:   owner,
		time:    t,
		flags:   flags,
		keyType: keyType,
		source:  SourceAction,
		result:  res,
	}

	if flags.Driver {
		// Driver curves live outside the NLA stack.
		req.source = SourceDriver
	} else {
		req.time = RemapTime(d.host, owner, t)
		if d.eagerOwner {
			if err := d.host.EnsureOwner(owner); err != nil {
				d.logger.Debug("owner not prepared", "batch", res.BatchID, "owner", owner, "error", err)
			}
		}
	}
	res.LocalTime = req.time

	for _, tgt := range targets {
		d.insertTarget(req, tgt)
	}

	d.logger.Info("keys inserted",
		"batch", res.BatchID,
		"seq", res.Seq,
		"owner", owner,
		"time", t,
		"local_time", req.time,
		"flags", flags.String(),
		"inserted", res.Inserted(),
		"total", res.Total(),
	)
	return res
}

func (d *Dispatcher) insertTarget(req *request, tgt Target) {
	prop, err := d.host.Resolve(req.owner, tgt.Path)
	if err != nil {
		d.record(req, tgt.Path, tgt.index(), CannotResolveTarget, err.Error())
		return
	}
	if !prop.Animatable {
		err := NewTargetError(ErrCodeNotAnimatable, req.owner, tgt.Path, tgt.index())
		d.record(req, tgt.Path, tgt.index(), CannotResolveTarget, err.Error())
		return
	}
	if tgt.Index != nil && (*tgt.Index < 0 || *tgt.Index >= prop.Len()) {
		err := NewTargetError(ErrCodeIndexOutOfRange, req.owner, tgt.Path, *tgt.Index)
		d.record(req, tgt.Path, *tgt.Index, CannotResolveTarget, err.Error())
		return
	}

	values := prop.Values
	if req.flags.Visual && d.visual != nil {
		if visual, ok := d.visual.VisualValues(req.owner, prop.Path); ok && len(visual) == len(values) {
			values = visual
		}
	}

	if d.groupsQuaternion(req, prop) {
		d.insertQuaternionGroup(req, prop, values)
		return
	}

	if tgt.Index != nil {
		d.insertElement(req, prop, *tgt.Index, values[*tgt.Index], req.flags)
		return
	}
	for i := range values {
		d.insertElement(req, prop, i, values[i], req.flags)
	}
}

// insertElement keys one array element under flags and records the outcome.
func (d *Dispatcher) insertElement(req *request, prop *Property, index int, value float64, flags Flags) {
	key := CurveKey{Owner: req.owner, Path: prop.Path, Index: index, Source: req.source}

	var c *fcurve.Curve
	if flags.mayCreateCurves() {
		var err error
		c, err = d.host.EnsureCurve(key, prop.CurveFlags())
		if err != nil {
			d.record(req, prop.Path, index, CannotResolveTarget, err.Error())
			return
		}
	} else {
		c = d.host.FindCurve(key)
		if c == nil {
			if flags.Available {
				d.record(req, prop.Path, index, NoCurveAndNotCreatable, "")
			} else {
				d.record(req, prop.Path, index, NoMatchingKeyUnderReplacePolicy, "no curve")
			}
			return
		}
	}

	if flags.Needed && !d.keyNeeded(c, req.time, value) {
		d.record(req, prop.Path, index, UnchangedUnderNeededPolicy, "")
		return
	}

	idx, _ := fcurve.InsertValue(c, req.time, value, req.keyType, d.defaults, flags.insertFlags())
	if idx == fcurve.Rejected {
		if flags.Replace {
			d.record(req, prop.Path, index, NoMatchingKeyUnderReplacePolicy, "")
		} else {
			d.record(req, prop.Path, index, BakedCurveRejected, "")
		}
		return
	}
	d.record(req, prop.Path, index, Success, "")
}

// keyNeeded reports whether writing value at t would change the curve.
func (d *Dispatcher) keyNeeded(c *fcurve.Curve, t, value float64) bool {
	if c == nil || len(c.Points) == 0 {
		return true
	}
	return !nearlyEqual(d.host.Evaluate(c, t), value)
}

// nearlyEqual compares with a relative tolerance scaled by the magnitude
// of the operands.
func nearlyEqual(a, b float64) bool {
	const eps = 1e-6
	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}
	return diff <= eps*math.Max(math.Abs(a), math.Abs(b))
}

func (d *Dispatcher) record(req *request, path string, index int, o Outcome, detail string) {
	req.result.Add(Entry{Path: path, Index: index, Outcome: o, Detail: detail})
	d.logger.Debug("key outcome",
		"batch", req.result.BatchID,
		"owner", req.owner,
		"path", path,
		"index", index,
		"outcome", o.String(),
	)
}
