package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
	"github.com/roach88/keyframe/internal/store"
	"github.com/roach88/keyframe/internal/testutil"
)

// Harness is the scenario execution engine.
type Harness struct {
	doc        *scene.Document
	dispatcher *keying.Dispatcher
	store      *store.Store
}

// Run executes a scenario and returns the result.
//
// Each scenario keys a freshly loaded scene and logs to a fresh in-memory
// database, so runs are isolated and reproducible.
//
// Execution flow:
// 1. Load the scene file
// 2. Run steps, checking expected outcome counts
// 3. Snapshot every curve
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	doc, err := scene.Load(scenario.Scene)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := testutil.DiscardLogger()
	h := &Harness{
		doc: doc,
		dispatcher: keying.New(doc,
			keying.WithDefaults(doc.Preferences),
			keying.WithIDGenerator(testutil.NewSequenceGenerator(scenario.Name)),
			keying.WithLogger(logger),
		),
		store: st,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	result.Curves = Snapshot(doc)

	for _, errMsg := range EvaluateAssertions(doc, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	switch {
	case step.Set != nil:
		values, err := toFloats(step.Set.Values)
		if err != nil {
			return fmt.Errorf("set values: %w", err)
		}
		if step.Set.Visual {
			return h.doc.SetVisual(step.Set.Object, step.Set.Path, values)
		}
		return h.doc.Set(step.Set.Object, step.Set.Path, values)

	case step.CreateCurve != nil:
		cs := step.CreateCurve
		prop, err := h.doc.Resolve(cs.Object, cs.Path)
		if err != nil {
			return err
		}
		src := keying.SourceAction
		if cs.Driver {
			src = keying.SourceDriver
		}
		_, err = h.doc.EnsureCurve(keying.CurveKey{Owner: cs.Object, Path: cs.Path, Index: cs.Index, Source: src}, prop.CurveFlags())
		return err
	}

	return h.executeInsert(ctx, index, step, result)
}

func (h *Harness) executeInsert(ctx context.Context, index int, step Step, result *Result) error {
	in := step.Insert
	if in == nil {
		return fmt.Errorf("empty step")
	}

	t, err := cast.ToFloat64E(in.Time)
	if err != nil {
		return fmt.Errorf("insert time: %w", err)
	}
	targets := make([]keying.Target, len(in.Targets))
	for i, s := range in.Targets {
		if targets[i], err = keying.ParseTarget(s); err != nil {
			return err
		}
	}
	flags, err := keying.ParseFlags(in.Flags)
	if err != nil {
		return err
	}
	keyType, err := fcurve.ParseKeyType(in.KeyType)
	if err != nil {
		return err
	}

	res := h.dispatcher.InsertKeys(in.Object, targets, t, flags, keyType)
	if err := h.store.WriteBatch(ctx, store.NewLogEntry(targets, keyType, res)); err != nil {
		return err
	}

	counts := make(map[string]int, len(res.Counts))
	for o, n := range res.Counts {
		if n > 0 {
			counts[o.String()] = n
		}
	}
	flagNames := res.Flags
	if flagNames == nil {
		flagNames = []string{}
	}
	result.Trace = append(result.Trace, TraceEvent{
		Step:      index + 1,
		BatchID:   res.BatchID,
		Seq:       res.Seq,
		Owner:     res.Owner,
		Time:      res.Time,
		LocalTime: res.LocalTime,
		Flags:     flagNames,
		Counts:    counts,
	})

	for _, msg := range checkExpect(index, step.Expect, res) {
		result.AddError(msg)
	}
	return nil
}

// checkExpect compares expected outcome counts with a batch result.
func checkExpect(index int, expect map[string]interface{}, res *keying.CombinedResult) []string {
	names := make([]string, 0, len(expect))
	for name := range expect {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []string
	for _, name := range names {
		outcome, err := keying.ParseOutcome(name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("steps[%d].expect: %v", index, err))
			continue
		}
		want, err := cast.ToIntE(expect[name])
		if err != nil {
			errs = append(errs, fmt.Sprintf("steps[%d].expect.%s: %v", index, name, err))
			continue
		}
		if got := res.GetCount(outcome); got != want {
			errs = append(errs, fmt.Sprintf("steps[%d].expect.%s: expected %d, got %d (%s)", index, name, want, got, res))
		}
	}
	return errs
}

// Snapshot captures every curve of doc, objects in name order and curves
// in container order (action curves before driver curves).
func Snapshot(doc *scene.Document) []CurveSnapshot {
	out := []CurveSnapshot{}
	for _, name := range doc.ObjectNames() {
		obj := doc.Object(name)
		if obj.Anim == nil {
			continue
		}
		var action []*fcurve.Curve
		if obj.Anim.Action != nil {
			action = obj.Anim.Action.Curves
		}
		for _, c := range action {
			out = append(out, snapshotCurve(name, c, false))
		}
		for _, c := range obj.Anim.Drivers {
			out = append(out, snapshotCurve(name, c, true))
		}
	}
	return out
}

func snapshotCurve(owner string, c *fcurve.Curve, driver bool) CurveSnapshot {
	s := CurveSnapshot{
		Object:  owner,
		Path:    c.Path,
		Index:   c.Index,
		Driver:  driver,
		Times:   c.Times(),
		Values:  c.Values(),
		Interp:  make([]string, len(c.Points)),
		Handles: make([]string, len(c.Points)),
	}
	for i := range c.Points {
		p := &c.Points[i]
		s.Interp[i] = p.Interp.String()
		s.Handles[i] = p.HandleLeft.String() + "/" + p.HandleRight.String()
	}
	return s
}

// toFloats coerces YAML scalars (ints, floats, numeric strings) to float64.
func toFloats(in []interface{}) ([]float64, error) {
	out := make([]float64, len(in))
	for i, v := range in {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}
