package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
)

const defaultTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Channel  string // owner.path[index] the assertion looked at
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Channel)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks all assertions against doc and returns the
// failure messages.
func EvaluateAssertions(doc *scene.Document, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(doc, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(doc *scene.Document, a Assertion) error {
	switch a.Type {
	case AssertCurvePoints:
		return assertCurvePoints(doc, a)
	case AssertCurveAbsent:
		return assertCurveAbsent(doc, a)
	case AssertCurveCount:
		return assertCurveCount(doc, a)
	case AssertValueAt:
		return assertValueAt(doc, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func curveKey(a Assertion) keying.CurveKey {
	src := keying.SourceAction
	if a.Driver {
		src = keying.SourceDriver
	}
	return keying.CurveKey{Owner: a.Object, Path: a.Path, Index: a.Index, Source: src}
}

func channel(a Assertion) string {
	return fmt.Sprintf("%s.%s[%d]", a.Object, a.Path, a.Index)
}

func tolerance(a Assertion) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return defaultTolerance
}

// assertCurvePoints checks key times, and values when given, exactly in
// order.
func assertCurvePoints(doc *scene.Document, a Assertion) error {
	c := doc.FindCurve(curveKey(a))
	if c == nil {
		return &AssertionError{Type: a.Type, Channel: channel(a), Expected: "curve exists", Actual: "no curve"}
	}

	times, err := toFloats(a.Times)
	if err != nil {
		return fmt.Errorf("times: %w", err)
	}
	values, err := toFloats(a.Values)
	if err != nil {
		return fmt.Errorf("values: %w", err)
	}

	mismatch := &AssertionError{
		Type:     a.Type,
		Channel:  channel(a),
		Expected: fmt.Sprintf("times %v values %v", times, values),
		Actual:   fmt.Sprintf("times %v values %v", c.Times(), c.Values()),
	}
	if len(c.Points) != len(times) {
		return mismatch
	}
	tol := tolerance(a)
	for i := range times {
		if math.Abs(c.Points[i].Time()-times[i]) > tol {
			return mismatch
		}
		if len(values) > 0 && math.Abs(c.Points[i].Value()-values[i]) > tol {
			return mismatch
		}
	}
	return nil
}

func assertCurveAbsent(doc *scene.Document, a Assertion) error {
	if c := doc.FindCurve(curveKey(a)); c != nil {
		return &AssertionError{
			Type:     a.Type,
			Channel:  channel(a),
			Expected: "no curve",
			Actual:   fmt.Sprintf("curve with %d keys", len(c.Points)),
		}
	}
	return nil
}

func assertCurveCount(doc *scene.Document, a Assertion) error {
	obj := doc.Object(a.Object)
	if obj == nil {
		return &AssertionError{Type: a.Type, Channel: a.Object, Expected: "object exists", Actual: "no object"}
	}
	if n := len(obj.Curves()); n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Channel:  a.Object,
			Expected: fmt.Sprintf("%d curves", a.Count),
			Actual:   fmt.Sprintf("%d curves", n),
		}
	}
	return nil
}

func assertValueAt(doc *scene.Document, a Assertion) error {
	c := doc.FindCurve(curveKey(a))
	if c == nil {
		return &AssertionError{Type: a.Type, Channel: channel(a), Expected: "curve exists", Actual: "no curve"}
	}
	at, err := cast.ToFloat64E(a.At)
	if err != nil {
		return fmt.Errorf("at: %w", err)
	}
	want, err := cast.ToFloat64E(a.Value)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if got := fcurve.Evaluate(c, at); math.Abs(got-want) > tolerance(a) {
		return &AssertionError{
			Type:     a.Type,
			Channel:  channel(a),
			Expected: fmt.Sprintf("%g at %g", want, at),
			Actual:   fmt.Sprintf("%g", got),
		}
	}
	return nil
}
