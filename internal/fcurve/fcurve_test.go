package fcurve

import (
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	DebugChecks = true
	os.Exit(m.Run())
}

func keysAt(times ...float64) []Point {
	c := NewCurve("x", 0)
	for _, t := range times {
		c.Points = append(c.Points, NewPoint(c, t, 0, KeyKeyframe, BuiltinDefaults))
	}
	return c.Points
}

func TestBinarySearch(t *testing.T) {
	points := keysAt(0, 10, 20, 30, 40)

	tests := []struct {
		name      string
		points    []Point
		time      float64
		wantIndex int
		wantMatch bool
	}{
		{"empty", nil, 5, 0, false},
		{"before first", points, -5, 0, false},
		{"on first", points, 0, 0, true},
		{"between", points, 15, 2, false},
		{"on middle", points, 20, 2, true},
		{"on inner", points, 30, 3, true},
		{"on last", points, 40, 4, true},
		{"after last", points, 45, 5, false},
		{"within threshold", points, 10.005, 1, true},
		{"outside threshold", points, 10.05, 2, false},
		{"single key before", keysAt(3), 1, 0, false},
		{"single key after", keysAt(3), 4, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, match := BinarySearch(tt.points, tt.time)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, tt.wantMatch, match)
		})
	}
}

func TestInsertValue_SortedUniqueInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewCurve("location", 0)

	for i := 0; i < 200; i++ {
		tm := float64(rng.Intn(60))
		idx, _ := InsertValue(c, tm, rng.Float64(), KeyKeyframe, BuiltinDefaults, InsertFlags{})
		require.NotEqual(t, Rejected, idx)

		for j := 1; j < len(c.Points); j++ {
			require.Less(t, c.Points[j-1].Time(), c.Points[j].Time(), "after insert %d", i)
		}
	}
	assert.LessOrEqual(t, c.Len(), 60)
}

func TestInsertValue_ReplaceSameTime(t *testing.T) {
	c := NewCurve("location", 0)

	i1, added1 := InsertValue(c, 5, 1.0, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	i2, added2 := InsertValue(c, 5, 2.5, KeyKeyframe, BuiltinDefaults, InsertFlags{})

	assert.Equal(t, 0, i1)
	assert.True(t, added1)
	assert.Equal(t, 0, i2)
	assert.False(t, added2)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2.5, c.Points[0].Value())
	assert.Equal(t, 0, c.Active)
}

func TestInsertValue_ReplaceTakesKeyType(t *testing.T) {
	c := NewCurve("location", 0)
	InsertValue(c, 10, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})

	idx, added := InsertValue(c, 10, 2, KeyBreakdown, BuiltinDefaults, InsertFlags{})
	require.Equal(t, 0, idx)
	assert.False(t, added)
	assert.Equal(t, 2.0, c.Points[0].Value())
	assert.Equal(t, KeyBreakdown, c.Points[0].KeyType)

	InsertValue(c, 10, 2, KeyExtreme, BuiltinDefaults, InsertFlags{Replace: true})
	assert.Equal(t, KeyExtreme, c.Points[0].KeyType)
}

func TestInsertValue_OrderIndependent(t *testing.T) {
	a := NewCurve("location", 0)
	InsertValue(a, 1, 10, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	InsertValue(a, 2, 20, KeyKeyframe, BuiltinDefaults, InsertFlags{})

	b := NewCurve("location", 0)
	InsertValue(b, 2, 20, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	InsertValue(b, 1, 10, KeyKeyframe, BuiltinDefaults, InsertFlags{})

	assert.Equal(t, []float64{1, 2}, a.Times())
	assert.Equal(t, []float64{1, 2}, b.Times())
	assert.Equal(t, []float64{10, 20}, b.Values())
}

func TestInsertValue_ReplaceOnlyRejects(t *testing.T) {
	c := NewCurve("location", 0)

	idx, added := InsertValue(c, 1, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{Replace: true})
	assert.Equal(t, Rejected, idx)
	assert.False(t, added)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, -1, c.Active)

	InsertValue(c, 1, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	before := c.Clone()

	idx, _ = InsertValue(c, 2, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{Replace: true})
	assert.Equal(t, Rejected, idx)
	assert.Equal(t, before.Points, c.Points)

	idx, added = InsertValue(c, 1, 7, KeyKeyframe, BuiltinDefaults, InsertFlags{Replace: true})
	assert.Equal(t, 0, idx)
	assert.False(t, added)
	assert.Equal(t, 7.0, c.Points[0].Value())
}

func TestInsertPoint_BakedCurveRejects(t *testing.T) {
	c := NewCurve("location", 0)
	c.Samples = []Vec2{{Time: 0, Value: 1}}

	idx, _ := InsertValue(c, 1, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	assert.Equal(t, Rejected, idx)
	assert.Empty(t, c.Points)
}

func TestInsertPoint_EmptySamplesAreNotBaked(t *testing.T) {
	c := NewCurve("location", 0)
	c.Samples = []Vec2{}

	idx, added := InsertValue(c, 1, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	assert.Equal(t, 0, idx)
	assert.True(t, added)

	idx, added = InsertValue(c, 2, 3, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	assert.Equal(t, 1, idx)
	assert.True(t, added)
	assert.Equal(t, []float64{1, 2}, c.Times())
}

func TestInsertPoint_ReplaceShiftsHandles(t *testing.T) {
	c := NewCurve("location", 0)
	c.Points = []Point{{
		Control:     [3]Vec2{{Time: 8, Value: 0}, {Time: 10, Value: 1}, {Time: 12, Value: 4}},
		HandleLeft:  HandleFree,
		HandleRight: HandleFree,
		Interp:      InterpBezier,
	}}

	p := NewPoint(c, 10, 3, KeyBreakdown, BuiltinDefaults)
	idx, added := InsertPoint(c, p, InsertFlags{})
	require.Equal(t, 0, idx)
	assert.False(t, added)

	got := c.Points[0]
	assert.Equal(t, Vec2{Time: 8, Value: 2}, got.Control[0])
	assert.Equal(t, Vec2{Time: 10, Value: 3}, got.Control[1])
	assert.Equal(t, Vec2{Time: 12, Value: 6}, got.Control[2])
	assert.Equal(t, HandleFree, got.HandleLeft, "handle types survive a value replace")
	assert.Equal(t, KeyBreakdown, got.KeyType)
	assert.Equal(t, SelectAll, got.Select)
}

func TestInsertPoint_OverwriteFull(t *testing.T) {
	c := NewCurve("location", 0)
	c.Points = []Point{{
		Control:    [3]Vec2{{Time: 8, Value: 0}, {Time: 10, Value: 1}, {Time: 12, Value: 4}},
		HandleLeft: HandleFree, HandleRight: HandleFree,
	}}

	p := NewPoint(c, 10, 3, KeyBreakdown, BuiltinDefaults)
	InsertPoint(c, p, InsertFlags{OverwriteFull: true})

	assert.Equal(t, p, c.Points[0])
}

func perfectCycle() *Cycle {
	return &Cycle{Before: CycleRepeat, After: CycleRepeat}
}

func TestInsertValue_CyclicMirror(t *testing.T) {
	build := func() *Curve {
		c := NewCurve("rotation_euler", 2)
		c.Cycle = perfectCycle()
		InsertValue(c, 0, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})
		InsertValue(c, 10, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})
		return c
	}

	t.Run("first key mirrors onto last", func(t *testing.T) {
		c := build()
		InsertValue(c, 0, 3, KeyKeyframe, BuiltinDefaults, InsertFlags{CycleAware: true})
		assert.Equal(t, []float64{3, 3}, c.Values())
	})

	t.Run("last key mirrors onto first", func(t *testing.T) {
		c := build()
		InsertValue(c, 10, -2, KeyKeyframe, BuiltinDefaults, InsertFlags{CycleAware: true})
		assert.Equal(t, []float64{-2, -2}, c.Values())
	})

	t.Run("mirror ignores full overwrite", func(t *testing.T) {
		c := build()
		InsertValue(c, 0, 4, KeyKeyframe, BuiltinDefaults, InsertFlags{CycleAware: true, OverwriteFull: true})
		assert.Equal(t, []float64{4, 4}, c.Values())
	})

	t.Run("without flag only target changes", func(t *testing.T) {
		c := build()
		InsertValue(c, 0, 3, KeyKeyframe, BuiltinDefaults, InsertFlags{})
		assert.Equal(t, []float64{3, 1}, c.Values())
	})

	t.Run("offset cycle does not mirror", func(t *testing.T) {
		c := build()
		c.Cycle.After = CycleRepeatOffset
		InsertValue(c, 0, 3, KeyKeyframe, BuiltinDefaults, InsertFlags{CycleAware: true})
		assert.Equal(t, []float64{3, 1}, c.Values())
	})
}

func TestCycleType(t *testing.T) {
	tests := []struct {
		name  string
		cycle *Cycle
		want  CycleKind
	}{
		{"no modifier", nil, CycleNone},
		{"perfect", &Cycle{Before: CycleRepeat, After: CycleRepeat}, CyclePerfect},
		{"offset after", &Cycle{Before: CycleRepeat, After: CycleRepeatOffset}, CycleOffset},
		{"offset both", &Cycle{Before: CycleRepeatOffset, After: CycleRepeatOffset}, CycleOffset},
		{"mirror", &Cycle{Before: CycleMirror, After: CycleRepeat}, CycleNone},
		{"one side off", &Cycle{Before: CycleOff, After: CycleRepeat}, CycleNone},
		{"limited count", &Cycle{Before: CycleRepeat, After: CycleRepeat, AfterCount: 2}, CycleNone},
		{"muted", &Cycle{Before: CycleRepeat, After: CycleRepeat, Muted: true}, CycleNone},
		{"restricted", &Cycle{Before: CycleRepeat, After: CycleRepeat, Restricted: true}, CycleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCurve("x", 0)
			c.Cycle = tt.cycle
			assert.Equal(t, tt.want, CycleType(c))
			assert.Equal(t, tt.want == CyclePerfect, IsPerfectCycle(c))
		})
	}
}

func TestInsertValue_CycleAwareFoldsTime(t *testing.T) {
	c := NewCurve("x", 0)
	c.Cycle = perfectCycle()
	InsertValue(c, 0, 0, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	InsertValue(c, 10, 0, KeyKeyframe, BuiltinDefaults, InsertFlags{})

	idx, added := InsertValue(c, 12, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{CycleAware: true})
	assert.Equal(t, 1, idx)
	assert.True(t, added)
	assert.Equal(t, []float64{0, 2, 10}, c.Times())

	off := NewCurve("x", 0)
	off.Cycle = &Cycle{Before: CycleRepeatOffset, After: CycleRepeatOffset}
	InsertValue(off, 0, 0, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	InsertValue(off, 10, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{})

	InsertValue(off, 15, 8, KeyKeyframe, BuiltinDefaults, InsertFlags{CycleAware: true})
	assert.Equal(t, []float64{0, 5, 10}, off.Times())
	assert.Equal(t, []float64{0, 3, 5}, off.Values())
}

func TestNewPoint_ValueFlags(t *testing.T) {
	prefs := Defaults{Handle: HandleAutoClamped, Interpolation: InterpBezier}

	c := NewCurve("frame", 0)
	assert.Equal(t, InterpBezier, NewPoint(c, 1, 1, KeyKeyframe, prefs).Interp)

	c.Flags = IntegerOnly
	assert.Equal(t, InterpLinear, NewPoint(c, 1, 1, KeyKeyframe, prefs).Interp)

	c.Flags = IntegerOnly | DiscreteOnly
	assert.Equal(t, InterpConstant, NewPoint(c, 1, 1, KeyKeyframe, prefs).Interp)

	c.Flags = IntegerOnly
	constPrefs := Defaults{Handle: HandleAuto, Interpolation: InterpConstant}
	assert.Equal(t, InterpConstant, NewPoint(c, 1, 1, KeyKeyframe, constPrefs).Interp)

	p := NewPoint(NewCurve("x", 0), 4, 2, KeyExtreme, prefs)
	assert.Equal(t, [3]Vec2{{Time: 3, Value: 2}, {Time: 4, Value: 2}, {Time: 5, Value: 2}}, p.Control)
	assert.Equal(t, HandleAutoClamped, p.HandleLeft)
	assert.Equal(t, KeyExtreme, p.KeyType)
	assert.Equal(t, DefaultPeriod, p.Period)
}

func TestInsertValue_NoUserPref(t *testing.T) {
	prefs := Defaults{Handle: HandleVector, Interpolation: InterpConstant}

	c := NewCurve("x", 0)
	InsertValue(c, 1, 1, KeyKeyframe, prefs, InsertFlags{NoUserPref: true})
	assert.Equal(t, HandleAuto, c.Points[0].HandleLeft)
	assert.Equal(t, InterpBezier, c.Points[0].Interp)

	InsertValue(c, 2, 1, KeyKeyframe, prefs, InsertFlags{})
	assert.Equal(t, HandleVector, c.Points[1].HandleRight)
	assert.Equal(t, InterpConstant, c.Points[1].Interp)
}

func TestInsertValue_InterpolationFromNeighbour(t *testing.T) {
	linear := Defaults{Handle: HandleAuto, Interpolation: InterpLinear}

	c := NewCurve("x", 0)
	InsertValue(c, 0, 0, KeyKeyframe, linear, InsertFlags{})
	InsertValue(c, 10, 0, KeyKeyframe, linear, InsertFlags{})

	InsertValue(c, 5, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	assert.Equal(t, InterpLinear, c.Points[1].Interp, "interior key copies previous key")

	InsertValue(c, -5, 1, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	assert.Equal(t, InterpLinear, c.Points[0].Interp, "first key copies next key")

	two := NewCurve("x", 0)
	InsertValue(two, 0, 0, KeyKeyframe, linear, InsertFlags{})
	InsertValue(two, 10, 0, KeyKeyframe, BuiltinDefaults, InsertFlags{})
	assert.Equal(t, InterpBezier, two.Points[1].Interp, "two-key curves keep their own interpolation")
}

func TestInsertValue_FastSkipsHandleRecalc(t *testing.T) {
	c := NewCurve("x", 0)
	InsertValue(c, 0, 0, KeyKeyframe, BuiltinDefaults, InsertFlags{Fast: true})
	InsertValue(c, 9, 9, KeyKeyframe, BuiltinDefaults, InsertFlags{Fast: true})

	assert.Equal(t, Vec2{Time: 8, Value: 9}, c.Points[1].Control[0])

	RecalcHandles(c)
	assert.InDelta(t, 6.0, c.Points[1].Control[0].Time, 1e-9)
	assert.InDelta(t, 9.0, c.Points[1].Control[0].Value, 1e-9)
}

// freeSegment builds a Bezier segment from (0,0) to (10,10) whose facing
// handles are fixed at a third of the key distance.
func freeSegment(nextHandle HandleType) *Curve {
	c := NewCurve("x", 0)
	c.Points = []Point{
		{
			Control:     [3]Vec2{{Time: -10.0 / 3, Value: 0}, {Time: 0, Value: 0}, {Time: 10.0 / 3, Value: 0}},
			HandleLeft:  HandleFree,
			HandleRight: HandleFree,
			Interp:      InterpBezier,
		},
		{
			Control:     [3]Vec2{{Time: 20.0 / 3, Value: 10}, {Time: 10, Value: 10}, {Time: 40.0 / 3, Value: 10}},
			HandleLeft:  nextHandle,
			HandleRight: nextHandle,
			Interp:      InterpBezier,
		},
	}
	return c
}

func TestReconcileHandles_SubdividesAndBreaksAuto(t *testing.T) {
	c := freeSegment(HandleFree)

	idx, added := InsertValue(c, 5, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{Fast: true})
	require.Equal(t, 1, idx)
	require.True(t, added)

	pt := c.Points[1]
	assert.Equal(t, HandleAligned, pt.HandleLeft)
	assert.Equal(t, HandleAligned, pt.HandleRight)
	assert.InDelta(t, 10.0/3, pt.Control[0].Time, 1e-6)
	assert.InDelta(t, 2.5, pt.Control[0].Value, 1e-6)
	assert.InDelta(t, 20.0/3, pt.Control[2].Time, 1e-6)
	assert.InDelta(t, 7.5, pt.Control[2].Value, 1e-6)

	assert.InDelta(t, 5.0/3, c.Points[0].Control[2].Time, 1e-6)
	assert.InDelta(t, 25.0/3, c.Points[2].Control[0].Time, 1e-6)
}

func TestReconcileHandles_ContinuousAccelerationKeepsAuto(t *testing.T) {
	c := freeSegment(HandleAuto)
	c.Smoothing = SmoothContinuousAcceleration

	InsertValue(c, 5, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{Fast: true})
	assert.Equal(t, HandleAuto, c.Points[1].HandleLeft)

	plain := freeSegment(HandleAuto)
	InsertValue(plain, 5, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{Fast: true})
	assert.Equal(t, HandleAligned, plain.Points[1].HandleLeft)
}

func TestReconcileHandles_NoOpCases(t *testing.T) {
	t.Run("all auto", func(t *testing.T) {
		c := NewCurve("x", 0)
		InsertValue(c, 0, 0, KeyKeyframe, BuiltinDefaults, InsertFlags{})
		InsertValue(c, 10, 10, KeyKeyframe, BuiltinDefaults, InsertFlags{})
		InsertValue(c, 5, 2, KeyKeyframe, BuiltinDefaults, InsertFlags{})
		assert.Equal(t, HandleAuto, c.Points[1].HandleLeft)
		assert.Equal(t, HandleAuto, c.Points[1].HandleRight)
	})

	t.Run("linear neighbour", func(t *testing.T) {
		c := freeSegment(HandleFree)
		c.Points[0].Interp = InterpLinear
		before := c.Points[0].Control

		InsertValue(c, 5, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{Fast: true})
		assert.Equal(t, HandleAuto, c.Points[1].HandleLeft)
		assert.Equal(t, before, c.Points[0].Control)
	})

	t.Run("full overwrite", func(t *testing.T) {
		c := freeSegment(HandleFree)
		InsertValue(c, 5, 5, KeyKeyframe, BuiltinDefaults, InsertFlags{Fast: true, OverwriteFull: true})
		assert.Equal(t, HandleAuto, c.Points[1].HandleLeft)
	})

	t.Run("free new point keeps type", func(t *testing.T) {
		c := freeSegment(HandleFree)
		free := Defaults{Handle: HandleFree, Interpolation: InterpBezier}
		InsertValue(c, 5, 5, KeyKeyframe, free, InsertFlags{Fast: true})
		assert.Equal(t, HandleFree, c.Points[1].HandleLeft)
		assert.InDelta(t, 2.5, c.Points[1].Control[0].Value, 1e-6)
	})
}

func TestRecalcHandles(t *testing.T) {
	build := func(h HandleType, ext Extrapolation, values ...float64) *Curve {
		c := NewCurve("x", 0)
		c.Extrapolation = ext
		for i, v := range values {
			c.Points = append(c.Points, NewPoint(c, float64(i*3), v, KeyKeyframe, Defaults{Handle: h, Interpolation: InterpBezier}))
		}
		RecalcHandles(c)
		return c
	}

	t.Run("auto slope", func(t *testing.T) {
		c := build(HandleAuto, ExtrapolateConstant, 0, 3, 6)
		assert.InDelta(t, 2.0, c.Points[1].Control[0].Time, 1e-9)
		assert.InDelta(t, 2.0, c.Points[1].Control[0].Value, 1e-9)
		assert.InDelta(t, 4.0, c.Points[1].Control[2].Value, 1e-9)
	})

	t.Run("constant extrapolation flattens ends", func(t *testing.T) {
		c := build(HandleAuto, ExtrapolateConstant, 0, 3, 6)
		assert.Equal(t, 0.0, c.Points[0].Control[2].Value)
		assert.Equal(t, 6.0, c.Points[2].Control[0].Value)
	})

	t.Run("linear extrapolation keeps end slope", func(t *testing.T) {
		c := build(HandleAuto, ExtrapolateLinear, 0, 3, 6)
		assert.InDelta(t, 1.0, c.Points[0].Control[2].Value, 1e-9)
	})

	t.Run("auto clamped flat at extremum", func(t *testing.T) {
		c := build(HandleAutoClamped, ExtrapolateConstant, 0, 3, 0)
		assert.Equal(t, 3.0, c.Points[1].Control[0].Value)
		assert.Equal(t, 3.0, c.Points[1].Control[2].Value)
	})

	t.Run("auto clamped never overshoots", func(t *testing.T) {
		c := build(HandleAutoClamped, ExtrapolateConstant, 0, 0.1, 10)
		assert.GreaterOrEqual(t, c.Points[1].Control[0].Value, -1e-9)
	})

	t.Run("vector", func(t *testing.T) {
		c := build(HandleVector, ExtrapolateConstant, 0, 3, 0)
		assert.InDelta(t, 2.0, c.Points[1].Control[0].Time, 1e-9)
		assert.InDelta(t, 2.0, c.Points[1].Control[0].Value, 1e-9)
		assert.InDelta(t, 4.0, c.Points[1].Control[2].Time, 1e-9)
		assert.InDelta(t, 2.0, c.Points[1].Control[2].Value, 1e-9)
	})

	t.Run("handle times clamped", func(t *testing.T) {
		c := NewCurve("x", 0)
		c.Points = []Point{{
			Control:     [3]Vec2{{Time: 2, Value: 0}, {Time: 1, Value: 0}, {Time: 0, Value: 0}},
			HandleLeft:  HandleFree,
			HandleRight: HandleFree,
		}}
		RecalcHandles(c)
		assert.Equal(t, 1.0, c.Points[0].Control[0].Time)
		assert.Equal(t, 1.0, c.Points[0].Control[2].Time)
	})
}

func TestAssertSorted_Panics(t *testing.T) {
	c := NewCurve("x", 0)
	c.Points = keysAt(5, 1)
	assert.Panics(t, func() { AssertSorted(c) })

	c.Points = keysAt(1, 5)
	assert.NotPanics(t, func() { AssertSorted(c) })
}

func TestParseNames(t *testing.T) {
	h, err := ParseHandleType("auto_clamped")
	require.NoError(t, err)
	assert.Equal(t, HandleAutoClamped, h)

	i, err := ParseInterpolation("linear")
	require.NoError(t, err)
	assert.Equal(t, InterpLinear, i)

	k, err := ParseKeyType("")
	require.NoError(t, err)
	assert.Equal(t, KeyKeyframe, k)

	_, err = ParseKeyType("bogus")
	assert.Error(t, err)
	assert.Equal(t, "breakdown", KeyBreakdown.String())
}
