package nla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrip_ToLocal(t *testing.T) {
	tests := []struct {
		name   string
		strip  Strip
		global float64
		want   float64
	}{
		{
			name:   "offset strip",
			strip:  Strip{Start: -10, End: 990, ActionStart: 0, ActionEnd: 1000, Scale: 1},
			global: 1,
			want:   11,
		},
		{
			name:   "scaled strip",
			strip:  Strip{Start: 100, End: 300, ActionStart: 0, ActionEnd: 100, Scale: 2},
			global: 150,
			want:   25,
		},
		{
			name:   "negative authored scale",
			strip:  Strip{Start: 0, End: 50, ActionStart: 10, ActionEnd: 110, Scale: -0.5},
			global: 20,
			want:   50,
		},
		{
			name:   "derived scale from repeat",
			strip:  Strip{Start: 0, End: 400, ActionStart: 0, ActionEnd: 100, Repeat: 2},
			global: 100,
			want:   50,
		},
		{
			name:   "reversed",
			strip:  Strip{Start: 0, End: 100, ActionStart: 0, ActionEnd: 100, Scale: 1, Reversed: true},
			global: 30,
			want:   70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.strip.ToLocal(tt.global)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, tt.global, tt.strip.ToGlobal(got), 1e-9, "map inverts unmap")
		})
	}
}

func TestStrip_EffectiveScale(t *testing.T) {
	assert.Equal(t, 3.0, (&Strip{Scale: 3}).EffectiveScale())
	assert.Equal(t, 2.0, (&Strip{Start: 0, End: 200, ActionStart: 0, ActionEnd: 100}).EffectiveScale())
	assert.Equal(t, 1.0, (&Strip{Start: 5, End: 5, ActionStart: 0, ActionEnd: 100}).EffectiveScale())
	assert.Equal(t, 1.0, (&Strip{Start: 0, End: 10, ActionStart: 4, ActionEnd: 4}).EffectiveScale())
}

func TestStack_RemapToLocal(t *testing.T) {
	strip := &Strip{Start: -10, End: 990, ActionStart: 0, ActionEnd: 1000, Scale: 1}

	var nilStack *Stack
	assert.Equal(t, 7.0, nilStack.RemapToLocal(7))

	st := &Stack{}
	assert.Equal(t, 7.0, st.RemapToLocal(7), "no tweak strip")

	st.Tweak = strip
	assert.Equal(t, 11.0, st.RemapToLocal(1))
	assert.Equal(t, 1.0, st.RemapToGlobal(11))

	st.Disabled = true
	assert.Equal(t, 1.0, st.RemapToLocal(1), "evaluation disabled")
	assert.Nil(t, st.ActiveStrip())
}

func TestBlendMode(t *testing.T) {
	b, err := ParseBlendMode("combine")
	require.NoError(t, err)
	assert.Equal(t, BlendCombine, b)
	assert.True(t, b.GroupsQuaternions())
	assert.True(t, BlendReplace.GroupsQuaternions())
	assert.False(t, BlendAdd.GroupsQuaternions())

	b, err = ParseBlendMode("")
	require.NoError(t, err)
	assert.Equal(t, BlendReplace, b)

	_, err = ParseBlendMode("screen")
	assert.Error(t, err)
	assert.Equal(t, "multiply", BlendMultiply.String())
}
