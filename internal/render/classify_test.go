package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		name  string
		node  Node
		band  Band
		blend bool
	}{
		{"opaque default", Node{}, BandDefault, false},
		{"blended", Node{RequiresBlending: true}, BandBlend, true},
		{"draw opaque ignores blending", Node{RequiresBlending: true, Flags: FlagDrawOpaque}, BandOpaque, true},
		{"frame buffer", Node{RequiresBlending: true, Flags: FlagDrawFrameBuffer}, BandFrameBuffer, true},
		{"no defer", Node{RequiresBlending: true, Flags: FlagDrawNoDefer}, BandDefault, false},
		{"late", Node{Flags: FlagDrawLate}, BandLate, false},
	}

	c := NewClassifier(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crit, err := c.Classify(&tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.band, crit.Level.Major)
			assert.Equal(t, tt.blend, crit.BlendSpan)
		})
	}
}

func TestClassifySortPolicies(t *testing.T) {
	c := NewClassifier(0)

	crit, err := c.Classify(&Node{RequiresBlending: true})
	require.NoError(t, err)
	assert.True(t, crit.SortFaces)
	assert.True(t, crit.SortSpans)
	assert.Equal(t, CritSortFaces|CritSortSpans, crit.Bits())
	assert.Equal(t, "BlendSpans", crit.SpanType())

	crit, err = c.Classify(&Node{RequiresBlending: true, Flags: FlagNoFaceSort})
	require.NoError(t, err)
	assert.False(t, crit.SortFaces)
	assert.True(t, crit.SortSpans)

	crit, err = c.Classify(&Node{RequiresBlending: true, Flags: FlagNoFaceSort | FlagNoSpanSort})
	require.NoError(t, err)
	assert.Zero(t, crit.Bits())

	crit, err = c.Classify(&Node{})
	require.NoError(t, err)
	assert.False(t, crit.SortFaces)
	assert.False(t, crit.SortSpans)
	assert.Equal(t, "Spans", crit.SpanType())
}

func TestClassifyPassIndexStep(t *testing.T) {
	c := NewClassifier(0)
	dep := &Node{Name: "A", RequiresBlending: true}

	for _, base := range []Node{
		{},
		{RequiresBlending: true},
		{Flags: FlagDrawFrameBuffer},
		{After: []*Node{dep}},
	} {
		p0, p1 := base, base
		p1.PassIndex = 1

		l0, err := c.Level(&p0)
		require.NoError(t, err)
		l1, err := c.Level(&p1)
		require.NoError(t, err)

		assert.Equal(t, l0.Major, l1.Major)
		assert.Equal(t, l0.Minor+4, l1.Minor)
		assert.True(t, l0.Less(l1))
	}
}

func TestClassifyDependentDrawsAfter(t *testing.T) {
	c := NewClassifier(0)
	a := &Node{Name: "A", RequiresBlending: true}
	b := &Node{Name: "B", After: []*Node{a}}

	la, err := c.Level(a)
	require.NoError(t, err)
	lb, err := c.Level(b)
	require.NoError(t, err)

	assert.Equal(t, BandBlend, la.Major)
	assert.True(t, la.Less(lb), "%s should draw before %s", la, lb)
	assert.Equal(t, Level{Major: BandBlend, Minor: 4}, lb)
}

func TestClassifyDependencyFloorsAtFrameBuffer(t *testing.T) {
	c := NewClassifier(0)
	a := &Node{Name: "A", Flags: FlagDrawOpaque}
	b := &Node{Name: "B", Flags: FlagDrawFrameBuffer, After: []*Node{a}}

	lb, err := c.Level(b)
	require.NoError(t, err)
	assert.Equal(t, Level{Major: BandFrameBuffer, Minor: 4}, lb)
}

func TestClassifyChainDepth(t *testing.T) {
	c := NewClassifier(0)
	a := &Node{Name: "A"}
	b := &Node{Name: "B", After: []*Node{a}}
	d := &Node{Name: "D", After: []*Node{b, a}, PassIndex: 2}

	la, err := c.Level(a)
	require.NoError(t, err)
	lb, err := c.Level(b)
	require.NoError(t, err)
	ld, err := c.Level(d)
	require.NoError(t, err)

	assert.Equal(t, Level{Major: BandDefault}, la)
	assert.Equal(t, Level{Major: BandDefault, Minor: 4}, lb)
	assert.Equal(t, Level{Major: BandDefault, Minor: 16}, ld)
}

func TestClassifyCycleFailsLoudly(t *testing.T) {
	c := NewClassifier(8)
	a := &Node{Name: "A"}
	b := &Node{Name: "B", After: []*Node{a}}
	a.After = []*Node{b}

	_, err := c.Classify(a)
	assert.ErrorIs(t, err, ErrDependencyDepth)
}

func TestClassifyNegativePass(t *testing.T) {
	_, err := NewClassifier(0).Classify(&Node{PassIndex: -1})
	assert.ErrorIs(t, err, ErrNegativePass)
}

func TestClassifyIsPure(t *testing.T) {
	c := NewClassifier(0)
	n := &Node{Name: "N", RequiresBlending: true, PassIndex: 3}

	first, err := c.Classify(n)
	require.NoError(t, err)
	second, err := c.Classify(n)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, n.PassIndex)
}
