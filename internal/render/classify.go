package render

import (
	"fmt"
	"strings"
)

// Flags are per-object render overrides.
type Flags uint8

const (
	// FlagDrawOpaque draws before other actors and ignores dependencies.
	FlagDrawOpaque Flags = 1 << iota
	// FlagDrawFrameBuffer draws after actors but before blended geometry.
	FlagDrawFrameBuffer
	// FlagDrawNoDefer keeps the span out of the blend spans.
	FlagDrawNoDefer
	// FlagDrawLate draws after all blended geometry.
	FlagDrawLate
	// FlagNoFaceSort disables per-face sorting of blend spans.
	FlagNoFaceSort
	// FlagNoSpanSort disables sorting the span against other spans.
	FlagNoSpanSort
)

var flagNames = []string{"DrawOpaque", "DrawFrameBuffer", "DrawNoDefer", "DrawLate", "NoFaceSort", "NoSpanSort"}

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// String returns the set flags joined by '|'.
func (fl Flags) String() string {
	if fl == 0 {
		return "None"
	}
	var names []string
	for i, name := range flagNames {
		if fl&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Node is one span (or dependency) to classify. After lists the nodes this
// one must draw after.
type Node struct {
	Name             string
	Flags            Flags
	PassIndex        int
	RequiresBlending bool
	After            []*Node
}

func (n *Node) blendSpan() bool {
	return n.RequiresBlending && !n.Flags.Has(FlagDrawNoDefer)
}

func (n *Node) band() Band {
	switch {
	case n.Flags.Has(FlagDrawOpaque):
		return BandOpaque
	case n.Flags.Has(FlagDrawFrameBuffer):
		return BandFrameBuffer
	case n.Flags.Has(FlagDrawLate):
		return BandLate
	case n.blendSpan():
		return BandBlend
	default:
		return BandDefault
	}
}

// Criteria bits stored on drawable groups.
const (
	CritSortSpans uint32 = 0x1
	CritSortFaces uint32 = 0x2
)

// Criteria is the sort policy of a span. Equal criteria share a group.
type Criteria struct {
	BlendSpan bool
	SortFaces bool
	SortSpans bool
	Level     Level
}

// Bits returns the engine criteria bits.
func (c Criteria) Bits() uint32 {
	var bits uint32
	if c.SortFaces {
		bits |= CritSortFaces
	}
	if c.SortSpans {
		bits |= CritSortSpans
	}
	return bits
}

// SpanType returns the group name suffix.
func (c Criteria) SpanType() string {
	if c.BlendSpan {
		return "BlendSpans"
	}
	return "Spans"
}

// DefaultMaxDepth bounds draw-after recursion.
const DefaultMaxDepth = 64

// Classifier computes criteria. It holds no state between calls.
type Classifier struct {
	MaxDepth int
}

// NewClassifier returns a classifier bounding dependency chains at maxDepth.
// Non-positive values use DefaultMaxDepth.
func NewClassifier(maxDepth int) *Classifier {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Classifier{MaxDepth: maxDepth}
}

// Classify returns the criteria of n.
func (c *Classifier) Classify(n *Node) (Criteria, error) {
	level, err := c.Level(n)
	if err != nil {
		return Criteria{}, err
	}
	crit := Criteria{BlendSpan: n.blendSpan(), Level: level}
	if crit.BlendSpan {
		crit.SortFaces = !n.Flags.Has(FlagNoFaceSort)
		crit.SortSpans = !n.Flags.Has(FlagNoSpanSort)
	}
	return crit, nil
}

// Level returns the render level of n.
//
// Without dependencies the level is the node's band with minor 4*pass. With
// dependencies it is at least the highest dependency level, floored at
// FrameBuffer, plus 4 plus 4*pass, so a dependent always draws after
// everything it depends on. DrawOpaque nodes ignore dependencies.
func (c *Classifier) Level(n *Node) (Level, error) {
	return c.level(n, 0, make(map[*Node]Level))
}

func (c *Classifier) level(n *Node, depth int, memo map[*Node]Level) (Level, error) {
	if l, ok := memo[n]; ok {
		return l, nil
	}
	if depth > c.maxDepth() {
		return Level{}, fmt.Errorf("%w: %q at depth %d", ErrDependencyDepth, n.Name, depth)
	}
	if n.PassIndex < 0 {
		return Level{}, fmt.Errorf("%w: %q has %d", ErrNegativePass, n.Name, n.PassIndex)
	}

	passMinor := uint64(n.PassIndex) * PassStep
	own, err := Level{Major: n.band()}.Add(passMinor)
	if err != nil {
		return Level{}, err
	}

	if len(n.After) > 0 && !n.Flags.Has(FlagDrawOpaque) {
		floor := Level{Major: BandFrameBuffer}
		for _, dep := range n.After {
			l, err := c.level(dep, depth+1, memo)
			if err != nil {
				return Level{}, err
			}
			floor = maxLevel(floor, l)
		}
		after, err := floor.Add(PassStep + passMinor)
		if err != nil {
			return Level{}, err
		}
		own = maxLevel(own, after)
	}

	memo[n] = own
	return own, nil
}

func (c *Classifier) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}
