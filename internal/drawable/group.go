// Package drawable groups geometry spans into drawables per location and
// sort policy.
package drawable

import (
	"errors"
	"fmt"

	"github.com/Faultbox/spanbatch/internal/render"
	"github.com/Faultbox/spanbatch/internal/span"
)

// ErrConsistency marks programmer errors. They are never recoverable.
var ErrConsistency = errors.New("drawable consistency error")

// Consistency errors.
var (
	ErrGroupFinalized   = fmt.Errorf("%w: group already finalized", ErrConsistency)
	ErrAlreadyFinalized = fmt.Errorf("%w: registry already finalized", ErrConsistency)
	ErrDuplicateGroupID = fmt.Errorf("%w: group id collision", ErrConsistency)
	ErrNilSpan          = fmt.Errorf("%w: nil span", ErrConsistency)
	ErrBadDIIndex       = fmt.Errorf("%w: span index out of range", ErrConsistency)
)

// Location is a spatial partition handle. Implementations must be
// comparable; String must be unique per location.
type Location interface {
	String() string
}

// GroupID names a group. It depends only on location, level and criteria,
// so unchanged content exports to the same ids.
type GroupID string

// GroupName returns the id of the group for loc and crit:
// <location>_<level:08X>_<criteria:X><Spans|BlendSpans>.
func GroupName(loc Location, crit render.Criteria) GroupID {
	return GroupID(fmt.Sprintf("%s_%08X_%X%s", loc, crit.Level.Packed(), crit.Bits(), crit.SpanType()))
}

// State is the lifecycle state of a group.
type State int

const (
	StateOpen State = iota
	StateFinalized
)

func (s State) String() string {
	if s == StateFinalized {
		return "Finalized"
	}
	return "Open"
}

// Prop is a drawable property bit.
type Prop uint32

const (
	PropSortFaces Prop = 1 << iota
	PropSortSpans
)

// Group is a drawable: spans sharing a location and criteria.
type Group struct {
	ID       GroupID
	Location Location
	Criteria render.Criteria
	Props    Prop

	Spans []*span.GeometrySpan
	// DIIndices holds the draw-interface span index lists, one per object
	// drawing from this group.
	DIIndices [][]int

	state State
}

func newGroup(id GroupID, loc Location, crit render.Criteria) *Group {
	g := &Group{ID: id, Location: loc, Criteria: crit}
	if crit.SortFaces {
		g.Props |= PropSortFaces
	}
	if crit.SortSpans {
		g.Props |= PropSortSpans
	}
	return g
}

// State returns the lifecycle state.
func (g *Group) State() State {
	return g.state
}

// RenderLevel returns the packed render level.
func (g *Group) RenderLevel() uint32 {
	return g.Criteria.Level.Packed()
}

func (g *Group) addSpan(s *span.GeometrySpan) (int, error) {
	if g.state != StateOpen {
		return 0, fmt.Errorf("%w: %s", ErrGroupFinalized, g.ID)
	}
	g.Spans = append(g.Spans, s)
	return len(g.Spans) - 1, nil
}

// AddDIIndex registers the span indices one object draws from this group
// and returns the index of that list.
func (g *Group) AddDIIndex(indices []int) (int, error) {
	if g.state != StateOpen {
		return 0, fmt.Errorf("%w: %s", ErrGroupFinalized, g.ID)
	}
	for _, i := range indices {
		if i < 0 || i >= len(g.Spans) {
			return 0, fmt.Errorf("%w: %d in %s", ErrBadDIIndex, i, g.ID)
		}
	}
	g.DIIndices = append(g.DIIndices, append([]int(nil), indices...))
	return len(g.DIIndices) - 1, nil
}

// finalize composes the group once. Later calls do nothing.
func (g *Group) finalize(c SpanCompiler) bool {
	if g.state == StateFinalized {
		return false
	}
	c.Compose(g)
	g.state = StateFinalized
	return true
}
