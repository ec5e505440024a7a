package drawable

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/render"
	"github.com/Faultbox/spanbatch/internal/span"
)

// SpanCompiler packs the spans of a finalized group into engine buffers.
// It is called exactly once per group.
type SpanCompiler interface {
	Compose(g *Group)
}

// CompilerFunc adapts a function to SpanCompiler.
type CompilerFunc func(g *Group)

// Compose calls f.
func (f CompilerFunc) Compose(g *Group) { f(g) }

type groupKey struct {
	loc  Location
	crit render.Criteria
}

// Registry buckets spans into groups. It belongs to one export session and
// is not safe for concurrent use.
type Registry struct {
	compiler SpanCompiler
	log      *zap.Logger

	groups    map[groupKey]*Group
	byID      map[GroupID]*Group
	finalized bool
}

// NewRegistry returns an empty registry composing groups with compiler.
// A nil compiler only freezes groups.
func NewRegistry(compiler SpanCompiler, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if compiler == nil {
		compiler = CompilerFunc(func(*Group) {})
	}
	return &Registry{
		compiler: compiler,
		log:      log,
		groups:   make(map[groupKey]*Group),
		byID:     make(map[GroupID]*Group),
	}
}

// Add appends s to the group for (loc, crit), creating it on first use, and
// returns the group id and the span's index within the group.
func (r *Registry) Add(loc Location, crit render.Criteria, s *span.GeometrySpan) (GroupID, int, error) {
	if s == nil {
		return "", 0, ErrNilSpan
	}
	g, err := r.findCreate(loc, crit)
	if err != nil {
		return "", 0, err
	}
	idx, err := g.addSpan(s)
	if err != nil {
		return "", 0, err
	}
	return g.ID, idx, nil
}

func (r *Registry) findCreate(loc Location, crit render.Criteria) (*Group, error) {
	key := groupKey{loc: loc, crit: crit}
	if g, ok := r.groups[key]; ok {
		return g, nil
	}
	if r.finalized {
		return nil, ErrAlreadyFinalized
	}

	id := GroupName(loc, crit)
	if other, ok := r.byID[id]; ok {
		return nil, fmt.Errorf("%w: %s used by %v and %v", ErrDuplicateGroupID, id, other.Location, loc)
	}
	g := newGroup(id, loc, crit)
	r.groups[key] = g
	r.byID[id] = g
	r.log.Debug("created drawable group",
		zap.String("group", string(id)),
		zap.Stringer("level", crit.Level),
		zap.Bool("blend", crit.BlendSpan))
	return g, nil
}

// Group returns the group with id, or nil.
func (r *Registry) Group(id GroupID) *Group {
	return r.byID[id]
}

// Groups returns every group ordered by id.
func (r *Registry) Groups() []*Group {
	out := make([]*Group, 0, len(r.byID))
	for _, g := range r.byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of groups.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Finalized reports whether Finalize has run.
func (r *Registry) Finalized() bool {
	return r.finalized
}

// Finalize composes every group once, in id order, and freezes the
// registry. It must run after every object has registered its spans.
func (r *Registry) Finalize() error {
	if r.finalized {
		return ErrAlreadyFinalized
	}
	r.finalized = true

	r.log.Info("finalizing geometry", zap.Int("groups", len(r.byID)))
	for _, g := range r.Groups() {
		if g.finalize(r.compiler) {
			r.log.Info("[DrawableSpans '"+string(g.ID)+"']", zap.Int("spans", len(g.Spans)))
		}
	}
	return nil
}
