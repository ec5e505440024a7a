// Package compiler packs finalized drawable groups into shared vertex and
// index buffers and builds a space tree over their spans.
package compiler

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/drawable"
	"github.com/Faultbox/spanbatch/internal/geom"
	"github.com/Faultbox/spanbatch/internal/span"
)

// MaxBufferVertices is the vertex limit of one buffer; indices are 16 bit.
const MaxBufferVertices = 0x10000

// Buffer is a vertex/index buffer shared by spans of one format.
type Buffer struct {
	Format   span.Format
	Vertices []span.Vertex
	// Indices are relative to the start of Vertices.
	Indices []uint16
}

// Icicle is a span placed in a buffer.
type Icicle struct {
	Object   string
	Material span.MaterialKey
	Props    span.Prop

	Buffer      int
	BaseVertex  int
	VertexCount int
	BaseIndex   int
	IndexCount  int

	LocalToWorld mgl32.Mat4
	WorldToLocal mgl32.Mat4
	WaterHeight  float32
	// Bumped is set when the last two UVW slots hold gradients.
	Bumped bool

	LocalBounds geom.Bounds
	WorldBounds geom.Bounds
}

// Packed is the compiled form of one drawable group.
type Packed struct {
	ID          drawable.GroupID
	RenderLevel uint32
	Criteria    uint32
	Props       drawable.Prop
	BlendSpan   bool

	Buffers   []*Buffer
	Icicles   []Icicle
	DIIndices [][]int
	Tree      *SpaceTree
	Bounds    geom.Bounds
}

// Packer is the reference span compiler. It keeps every packed group.
type Packer struct {
	log    *zap.Logger
	packed map[drawable.GroupID]*Packed
}

// NewPacker returns an empty packer. log may be nil.
func NewPacker(log *zap.Logger) *Packer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Packer{log: log, packed: make(map[drawable.GroupID]*Packed)}
}

// Compose packs g. Spans keep their order; a span goes to the last buffer
// of its format while it fits, otherwise a new buffer is opened.
func (p *Packer) Compose(g *drawable.Group) {
	out := &Packed{
		ID:          g.ID,
		RenderLevel: g.RenderLevel(),
		Criteria:    g.Criteria.Bits(),
		Props:       g.Props,
		BlendSpan:   g.Criteria.BlendSpan,
		DIIndices:   g.DIIndices,
		Bounds:      geom.EmptyBounds(),
	}

	open := make(map[span.Format]int)
	for _, s := range g.Spans {
		bi, ok := open[s.Format]
		if !ok || len(out.Buffers[bi].Vertices)+len(s.Vertices) > MaxBufferVertices {
			bi = len(out.Buffers)
			out.Buffers = append(out.Buffers, &Buffer{Format: s.Format})
			open[s.Format] = bi
		}
		buf := out.Buffers[bi]

		ic := Icicle{
			Object:       s.Object,
			Material:     s.Material,
			Props:        s.Props,
			Buffer:       bi,
			BaseVertex:   len(buf.Vertices),
			VertexCount:  len(s.Vertices),
			BaseIndex:    len(buf.Indices),
			IndexCount:   len(s.Indices),
			LocalToWorld: s.LocalToWorld,
			WorldToLocal: s.WorldToLocal,
			WaterHeight:  s.WaterHeight,
			Bumped:       s.Bumped,
			LocalBounds:  s.Bounds,
			WorldBounds:  s.Bounds.Transform(s.LocalToWorld),
		}

		buf.Vertices = append(buf.Vertices, s.Vertices...)
		for _, idx := range s.Indices {
			buf.Indices = append(buf.Indices, uint16(ic.BaseVertex+int(idx)))
		}
		out.Bounds.Union(ic.WorldBounds)
		out.Icicles = append(out.Icicles, ic)
	}

	bounds := make([]geom.Bounds, len(out.Icicles))
	for i := range out.Icicles {
		bounds[i] = out.Icicles[i].WorldBounds
	}
	out.Tree = BuildSpaceTree(bounds)

	p.packed[g.ID] = out
	p.log.Debug("packed group",
		zap.String("group", string(g.ID)),
		zap.Int("icicles", len(out.Icicles)),
		zap.Int("buffers", len(out.Buffers)),
		zap.Int("tree_nodes", len(out.Tree.Nodes)))
}

// Group returns the packed form of id, or nil before it was composed.
func (p *Packer) Group(id drawable.GroupID) *Packed {
	return p.packed[id]
}

// Packed returns every packed group ordered by id.
func (p *Packer) Packed() []*Packed {
	out := make([]*Packed, 0, len(p.packed))
	for _, pk := range p.packed {
		out = append(out, pk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
