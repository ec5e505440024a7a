// Package span turns tessellated meshes into deduplicated per-material
// vertex/index buffers.
package span

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/spanbatch/internal/geom"
)

// Capacity limits of a geometry span.
const (
	// UVCountMask is the width of the UV count field in Format.
	UVCountMask = 0xF
	// BumpChannels is the number of trailing UVW slots holding gradients.
	BumpChannels = 2
	// MaxVertices is the deduplicated vertex ceiling per span. The index
	// type allows 0xFFFF but the span compiler corrupts buffers above this.
	MaxVertices = 0x8000
)

// Format describes the vertex layout. Only the UV count is used.
type Format uint8

// UVCount returns the number of UVW slots per vertex.
func (f Format) UVCount() int {
	return int(f & UVCountMask)
}

// Prop is a span property bit.
type Prop uint32

// Span properties.
const (
	PropRequiresBlending Prop = 1 << iota
	PropLiteVtxNonPreshaded
	PropDiffuseFoldedIn
	PropRunTimeLight
	PropNoShadow
	PropForceShadow
	PropReverseSort
	PropWaterHeight
)

var propNames = []string{
	"RequiresBlending",
	"LiteVtxNonPreshaded",
	"DiffuseFoldedIn",
	"RunTimeLight",
	"NoShadow",
	"ForceShadow",
	"ReverseSort",
	"WaterHeight",
}

// Has reports whether all bits of f are set.
func (p Prop) Has(f Prop) bool {
	return p&f == f
}

// String returns the set bits joined by '|'.
func (p Prop) String() string {
	if p == 0 {
		return "None"
	}
	var names []string
	for i, name := range propNames {
		if p&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := p &^ (1<<len(propNames) - 1); rest != 0 {
		names = append(names, fmt.Sprintf("0x%X", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// MaterialKey identifies an exported material. Keys come from the material
// resolver and are compared by identity.
type MaterialKey interface {
	String() string
}

// Color32 is a packed 8-bit RGBA vertex colour.
type Color32 struct {
	R, G, B, A uint8
}

// Packed returns the colour as 0xAARRGGBB.
func (c Color32) Packed() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Vertex is one deduplicated output vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    Color32
	// UVWs holds the user channels followed by the two gradient slots when
	// the span is bump mapped.
	UVWs []mgl32.Vec3
}

// GeometrySpan is the vertex/index buffer of one material on one object.
type GeometrySpan struct {
	Object   string
	Material MaterialKey
	Format   Format
	Props    Prop

	Vertices []Vertex
	Indices  []uint16

	LocalToWorld mgl32.Mat4
	WorldToLocal mgl32.Mat4
	WaterHeight  float32

	// Bumped is set when the last two UVW slots hold gradients.
	Bumped bool
	// Bounds encloses the vertex positions in local space.
	Bounds geom.Bounds
}

// TriangleCount returns the number of triangles in the index list.
func (s *GeometrySpan) TriangleCount() int {
	return len(s.Indices) / 3
}

// SetTransform sets local-to-world and its inverse.
func (s *GeometrySpan) SetTransform(localToWorld mgl32.Mat4) {
	s.LocalToWorld = localToWorld
	s.WorldToLocal = localToWorld.Inv()
}

// AccumulateGradients adds the per-face gradients into the trailing UVW slots
// of vertex slot.
func (s *GeometrySpan) AccumulateGradients(slot int, dPosDu, dPosDv mgl32.Vec3) {
	if !s.Bumped {
		return
	}
	uvws := s.Vertices[slot].UVWs
	n := len(uvws)
	uvws[n-2] = uvws[n-2].Add(dPosDu)
	uvws[n-1] = uvws[n-1].Add(dPosDv)
}

// NormalizeGradients normalizes the gradient slots of every vertex. It must
// run once, after every face has been accumulated.
func (s *GeometrySpan) NormalizeGradients() {
	if !s.Bumped {
		return
	}
	for i := range s.Vertices {
		uvws := s.Vertices[i].UVWs
		n := len(uvws)
		uvws[n-2] = normalizeOrZero(uvws[n-2])
		uvws[n-1] = normalizeOrZero(uvws[n-1])
	}
}

func normalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

func (s *GeometrySpan) updateBounds() {
	s.Bounds = geom.EmptyBounds()
	for _, v := range s.Vertices {
		s.Bounds.Extend(v.Position)
	}
}
