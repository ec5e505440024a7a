// Package geom holds the tessellated mesh model consumed by the span builder.
package geom

import "github.com/go-gl/mathgl/mgl32"

// Vertex is a mesh vertex shared by every face that references it.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// Face is a triangle or quad. Corner attributes live in the mesh layers,
// indexed by the face's position in Mesh.Faces.
type Face struct {
	Verts    []int // 3 or 4 indices into Mesh.Vertices
	Material int   // material slot
	Smooth   bool
	// Normal is the flat-shading normal. A zero normal is derived from the
	// first three corners.
	Normal mgl32.Vec3
}

// UVLayer holds one UV channel: per face, one coordinate per corner.
type UVLayer struct {
	Name string
	Data [][]mgl32.Vec2
}

// ColorLayer holds one colour channel: per face, one RGB per corner.
type ColorLayer struct {
	Name string
	Data [][]mgl32.Vec3
}

// Mesh is the tessellated geometry of one object.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    []Face
	UVs      []UVLayer
	Colors   []ColorLayer
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns inverted bounds ready for Extend.
func EmptyBounds() Bounds {
	return Bounds{
		Min: mgl32.Vec3{1e30, 1e30, 1e30},
		Max: mgl32.Vec3{-1e30, -1e30, -1e30},
	}
}

// Extend grows the box to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Union grows the box to contain o.
func (b *Bounds) Union(o Bounds) {
	if o.IsEmpty() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// IsEmpty reports whether nothing was added to the box.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0]
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the eight corners of the box.
func (b Bounds) Corners() [8]mgl32.Vec3 {
	var c [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[i][axis] = b.Max[axis]
			} else {
				c[i][axis] = b.Min[axis]
			}
		}
	}
	return c
}

// Transform returns the box enclosing b transformed by m.
func (b Bounds) Transform(m mgl32.Mat4) Bounds {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBounds()
	for _, c := range b.Corners() {
		out.Extend(mgl32.TransformCoordinate(c, m))
	}
	return out
}
