package geom

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh validation errors.
var (
	ErrFaceArity     = errors.New("face must have 3 or 4 vertices")
	ErrVertexIndex   = errors.New("face vertex index out of range")
	ErrLayerLength   = errors.New("layer length does not match face count")
	ErrCornerCount   = errors.New("layer corner count does not match face")
	ErrMissingCorner = errors.New("missing corner data")
)

// Validate checks that face indices and layer shapes are consistent.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		if n := len(f.Verts); n != 3 && n != 4 {
			return fmt.Errorf("mesh %q face %d: %w (got %d)", m.Name, i, ErrFaceArity, n)
		}
		for _, vid := range f.Verts {
			if vid < 0 || vid >= len(m.Vertices) {
				return fmt.Errorf("mesh %q face %d: %w (%d)", m.Name, i, ErrVertexIndex, vid)
			}
		}
	}
	for _, l := range m.UVs {
		if len(l.Data) != len(m.Faces) {
			return fmt.Errorf("mesh %q uv layer %q: %w", m.Name, l.Name, ErrLayerLength)
		}
		for i, corners := range l.Data {
			if len(corners) != len(m.Faces[i].Verts) {
				return fmt.Errorf("mesh %q uv layer %q face %d: %w", m.Name, l.Name, i, ErrCornerCount)
			}
		}
	}
	for _, l := range m.Colors {
		if len(l.Data) != len(m.Faces) {
			return fmt.Errorf("mesh %q colour layer %q: %w", m.Name, l.Name, ErrLayerLength)
		}
		for i, corners := range l.Data {
			if len(corners) != len(m.Faces[i].Verts) {
				return fmt.Errorf("mesh %q colour layer %q face %d: %w", m.Name, l.Name, i, ErrCornerCount)
			}
		}
	}
	return nil
}

// FaceNormal returns the face's stored normal, or the normalized cross
// product of its first two edges when none was stored. Degenerate faces get
// +Z.
func (m *Mesh) FaceNormal(i int) mgl32.Vec3 {
	f := &m.Faces[i]
	if f.Normal != (mgl32.Vec3{}) {
		return f.Normal
	}
	v0 := m.Vertices[f.Verts[0]].Position
	v1 := m.Vertices[f.Verts[1]].Position
	v2 := m.Vertices[f.Verts[2]].Position
	n := v1.Sub(v0).Cross(v2.Sub(v0))
	l := n.Len()
	if l < 1e-5 || math32.IsNaN(l) {
		return mgl32.Vec3{0, 0, 1}
	}
	return n.Mul(1 / l)
}

// UsedSlots returns the material slots referenced by at least one face in
// ascending order.
func (m *Mesh) UsedSlots() []int {
	seen := make(map[int]bool)
	var slots []int
	for _, f := range m.Faces {
		if !seen[f.Material] {
			seen[f.Material] = true
			slots = append(slots, f.Material)
		}
	}
	sort.Ints(slots)
	return slots
}

// CountTriangles returns how many triangles the faces tessellate into.
func (m *Mesh) CountTriangles() int {
	total := 0
	for _, f := range m.Faces {
		if len(f.Verts) == 4 {
			total += 2
		} else {
			total++
		}
	}
	return total
}

// Bounds returns the box enclosing every vertex.
func (m *Mesh) Bounds() Bounds {
	b := EmptyBounds()
	for _, v := range m.Vertices {
		b.Extend(v.Position)
	}
	return b
}

var vertexColorNames = map[string]bool{"col": true, "color": true, "colour": true}

// PickColorLayers selects the colour and alpha layers by name. Layers are
// scanned in order and a later layer named col, color or colour replaces an
// earlier pick; the last alpha layer wins. autocolor is only taken while no
// colour layer has been seen and the lightmap is not baked. Either result
// may be nil.
func (m *Mesh) PickColorLayers(lightmapBaked bool) (color, alpha *ColorLayer) {
	for i := range m.Colors {
		l := &m.Colors[i]
		name := strings.ToLower(l.Name)
		switch {
		case vertexColorNames[name]:
			color = l
		case name == "autocolor":
			if color == nil && !lightmapBaked {
				color = l
			}
		case name == "alpha":
			alpha = l
		}
	}
	return color, alpha
}

// SmoothNormals fills every zero vertex normal with the average of the
// normals of the faces using the vertex. Unused vertices get +Z. The mesh
// must be valid.
func (m *Mesh) SmoothNormals() {
	sums := make([]mgl32.Vec3, len(m.Vertices))
	for i, f := range m.Faces {
		n := m.FaceNormal(i)
		for _, vid := range f.Verts {
			sums[vid] = sums[vid].Add(n)
		}
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		if v.Normal != (mgl32.Vec3{}) {
			continue
		}
		if l := sums[i].Len(); l > 1e-5 {
			v.Normal = sums[i].Mul(1 / l)
		} else {
			v.Normal = mgl32.Vec3{0, 0, 1}
		}
	}
}
