package span

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/spanbatch/internal/geom"
)

type testKey string

func (k testKey) String() string { return string(k) }

func quadMesh() *geom.Mesh {
	return &geom.Mesh{
		Name: "quad",
		Vertices: []geom.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
			{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
			{Position: mgl32.Vec3{1, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}},
			{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}},
		},
		Faces: []geom.Face{
			{Verts: []int{0, 1, 2, 3}, Material: 0, Smooth: true},
		},
		UVs: []geom.UVLayer{{
			Name: "UVMap",
			Data: [][]mgl32.Vec2{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		}},
	}
}

func oneMaterial() Assignments {
	return Assignments{0: {Key: testKey("Stone"), BumpUV: NoChannel}}
}

func TestBuildQuadTriangulation(t *testing.T) {
	spans, err := Build(quadMesh(), oneMaterial(), BuildOptions{Object: "quad", Bump: NoChannel})
	require.NoError(t, err)
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Len(t, s.Vertices, 4)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, s.Indices)
	assert.Equal(t, 2, s.TriangleCount())
	assert.Equal(t, 1, s.Format.UVCount())
}

func TestBuildTriangleCountMatchesFaces(t *testing.T) {
	m := quadMesh()
	m.Vertices = append(m.Vertices, geom.Vertex{Position: mgl32.Vec3{2, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}})
	m.Faces = append(m.Faces, geom.Face{Verts: []int{1, 4, 2}, Material: 0, Smooth: true})
	m.UVs[0].Data = append(m.UVs[0].Data, []mgl32.Vec2{{1, 0}, {2, 0}, {1, 1}})

	spans, err := Build(m, oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)
	assert.Equal(t, m.CountTriangles(), spans[0].TriangleCount())
	assert.Equal(t, 3, spans[0].TriangleCount())
	// vertices 1 and 2 share colour and UVs with the quad corners
	assert.Len(t, spans[0].Vertices, 5)
}

func TestBuildDedupDistinguishesUVs(t *testing.T) {
	m := quadMesh()
	m.Faces = append(m.Faces, geom.Face{Verts: []int{0, 2, 3}, Material: 0, Smooth: true})
	m.UVs[0].Data = append(m.UVs[0].Data, []mgl32.Vec2{{0, 0}, {0.5, 0.5}, {0, 1}})

	spans, err := Build(m, oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)

	s := spans[0]
	// corner 0 and 3 collapse, corner 2 differs by UV
	assert.Len(t, s.Vertices, 5)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3, 0, 4, 3}, s.Indices)
}

func TestBuildDedupDistinguishesColors(t *testing.T) {
	m := quadMesh()
	m.Faces = append(m.Faces, geom.Face{Verts: []int{0, 1, 2}, Material: 0, Smooth: true})
	m.UVs[0].Data = append(m.UVs[0].Data, []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}})
	m.Colors = []geom.ColorLayer{{
		Name: "Col",
		Data: [][]mgl32.Vec3{
			{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
			{{1, 0, 0}, {1, 1, 1}, {1, 1, 1}},
		},
	}}

	spans, err := Build(m, oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)

	s := spans[0]
	assert.Len(t, s.Vertices, 5)
	assert.Equal(t, []uint16{4, 1, 2}, s.Indices[6:])
	assert.Equal(t, Color32{255, 0, 0, 255}, s.Vertices[4].Color)
}

func TestBuildVertexColorTintAndAlpha(t *testing.T) {
	m := quadMesh()
	m.Colors = []geom.ColorLayer{
		{Name: "alpha", Data: [][]mgl32.Vec3{{{0, 0, 0}, {1, 1, 1}, {0.5, 0.5, 0.5}, {1, 1, 1}}}},
	}
	mats := Assignments{0: {Key: testKey("Tinted"), BumpUV: NoChannel, VertexTint: &mgl32.Vec4{1, 0.5, 0, 1}}}

	spans, err := Build(m, mats, BuildOptions{Bump: NoChannel})
	require.NoError(t, err)

	v := spans[0].Vertices
	assert.Equal(t, Color32{255, 127, 0, 0}, v[0].Color)
	assert.Equal(t, Color32{255, 127, 0, 255}, v[1].Color)
	assert.Equal(t, Color32{255, 127, 0, 127}, v[2].Color)
}

func TestBuildZeroTintBlackensVertices(t *testing.T) {
	mats := Assignments{0: {Key: testKey("Void"), BumpUV: NoChannel, VertexTint: &mgl32.Vec4{}}}

	spans, err := Build(quadMesh(), mats, BuildOptions{Bump: NoChannel})
	require.NoError(t, err)
	for _, v := range spans[0].Vertices {
		assert.Equal(t, Color32{}, v.Color)
	}

	spans, err = Build(quadMesh(), oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)
	assert.Equal(t, Color32{255, 255, 255, 255}, spans[0].Vertices[0].Color, "no tint")
}

func TestBuildLastColorLayerWins(t *testing.T) {
	m := quadMesh()
	red := []mgl32.Vec3{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}}
	blue := []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	m.Colors = []geom.ColorLayer{
		{Name: "Col", Data: [][]mgl32.Vec3{red}},
		{Name: "Color", Data: [][]mgl32.Vec3{blue}},
	}

	spans, err := Build(m, oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)
	for _, v := range spans[0].Vertices {
		assert.Equal(t, Color32{0, 0, 255, 255}, v.Color)
	}
}

func TestBuildFlipsV(t *testing.T) {
	spans, err := Build(quadMesh(), oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)

	v := spans[0].Vertices
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, v[0].UVWs[0])
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, v[2].UVWs[0])
}

func TestBuildClampsZeroNormals(t *testing.T) {
	spans, err := Build(quadMesh(), oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)

	for _, v := range spans[0].Vertices {
		for i := 0; i < 3; i++ {
			assert.NotZero(t, v.Normal[i])
		}
		assert.Equal(t, float32(1), v.Normal[2])
		assert.False(t, math32.Signbit(v.Normal[0]))
	}

	n := clampNormal(mgl32.Vec3{float32(math32.Copysign(0, -1)), 1, 0})
	assert.True(t, math32.Signbit(n[0]))
	assert.NotZero(t, n[0])
}

func TestBuildFlatShadingUsesFaceNormal(t *testing.T) {
	m := quadMesh()
	m.Faces[0].Smooth = false
	m.Faces[0].Normal = mgl32.Vec3{0, 1, 0}
	m.Vertices[0].Normal = mgl32.Vec3{1, 0, 0}

	spans, err := Build(m, oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)
	assert.Equal(t, float32(1), spans[0].Vertices[0].Normal[1])
}

func TestBuildSkipsUnassignedSlots(t *testing.T) {
	m := quadMesh()
	m.Faces[0].Material = 3

	spans, err := Build(m, oneMaterial(), BuildOptions{Bump: NoChannel})
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestBuildSplitsByMaterial(t *testing.T) {
	m := quadMesh()
	m.Faces = append(m.Faces, geom.Face{Verts: []int{0, 1, 2}, Material: 1, Smooth: true})
	m.UVs[0].Data = append(m.UVs[0].Data, []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}})
	mats := Assignments{
		0: {Key: testKey("A"), BumpUV: NoChannel},
		1: {Key: testKey("B"), BumpUV: NoChannel},
	}

	spans, err := Build(m, mats, BuildOptions{Bump: NoChannel})
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, testKey("B"), spans[1].Material)
	assert.Equal(t, []uint16{0, 1, 2}, spans[1].Indices)
}

// stripMesh returns a mesh whose faces reference n distinct vertices.
func stripMesh(n int) *geom.Mesh {
	m := &geom.Mesh{Name: "strip"}
	for i := 0; i < n; i++ {
		m.Vertices = append(m.Vertices, geom.Vertex{
			Position: mgl32.Vec3{float32(i), 0, 0},
			Normal:   mgl32.Vec3{0, 0, 1},
		})
	}
	for i := 0; i+2 < n; i += 3 {
		m.Faces = append(m.Faces, geom.Face{Verts: []int{i, i + 1, i + 2}, Smooth: true})
	}
	if rest := n % 3; rest != 0 {
		f := geom.Face{Smooth: true}
		for i := n - rest; i < n; i++ {
			f.Verts = append(f.Verts, i)
		}
		for len(f.Verts) < 3 {
			f.Verts = append(f.Verts, 0)
		}
		m.Faces = append(m.Faces, f)
	}
	return m
}

func TestBuildVertexCeiling(t *testing.T) {
	spans, err := Build(stripMesh(MaxVertices), oneMaterial(), BuildOptions{Object: "strip", Bump: NoChannel})
	require.NoError(t, err)
	assert.Len(t, spans[0].Vertices, MaxVertices)

	_, err = Build(stripMesh(MaxVertices+1), oneMaterial(), BuildOptions{Object: "strip", Bump: NoChannel})
	require.Error(t, err)
	var tooMany *TooManyVerticesError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, "strip", tooMany.Object)
	assert.Equal(t, "Stone", tooMany.Material)
	assert.True(t, IsCapacityError(err))
}

func TestBuildTooManyUVChannels(t *testing.T) {
	m := quadMesh()
	for len(m.UVs) < 14 {
		m.UVs = append(m.UVs, m.UVs[0])
	}

	_, err := Build(m, oneMaterial(), BuildOptions{Object: "quad", Bump: NoChannel})
	require.NoError(t, err)

	_, err = Build(m, oneMaterial(), BuildOptions{Object: "quad", Bump: 0})
	var tooMany *TooManyUVChannelsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 14, tooMany.Count)
	assert.Equal(t, UVCountMask-BumpChannels, tooMany.Max)
	assert.Equal(t, "Stone", tooMany.Material)
}

func TestBuildBumpGradients(t *testing.T) {
	spans, err := Build(quadMesh(), oneMaterial(), BuildOptions{Bump: 0})
	require.NoError(t, err)

	s := spans[0]
	require.True(t, s.Bumped)
	assert.Equal(t, 3, s.Format.UVCount())
	for _, v := range s.Vertices {
		require.Len(t, v.UVWs, 3)
		du, dv := v.UVWs[1], v.UVWs[2]
		assert.InDelta(t, 1, du.Len(), 1e-5)
		assert.InDelta(t, 1, dv.Len(), 1e-5)
		assert.InDelta(t, 1, du[0], 1e-5)
		assert.InDelta(t, -1, dv[1], 1e-5)
	}
}

func TestBuildDeterministic(t *testing.T) {
	m := quadMesh()
	m.Faces = append(m.Faces, geom.Face{Verts: []int{0, 2, 3}, Material: 0, Smooth: false})
	m.UVs[0].Data = append(m.UVs[0].Data, []mgl32.Vec2{{0, 0}, {0.5, 0.5}, {0, 1}})

	a, err := Build(m, oneMaterial(), BuildOptions{Bump: 0})
	require.NoError(t, err)
	b, err := Build(m, oneMaterial(), BuildOptions{Bump: 0})
	require.NoError(t, err)
	assert.Equal(t, a[0].Vertices, b[0].Vertices)
	assert.Equal(t, a[0].Indices, b[0].Indices)
}

func TestPropString(t *testing.T) {
	assert.Equal(t, "None", Prop(0).String())
	assert.Equal(t, "RequiresBlending|NoShadow", (PropRequiresBlending | PropNoShadow).String())
	assert.True(t, (PropWaterHeight | PropReverseSort).Has(PropReverseSort))
}
