package span

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func TestGradientDegenerateFirstEdge(t *testing.T) {
	pos := [3]mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 3, 0}}
	uv := [3]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}}

	du := Gradient(pos, uv, AxisU)
	dv := Gradient(pos, uv, AxisV)

	assert.True(t, finite(du))
	assert.True(t, finite(dv))
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, du)
	assert.Equal(t, mgl32.Vec3{0, 3, 0}, dv)
}

func TestGradientEdgePriority(t *testing.T) {
	// edge 0-1 varies in V, so the 1-2 fallback applies before 2-0 is tried
	pos := [3]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {5, 0, 0}}
	uv := [3]mgl32.Vec2{{0, 1}, {1, 0}, {2, 0}}

	got := Gradient(pos, uv, AxisU)
	assert.Equal(t, mgl32.Vec3{4, 0, 0}, got)
}

func TestGradientPointsTowardIncreasingUV(t *testing.T) {
	pos := [3]mgl32.Vec3{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}}
	uv := [3]mgl32.Vec2{{1, 0}, {0, 0}, {0, 1}}

	got := Gradient(pos, uv, AxisU)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, got)
}

func TestGradientGeneralCase(t *testing.T) {
	pos := [3]mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}
	uv := [3]mgl32.Vec2{{0, 0.1}, {1, 0.3}, {0.2, 1}}

	du := Gradient(pos, uv, AxisU)
	dv := Gradient(pos, uv, AxisV)

	assert.True(t, finite(du))
	assert.True(t, finite(dv))
	assert.Greater(t, du[0], float32(0))
	assert.Greater(t, dv[1], float32(0))
}

func TestGradientZeroAreaTriangle(t *testing.T) {
	pos := [3]mgl32.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	uv := [3]mgl32.Vec2{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}

	got := Gradient(pos, uv, AxisV)
	assert.True(t, finite(got))
	assert.Equal(t, mgl32.Vec3{}, got)
}

func TestNormalizeGradientsOnce(t *testing.T) {
	s := &GeometrySpan{
		Bumped:   true,
		Vertices: []Vertex{{UVWs: make([]mgl32.Vec3, 2)}},
	}
	s.AccumulateGradients(0, mgl32.Vec3{3, 0, 0}, mgl32.Vec3{0, 0, 0})
	s.AccumulateGradients(0, mgl32.Vec3{0, 4, 0}, mgl32.Vec3{0, 0, 2})
	s.NormalizeGradients()

	uvws := s.Vertices[0].UVWs
	assert.InDelta(t, 0.6, uvws[0][0], 1e-6)
	assert.InDelta(t, 0.8, uvws[0][1], 1e-6)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, uvws[1])
}
