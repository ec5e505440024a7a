package span

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Axis selects the UV axis a gradient is taken along.
type Axis int

const (
	AxisU Axis = iota
	AxisV
)

// gradientEpsilon is the UV spread below which an edge counts as degenerate.
const gradientEpsilon = 0.000001

// Gradient returns the derivative of position with respect to the chosen UV
// axis over one triangle, holding the other axis constant.
//
// Edges are tested in the order 0-1, 1-2, 2-0. The first edge whose held
// coordinate does not change yields its raw position difference, oriented
// toward increasing UV. Existing exports depend on this order.
func Gradient(pos [3]mgl32.Vec3, uv [3]mgl32.Vec2, axis Axis) mgl32.Vec3 {
	iUV := int(axis)
	notUV := 1 - iUV
	v0, v1, v2 := pos[0], pos[1], pos[2]
	uv0, uv1, uv2 := uv[0], uv[1], uv[2]

	if math32.Abs(uv0[notUV]-uv1[notUV]) < gradientEpsilon {
		if uv0[iUV]-uv1[iUV] < 0 {
			return v1.Sub(v0)
		}
		return v0.Sub(v1)
	}
	if math32.Abs(uv2[notUV]-uv1[notUV]) < gradientEpsilon {
		if uv2[iUV]-uv1[iUV] < 0 {
			return v1.Sub(v2)
		}
		return v2.Sub(v1)
	}
	if math32.Abs(uv2[notUV]-uv0[notUV]) < gradientEpsilon {
		if uv2[iUV]-uv0[iUV] < 0 {
			return v0.Sub(v2)
		}
		return v2.Sub(v0)
	}

	d01 := 1 / (uv0[notUV] - uv1[notUV])
	v0Mv1 := v0.Sub(v1).Mul(d01)
	v0uv := (uv0[iUV] - uv1[iUV]) * d01

	d21 := 1 / (uv2[notUV] - uv1[notUV])
	v2Mv1 := v2.Sub(v1).Mul(d21)
	v2uv := (uv2[iUV] - uv1[iUV]) * d21

	if v0uv > v2uv {
		return v0Mv1.Sub(v2Mv1)
	}
	return v2Mv1.Sub(v0Mv1)
}

// faceGradients sums the triangle gradients of one face. The V gradient is
// negated to match the flipped V axis of the output UVs.
func faceGradients(tris [][3]int, pos func(int) mgl32.Vec3, uv func(int) mgl32.Vec2) (dPosDu, dPosDv mgl32.Vec3) {
	for _, t := range tris {
		p := [3]mgl32.Vec3{pos(t[0]), pos(t[1]), pos(t[2])}
		c := [3]mgl32.Vec2{uv(t[0]), uv(t[1]), uv(t[2])}
		dPosDu = dPosDu.Add(Gradient(p, c, AxisU))
		dPosDv = dPosDv.Add(Gradient(p, c, AxisV))
	}
	return dPosDu, dPosDv.Mul(-1)
}
