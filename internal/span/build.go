package span

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/spanbatch/internal/geom"
)

// UVChannel indexes a UV layer of a mesh.
type UVChannel int

// NoChannel means the object has no bump layer.
const NoChannel UVChannel = -1

// Assignment is the resolved material of one material slot.
type Assignment struct {
	Key              MaterialKey
	RequiresBlending bool
	NonPreshadedLit  bool
	DiffuseFoldedIn  bool
	NoShadow         bool
	PassIndex        int
	// BumpUV is the UV channel of the material's bump layer, or NoChannel.
	BumpUV UVChannel
	// VertexTint multiplies every vertex colour, alpha included. Nil leaves
	// colours untouched.
	VertexTint *mgl32.Vec4
}

// Assignments maps material slots to resolved materials. Faces whose slot
// is missing are skipped.
type Assignments map[int]Assignment

// BuildOptions contains options for span building.
type BuildOptions struct {
	// Object names the owner in errors.
	Object string
	// Bump is the UV channel used for bump gradients, or NoChannel.
	Bump UVChannel
	// Lightmapped reserves one user UV channel for the lightmap and disables
	// the autocolor layer.
	Lightmapped bool
}

// cornerKey identifies an output vertex within one span.
type cornerKey struct {
	vertex int
	color  Color32
	uvs    [UVCountMask]mgl32.Vec2
}

type geoData struct {
	span   *GeometrySpan
	lookup map[cornerKey]int
}

// Build converts the faces of mesh into one span per used material slot.
// Faces are visited in order, so vertex and index order is deterministic.
func Build(mesh *geom.Mesh, mats Assignments, opts BuildOptions) (map[int]*GeometrySpan, error) {
	bumped := opts.Bump != NoChannel && int(opts.Bump) < len(mesh.UVs)
	numUVs := len(mesh.UVs)
	format, err := uvFormat(mesh, mats, opts, bumped)
	if err != nil {
		return nil, err
	}

	colorLayer, alphaLayer := mesh.PickColorLayers(opts.Lightmapped)

	spans := make(map[int]*geoData)
	for fi := range mesh.Faces {
		face := &mesh.Faces[fi]
		mat, ok := mats[face.Material]
		if !ok {
			continue
		}
		data := spans[face.Material]
		if data == nil {
			data = &geoData{
				span: &GeometrySpan{
					Object:   opts.Object,
					Material: mat.Key,
					Format:   format,
					Bumped:   bumped,
				},
				lookup: make(map[cornerKey]int),
			}
			spans[face.Material] = data
		}

		var dPosDu, dPosDv mgl32.Vec3
		if bumped {
			layer := mesh.UVs[opts.Bump].Data[fi]
			dPosDu, dPosDv = faceGradients(triangulate(len(face.Verts)),
				func(c int) mgl32.Vec3 { return mesh.Vertices[face.Verts[c]].Position },
				func(c int) mgl32.Vec2 { return layer[c] })
		}

		var faceNormal mgl32.Vec3
		if !face.Smooth {
			faceNormal = mesh.FaceNormal(fi)
		}

		slots := make([]int, len(face.Verts))
		for j, vid := range face.Verts {
			key := cornerKey{
				vertex: vid,
				color:  cornerColor(colorLayer, alphaLayer, fi, j, tintOf(mat)),
			}
			for l := 0; l < numUVs; l++ {
				key.uvs[l] = mesh.UVs[l].Data[fi][j]
			}

			slot, found := data.lookup[key]
			if !found {
				s := data.span
				if len(s.Vertices) == MaxVertices {
					return nil, &TooManyVerticesError{
						Object:   opts.Object,
						Material: materialName(mat.Key),
						Count:    len(s.Vertices) + 1,
					}
				}

				normal := faceNormal
				if face.Smooth {
					normal = mesh.Vertices[vid].Normal
				}

				uvws := make([]mgl32.Vec3, format.UVCount())
				for l := 0; l < numUVs; l++ {
					uv := key.uvs[l]
					uvws[l] = mgl32.Vec3{uv[0], 1 - uv[1], 0}
				}

				slot = len(s.Vertices)
				s.Vertices = append(s.Vertices, Vertex{
					Position: mesh.Vertices[vid].Position,
					Normal:   clampNormal(normal),
					Color:    key.color,
					UVWs:     uvws,
				})
				data.lookup[key] = slot
			}
			if bumped {
				data.span.AccumulateGradients(slot, dPosDu, dPosDv)
			}
			slots[j] = slot
		}

		for _, t := range triangulate(len(slots)) {
			data.span.Indices = append(data.span.Indices,
				uint16(slots[t[0]]), uint16(slots[t[1]]), uint16(slots[t[2]]))
		}
	}

	out := make(map[int]*GeometrySpan, len(spans))
	for slot, data := range spans {
		data.span.NormalizeGradients()
		data.span.updateBounds()
		out[slot] = data.span
	}
	return out, nil
}

var (
	triFan  = [][3]int{{0, 1, 2}}
	quadFan = [][3]int{{0, 1, 2}, {0, 2, 3}}
)

// triangulate returns corner triples for a face with n corners. Quads split
// along the 0-2 diagonal.
func triangulate(n int) [][3]int {
	if n == 4 {
		return quadFan
	}
	return triFan
}

// uvFormat checks the UV budget against the first used material, which is
// the one named when it is exceeded.
func uvFormat(mesh *geom.Mesh, mats Assignments, opts BuildOptions, bumped bool) (Format, error) {
	user := len(mesh.UVs)
	total := user
	maxUser := UVCountMask
	if bumped {
		total += BumpChannels
		maxUser -= BumpChannels
	}
	if opts.Lightmapped {
		// the lightmap layer is one of the mesh layers
		if user > 0 {
			user--
		}
		maxUser--
	}
	if total > UVCountMask {
		material := ""
		for _, slot := range mesh.UsedSlots() {
			if mat, ok := mats[slot]; ok {
				material = materialName(mat.Key)
				break
			}
		}
		return 0, &TooManyUVChannelsError{
			Object:   opts.Object,
			Material: material,
			Count:    user,
			Max:      maxUser,
		}
	}
	return Format(total), nil
}

// cornerColor tints the corner colour and quantizes it to 8 bits.
func cornerColor(color, alpha *geom.ColorLayer, face, corner int, tint mgl32.Vec4) Color32 {
	rgb := mgl32.Vec3{1, 1, 1}
	if color != nil {
		rgb = color.Data[face][corner]
	}
	a := float32(1)
	if alpha != nil {
		c := alpha.Data[face][corner]
		a = (c[0] + c[1] + c[2]) / 3
	}
	return Color32{
		R: quantize(rgb[0] * tint[0]),
		G: quantize(rgb[1] * tint[1]),
		B: quantize(rgb[2] * tint[2]),
		A: quantize(a * tint[3]),
	}
}

func tintOf(a Assignment) mgl32.Vec4 {
	if a.VertexTint == nil {
		return mgl32.Vec4{1, 1, 1, 1}
	}
	return *a.VertexTint
}

func quantize(c float32) uint8 {
	if math32.IsNaN(c) || c <= 0 {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return uint8(c * 255)
}

// clampNormal replaces exactly-zero components by the smallest float of the
// same sign; the runtime rejects normals with a zero component.
func clampNormal(n mgl32.Vec3) mgl32.Vec3 {
	for i := range n {
		if n[i] == 0 {
			n[i] = math32.Copysign(math.SmallestNonzeroFloat32, n[i])
		}
	}
	return n
}

func materialName(k MaterialKey) string {
	if k == nil {
		return ""
	}
	return k.String()
}
