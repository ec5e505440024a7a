// Package gltfout writes packed drawable groups as glTF documents.
package gltfout

import (
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/compiler"
	"github.com/Faultbox/spanbatch/internal/span"
)

// GroupExtras is stored on the node of each drawable group.
type GroupExtras struct {
	RenderLevel uint32  `json:"render_level"`
	Criteria    uint32  `json:"criteria"`
	BlendSpan   bool    `json:"blend_span"`
	DIIndices   [][]int `json:"di_indices,omitempty"`
}

// SpanExtras is stored on the node of each span.
type SpanExtras struct {
	Props       string  `json:"props"`
	WaterHeight float32 `json:"water_height,omitempty"`
}

type builder struct {
	doc       *gltf.Document
	log       *zap.Logger
	materials map[string]uint32
}

// Build returns a document with one node per group. Each span becomes a
// child node carrying its local-to-world matrix and a single-primitive mesh.
// Gradient slots of bump mapped spans are written as _DPOSDU and _DPOSDV.
func Build(groups []*compiler.Packed, log *zap.Logger) *gltf.Document {
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{
		doc:       gltf.NewDocument(),
		log:       log,
		materials: make(map[string]uint32),
	}
	for _, g := range groups {
		b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, b.group(g))
	}
	return b.doc
}

func (b *builder) group(g *compiler.Packed) uint32 {
	node := &gltf.Node{
		Name: string(g.ID),
		Extras: GroupExtras{
			RenderLevel: g.RenderLevel,
			Criteria:    g.Criteria,
			BlendSpan:   g.BlendSpan,
			DIIndices:   g.DIIndices,
		},
	}
	for i := range g.Icicles {
		node.Children = append(node.Children, b.icicle(g, &g.Icicles[i]))
	}
	b.doc.Nodes = append(b.doc.Nodes, node)
	b.log.Debug("wrote group", zap.String("group", string(g.ID)), zap.Int("spans", len(g.Icicles)))
	return uint32(len(b.doc.Nodes) - 1)
}

func (b *builder) icicle(g *compiler.Packed, ic *compiler.Icicle) uint32 {
	buf := g.Buffers[ic.Buffer]
	verts := buf.Vertices[ic.BaseVertex : ic.BaseVertex+ic.VertexCount]

	positions := make([][3]float32, len(verts))
	normals := make([][3]float32, len(verts))
	colors := make([][4]uint8, len(verts))
	for i, v := range verts {
		positions[i] = v.Position
		normals[i] = v.Normal
		colors[i] = [4]uint8{v.Color.R, v.Color.G, v.Color.B, v.Color.A}
	}

	indices := make([]uint32, ic.IndexCount)
	for i, idx := range buf.Indices[ic.BaseIndex : ic.BaseIndex+ic.IndexCount] {
		indices[i] = uint32(int(idx) - ic.BaseVertex)
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(b.doc, positions),
		"NORMAL":   modeler.WriteNormal(b.doc, normals),
		"COLOR_0":  modeler.WriteColor(b.doc, colors),
	}

	channels := buf.Format.UVCount()
	if ic.Bumped {
		channels -= span.BumpChannels
		attributes["_DPOSDU"] = modeler.WriteNormal(b.doc, uvwColumn(verts, channels))
		attributes["_DPOSDV"] = modeler.WriteNormal(b.doc, uvwColumn(verts, channels+1))
	}
	for c := 0; c < channels; c++ {
		uvs := make([][2]float32, len(verts))
		for i, v := range verts {
			uvs[i] = [2]float32{v.UVWs[c].X(), v.UVWs[c].Y()}
		}
		attributes[fmt.Sprintf("TEXCOORD_%d", c)] = modeler.WriteTextureCoord(b.doc, uvs)
	}

	indicesAccessor := modeler.WriteIndices(b.doc, indices)
	name := ic.Object + ":" + ic.Material.String()
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    &indicesAccessor,
			Attributes: attributes,
			Material:   gltf.Index(b.material(ic)),
		}},
	})

	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
		Name:   name,
		Mesh:   gltf.Index(uint32(len(b.doc.Meshes) - 1)),
		Matrix: ic.LocalToWorld,
		Extras: SpanExtras{Props: ic.Props.String(), WaterHeight: ic.WaterHeight},
	})
	return uint32(len(b.doc.Nodes) - 1)
}

func uvwColumn(verts []span.Vertex, slot int) [][3]float32 {
	out := make([][3]float32, len(verts))
	for i, v := range verts {
		out[i] = v.UVWs[slot]
	}
	return out
}

// material returns the document material of ic, adding it on first use.
// Materials are keyed by name and blend mode.
func (b *builder) material(ic *compiler.Icicle) uint32 {
	blend := ic.Props.Has(span.PropRequiresBlending)
	key := ic.Material.String()
	if blend {
		key += "#blend"
	}
	if idx, ok := b.materials[key]; ok {
		return idx
	}
	m := &gltf.Material{
		Name:        ic.Material.String(),
		DoubleSided: true,
	}
	if blend {
		m.AlphaMode = gltf.AlphaBlend
	}
	idx := uint32(len(b.doc.Materials))
	b.doc.Materials = append(b.doc.Materials, m)
	b.materials[key] = idx
	return idx
}

// Encode writes doc to w, as GLB when binary is set.
func Encode(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		embedBuffers(doc)
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		return pkgerrors.Wrap(err, "encode gltf")
	}
	return nil
}

// Save writes doc to path, as GLB when binary is set.
func Save(path string, doc *gltf.Document, binary bool) error {
	var err error
	if binary {
		err = gltf.SaveBinary(doc, path)
	} else {
		embedBuffers(doc)
		err = gltf.Save(doc, path)
	}
	return pkgerrors.Wrapf(err, "save %s", path)
}

// embedBuffers stores unnamed buffers as data URIs so a .gltf is
// self-contained.
func embedBuffers(doc *gltf.Document) {
	for _, b := range doc.Buffers {
		if b.URI == "" {
			b.EmbeddedResource()
		}
	}
}
