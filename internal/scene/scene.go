// Package scene loads YAML scene descriptions and resolves their materials
// and pages for an export session.
package scene

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/spanbatch/internal/export"
	"github.com/Faultbox/spanbatch/internal/geom"
	"github.com/Faultbox/spanbatch/internal/render"
)

// Scene errors.
var (
	ErrUnknownMesh     = errors.New("unknown mesh")
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownPage     = errors.New("unknown page")
	ErrUnknownFlag     = errors.New("unknown render flag")
	ErrNoPages         = errors.New("scene has no pages")
)

// File is the YAML layout of a scene file.
type File struct {
	Age       string                 `yaml:"age"`
	Pages     []PageDef              `yaml:"pages"`
	Materials map[string]MaterialDef `yaml:"materials"`
	Meshes    map[string]MeshDef     `yaml:"meshes"`
	Objects   []ObjectDef            `yaml:"objects"`
}

// PageDef declares a page. The first page is the default unless another
// sets default.
type PageDef struct {
	Name    string `yaml:"name"`
	Seq     int    `yaml:"seq"`
	Default bool   `yaml:"default"`
}

// MaterialDef is a material as far as geometry export cares.
type MaterialDef struct {
	Blend           bool        `yaml:"blend"`
	Pass            int         `yaml:"pass"`
	NonPreshaded    bool        `yaml:"non_preshaded"`
	DiffuseFoldedIn bool        `yaml:"diffuse_folded_in"`
	NoShadow        bool        `yaml:"no_shadow"`
	BumpLayer       string      `yaml:"bump_layer"` // UV layer name of the bump texture
	Tint            *mgl32.Vec4 `yaml:"tint"`
}

// MeshDef is tessellated mesh data.
type MeshDef struct {
	Vertices []mgl32.Vec3 `yaml:"vertices"`
	Normals  []mgl32.Vec3 `yaml:"normals"` // optional, parallel to vertices
	Faces    []FaceDef    `yaml:"faces"`
	UVs      []UVDef      `yaml:"uvs"`
	Colors   []ColorDef   `yaml:"colors"`
}

// FaceDef is one face of a MeshDef.
type FaceDef struct {
	Verts    []int `yaml:"verts"`
	Material int   `yaml:"material"`
	Smooth   bool  `yaml:"smooth"`
}

// UVDef is a UV layer: per face, one coordinate per corner.
type UVDef struct {
	Name string         `yaml:"name"`
	Data [][]mgl32.Vec2 `yaml:"data"`
}

// ColorDef is a colour layer: per face, one RGB per corner.
type ColorDef struct {
	Name string         `yaml:"name"`
	Data [][]mgl32.Vec3 `yaml:"data"`
}

// ObjectDef places a scene object.
type ObjectDef struct {
	Name      string      `yaml:"name"`
	Kind      string      `yaml:"kind"` // mesh (default), empty, lamp, camera
	Mesh      string      `yaml:"mesh"`
	Page      string      `yaml:"page"`
	Materials []string    `yaml:"materials"` // per slot, "" leaves the slot empty
	Location  mgl32.Vec3  `yaml:"location"`
	Rotation  mgl32.Vec3  `yaml:"rotation"` // XYZ Euler angles in degrees
	Scale     *mgl32.Vec3 `yaml:"scale"`
	Flags     []string    `yaml:"flags"`

	CoordInterface bool     `yaml:"coord_interface"`
	Lightmapped    bool     `yaml:"lightmapped"`
	RuntimeLights  bool     `yaml:"runtime_lights"`
	WaveSet        bool     `yaml:"waveset"`
	Clothing       bool     `yaml:"clothing"`
	DrawAfter      []string `yaml:"draw_after"`
}

// Scene is a loaded scene ready to export.
type Scene struct {
	Age     string
	Objects []*export.Object

	Materials *MaterialTable
	Pages     *PageTable
}

// Load reads and decodes the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read scene")
	}
	sc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "scene %s", path)
	}
	return sc, nil
}

// Decode decodes a scene from r. Unknown keys are errors.
func Decode(r io.Reader) (*Scene, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(err, "decode")
	}
	return f.Build()
}

// Build converts the decoded file into export objects.
func (f *File) Build() (*Scene, error) {
	pages, err := newPageTable(f.Age, f.Pages)
	if err != nil {
		return nil, err
	}
	sc := &Scene{
		Age:       f.Age,
		Materials: newMaterialTable(f.Materials),
		Pages:     pages,
	}

	meshes := make(map[string]*geom.Mesh, len(f.Meshes))
	for name, def := range f.Meshes {
		m, err := def.build(name)
		if err != nil {
			return nil, err
		}
		meshes[name] = m
	}

	for i := range f.Objects {
		def := &f.Objects[i]
		obj, err := sc.buildObject(def, meshes)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "object %q", def.Name)
		}
		sc.Objects = append(sc.Objects, obj)
	}
	return sc, nil
}

func (sc *Scene) buildObject(def *ObjectDef, meshes map[string]*geom.Mesh) (*export.Object, error) {
	kind := export.KindMesh
	if def.Kind != "" {
		k, err := export.ParseKind(def.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	flags, err := parseFlags(def.Flags)
	if err != nil {
		return nil, err
	}

	obj := &export.Object{
		Name:              def.Name,
		Kind:              kind,
		Matrix:            def.matrix(),
		HasCoordInterface: def.CoordInterface,
		Flags:             flags,
		Lightmapped:       def.Lightmapped,
		RuntimeLights:     def.RuntimeLights,
		WaveSet:           def.WaveSet,
		Clothing:          def.Clothing,
		DrawAfter:         def.DrawAfter,
	}
	if kind == export.KindMesh {
		mesh, ok := meshes[def.Mesh]
		if !ok {
			return nil, pkgerrors.Wrapf(ErrUnknownMesh, "%q", def.Mesh)
		}
		obj.Mesh = mesh
	}

	if err := sc.Materials.bind(obj, def.Materials); err != nil {
		return nil, err
	}
	if err := sc.Pages.bind(obj, def.Page); err != nil {
		return nil, err
	}
	return obj, nil
}

// matrix returns translation * rotation(Z, Y, X) * scale.
func (def *ObjectDef) matrix() mgl32.Mat4 {
	scale := mgl32.Vec3{1, 1, 1}
	if def.Scale != nil {
		scale = *def.Scale
	}
	rot := mgl32.AnglesToQuat(
		mgl32.DegToRad(def.Rotation.Z()),
		mgl32.DegToRad(def.Rotation.Y()),
		mgl32.DegToRad(def.Rotation.X()),
		mgl32.ZYX).Mat4()
	return mgl32.Translate3D(def.Location.Elem()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(scale.Elem()))
}

func (def *MeshDef) build(name string) (*geom.Mesh, error) {
	m := &geom.Mesh{Name: name}
	for i, p := range def.Vertices {
		v := geom.Vertex{Position: p}
		if i < len(def.Normals) {
			v.Normal = def.Normals[i]
		}
		m.Vertices = append(m.Vertices, v)
	}
	for _, f := range def.Faces {
		m.Faces = append(m.Faces, geom.Face{Verts: f.Verts, Material: f.Material, Smooth: f.Smooth})
	}
	for _, l := range def.UVs {
		m.UVs = append(m.UVs, geom.UVLayer{Name: l.Name, Data: l.Data})
	}
	for _, l := range def.Colors {
		m.Colors = append(m.Colors, geom.ColorLayer{Name: l.Name, Data: l.Data})
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(def.Normals) < len(def.Vertices) {
		m.SmoothNormals()
	}
	return m, nil
}

var flagsByName = map[string]render.Flags{
	"draw_opaque":       render.FlagDrawOpaque,
	"draw_frame_buffer": render.FlagDrawFrameBuffer,
	"draw_no_defer":     render.FlagDrawNoDefer,
	"draw_late":         render.FlagDrawLate,
	"no_face_sort":      render.FlagNoFaceSort,
	"no_span_sort":      render.FlagNoSpanSort,
}

func parseFlags(names []string) (render.Flags, error) {
	var flags render.Flags
	for _, name := range names {
		f, ok := flagsByName[name]
		if !ok {
			return 0, pkgerrors.Wrapf(ErrUnknownFlag, "%q", name)
		}
		flags |= f
	}
	return flags, nil
}

// SetAge overrides the age name used as page prefix.
func (sc *Scene) SetAge(age string) {
	sc.Age = age
	sc.Pages.SetAge(age)
}
