// Package export runs the geometry side of a scene export: it turns mesh
// objects into geometry spans, classifies them and registers them with the
// drawable groups of one session.
package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/spanbatch/internal/drawable"
	"github.com/Faultbox/spanbatch/internal/geom"
	"github.com/Faultbox/spanbatch/internal/render"
	"github.com/Faultbox/spanbatch/internal/span"
)

// Kind is the closed set of object kinds.
type Kind uint8

const (
	KindMesh Kind = iota
	KindEmpty
	KindLamp
	KindCamera
	numKinds
)

var kindNames = [numKinds]string{"mesh", "empty", "lamp", "camera"}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind named s, ignoring case.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Object is one scene object handed to the session.
type Object struct {
	Name string
	Kind Kind
	Mesh *geom.Mesh
	// Matrix is the object's local-to-world transform.
	Matrix mgl32.Mat4
	// HasCoordInterface is set when the object gets its own coordinate
	// interface; its spans then stay in local space with identity transforms.
	HasCoordInterface bool
	Flags             render.Flags

	Lightmapped   bool
	RuntimeLights bool
	WaveSet       bool
	// Clothing meshes are exported as shared meshes.
	Clothing bool

	// DrawAfter names the objects this one must draw after.
	DrawAfter []string
}

// Translation returns the translation of Matrix.
func (o *Object) Translation() mgl32.Vec3 {
	return o.Matrix.Col(3).Vec3()
}

// MaterialResolver resolves the material of one slot. ok is false when the
// slot has no material; its faces are skipped.
type MaterialResolver interface {
	Resolve(obj *Object, slot int) (a span.Assignment, ok bool, err error)
}

// LocationAllocator returns the location an object's drawables live in.
type LocationAllocator interface {
	LocationOf(obj *Object) (drawable.Location, error)
}

// SpanRef is the position of one span in a drawable group.
type SpanRef struct {
	Group drawable.GroupID
	Index int
}

// DrawRef is one entry of an object's draw interface: a group and the DI
// span index the object registered on it.
type DrawRef struct {
	Group   drawable.GroupID
	DIIndex int
}

// Record is what the session produced for one object.
type Record struct {
	Object string
	Kind   Kind
	Spans  []SpanRef
	Draws  []DrawRef
	// Shared is set when the spans went to a shared mesh instead of groups.
	Shared bool
}

// SharedMesh holds the spans of a clothing mesh. It is not drawn directly.
type SharedMesh struct {
	Name  string
	Spans []*span.GeometrySpan
	// DontSaveMorphState is always set on exported shared meshes.
	DontSaveMorphState bool
}
