package scene

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/Faultbox/spanbatch/internal/export"
	"github.com/Faultbox/spanbatch/internal/span"
)

// Material is a named material key.
type Material struct {
	Name string
	Def  MaterialDef
}

func (m *Material) String() string { return m.Name }

// MaterialTable resolves material slots from the scene's per-object slot
// lists. It implements export.MaterialResolver.
type MaterialTable struct {
	byName map[string]*Material
	slots  map[*export.Object][]*Material
}

func newMaterialTable(defs map[string]MaterialDef) *MaterialTable {
	t := &MaterialTable{
		byName: make(map[string]*Material, len(defs)),
		slots:  make(map[*export.Object][]*Material),
	}
	for name, def := range defs {
		t.byName[name] = &Material{Name: name, Def: def}
	}
	return t
}

// Lookup returns the named material, or nil.
func (t *MaterialTable) Lookup(name string) *Material {
	return t.byName[name]
}

func (t *MaterialTable) bind(obj *export.Object, names []string) error {
	slots := make([]*Material, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		m, ok := t.byName[name]
		if !ok {
			return pkgerrors.Wrapf(ErrUnknownMaterial, "slot %d: %q", i, name)
		}
		slots[i] = m
	}
	t.slots[obj] = slots
	return nil
}

// Resolve returns the material in slot of obj. Slots past the object's list
// or left empty have no material.
func (t *MaterialTable) Resolve(obj *export.Object, slot int) (span.Assignment, bool, error) {
	slots := t.slots[obj]
	if slot < 0 || slot >= len(slots) || slots[slot] == nil {
		return span.Assignment{}, false, nil
	}
	m := slots[slot]
	a := span.Assignment{
		Key:              m,
		RequiresBlending: m.Def.Blend,
		NonPreshadedLit:  m.Def.NonPreshaded,
		DiffuseFoldedIn:  m.Def.DiffuseFoldedIn,
		NoShadow:         m.Def.NoShadow,
		PassIndex:        m.Def.Pass,
		BumpUV:           bumpChannel(obj, m.Def.BumpLayer),
	}
	if m.Def.Tint != nil {
		tint := *m.Def.Tint
		a.VertexTint = &tint
	}
	return a, true, nil
}

// bumpChannel returns the index of the UV layer named layer, or NoChannel.
func bumpChannel(obj *export.Object, layer string) span.UVChannel {
	if layer == "" || obj.Mesh == nil {
		return span.NoChannel
	}
	for i, l := range obj.Mesh.UVs {
		if l.Name == layer {
			return span.UVChannel(i)
		}
	}
	return span.NoChannel
}
