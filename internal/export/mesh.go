package export

import (
	"github.com/go-gl/mathgl/mgl32"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/drawable"
	"github.com/Faultbox/spanbatch/internal/render"
	"github.com/Faultbox/spanbatch/internal/span"
)

type exportFunc func(s *Session, obj *Object) (*Record, error)

// kindExporters dispatches on Kind. Only meshes produce geometry.
var kindExporters = [numKinds]exportFunc{
	KindMesh:   (*Session).exportMesh,
	KindEmpty:  exportNothing,
	KindLamp:   exportNothing,
	KindCamera: exportNothing,
}

func exportNothing(_ *Session, obj *Object) (*Record, error) {
	return &Record{Object: obj.Name, Kind: obj.Kind}, nil
}

// slotMaterial is a used material slot and its resolved material.
type slotMaterial struct {
	slot int
	span.Assignment
}

// objectInfo caches what the session resolved for one object. nodes is
// parallel to mats.
type objectInfo struct {
	mats  []slotMaterial
	nodes []*render.Node
}

// waveSetProps are forced on the span of a WaveSet.
const waveSetProps = span.PropWaterHeight | span.PropLiteVtxNonPreshaded |
	span.PropReverseSort | span.PropNoShadow

func (s *Session) exportMesh(obj *Object) (*Record, error) {
	if obj.Mesh == nil {
		return nil, pkgerrors.Wrapf(ErrNoMesh, "export %q", obj.Name)
	}
	if err := obj.Mesh.Validate(); err != nil {
		return nil, pkgerrors.Wrapf(err, "export %q", obj.Name)
	}

	info, err := s.objectInfo(obj)
	if err != nil {
		return nil, err
	}
	rec := &Record{Object: obj.Name, Kind: obj.Kind}
	if len(info.mats) == 0 {
		s.log.Debug("no materials with geometry", zap.String("object", obj.Name))
		return rec, nil
	}

	assignments := make(span.Assignments, len(info.mats))
	bump := span.NoChannel
	for _, m := range info.mats {
		assignments[m.slot] = m.Assignment
		if bump == span.NoChannel && m.BumpUV != span.NoChannel {
			bump = m.BumpUV
		}
	}

	spans, err := span.Build(obj.Mesh, assignments, span.BuildOptions{
		Object:      obj.Name,
		Bump:        bump,
		Lightmapped: obj.Lightmapped,
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "export %q", obj.Name)
	}
	for _, m := range info.mats {
		s.decorate(obj, m, spans[m.slot])
	}

	if obj.Clothing {
		s.addShared(obj, info, spans)
		rec.Shared = true
		return rec, nil
	}

	loc, err := s.locations.LocationOf(obj)
	if err != nil {
		return nil, err
	}

	// DI span indices per group, in the order groups were first used.
	var order []drawable.GroupID
	indices := make(map[drawable.GroupID][]int)
	for i, m := range info.mats {
		sp := spans[m.slot]
		crit, err := s.classifier.Classify(info.nodes[i])
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "classify %q", obj.Name)
		}
		id, idx, err := s.registry.Add(loc, crit, sp)
		if err != nil {
			return nil, err
		}
		s.report.Msg("Exported material '%s' geometry into '%s'", materialName(m.Key), id)

		rec.Spans = append(rec.Spans, SpanRef{Group: id, Index: idx})
		if _, ok := indices[id]; !ok {
			order = append(order, id)
		}
		indices[id] = append(indices[id], idx)
	}

	for _, id := range order {
		di, err := s.registry.Group(id).AddDIIndex(indices[id])
		if err != nil {
			return nil, err
		}
		rec.Draws = append(rec.Draws, DrawRef{Group: id, DIIndex: di})
	}
	return rec, nil
}

// decorate sets the object-level properties and transforms of sp.
func (s *Session) decorate(obj *Object, m slotMaterial, sp *span.GeometrySpan) {
	if m.RequiresBlending {
		sp.Props |= span.PropRequiresBlending
	}
	if m.NonPreshadedLit || obj.Lightmapped {
		sp.Props |= span.PropLiteVtxNonPreshaded
	}
	if m.DiffuseFoldedIn {
		sp.Props |= span.PropDiffuseFoldedIn
	}
	if obj.RuntimeLights {
		sp.Props |= span.PropRunTimeLight
	}
	if m.NoShadow {
		sp.Props |= span.PropNoShadow
	}
	if obj.WaveSet {
		sp.Props |= waveSetProps
		sp.WaterHeight = obj.Translation().Z()
	}

	if obj.HasCoordInterface {
		sp.SetTransform(mgl32.Ident4())
	} else {
		sp.SetTransform(obj.Matrix)
	}
}

func (s *Session) addShared(obj *Object, info *objectInfo, spans map[int]*span.GeometrySpan) {
	shared := s.shared[obj.Name]
	if shared == nil {
		shared = &SharedMesh{Name: obj.Name, DontSaveMorphState: true}
		s.shared[obj.Name] = shared
	}
	for _, m := range info.mats {
		sp := spans[m.slot]
		sp.Props |= span.PropRequiresBlending | span.PropForceShadow
		shared.Spans = append(shared.Spans, sp)
	}
	s.log.Debug("exported shared mesh", zap.String("object", obj.Name), zap.Int("spans", len(shared.Spans)))
}

func materialName(k span.MaterialKey) string {
	if k == nil {
		return ""
	}
	return k.String()
}
