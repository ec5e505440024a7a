package export

import (
	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/render"
)

// objectInfo resolves the materials of obj and builds one classification
// node per material. Results are cached for the session, so an object named
// by several dependents is resolved once.
func (s *Session) objectInfo(obj *Object) (*objectInfo, error) {
	if info, ok := s.info[obj]; ok {
		return info, nil
	}

	mats, err := s.materials(obj)
	if err != nil {
		return nil, err
	}
	info := &objectInfo{mats: mats}
	for _, m := range mats {
		info.nodes = append(info.nodes, &render.Node{
			Name:             obj.Name + ":" + materialName(m.Key),
			Flags:            obj.Flags,
			PassIndex:        m.PassIndex,
			RequiresBlending: m.RequiresBlending,
		})
	}

	// Nodes are cached before their dependencies are linked, so a
	// draw-after cycle becomes a cyclic graph the classifier rejects.
	s.info[obj] = info
	after, err := s.dependencyNodes(obj)
	if err != nil {
		delete(s.info, obj)
		return nil, err
	}
	for _, n := range info.nodes {
		n.After = after
	}
	if len(after) > 0 {
		s.log.Debug("resolved draw-after dependencies",
			zap.String("object", obj.Name), zap.Int("nodes", len(after)))
	}
	return info, nil
}

// materials returns the used slots of obj that resolve to a material, in
// slot order. A WaveSet keeps only its first material, on pass 0.
func (s *Session) materials(obj *Object) ([]slotMaterial, error) {
	if obj.Kind != KindMesh || obj.Mesh == nil {
		return nil, nil
	}
	var mats []slotMaterial
	for _, slot := range obj.Mesh.UsedSlots() {
		a, ok, err := s.resolver.Resolve(obj, slot)
		if err != nil {
			return nil, err
		}
		if ok {
			mats = append(mats, slotMaterial{slot: slot, Assignment: a})
		}
	}
	if obj.WaveSet && len(mats) > 0 {
		if len(mats) > 1 {
			s.report.Warn("'%s' is a WaveSet -- only one material is supported", obj.Name)
		}
		mats = mats[:1]
		mats[0].PassIndex = 0
	}
	return mats, nil
}

// dependencyNodes returns the nodes of every material of every object obj
// draws after. Unknown names are reported and ignored.
func (s *Session) dependencyNodes(obj *Object) ([]*render.Node, error) {
	var after []*render.Node
	for _, name := range obj.DrawAfter {
		dep, ok := s.objects[name]
		if !ok {
			s.report.Warn("'%s' draws after unknown object '%s'", obj.Name, name)
			continue
		}
		info, err := s.objectInfo(dep)
		if err != nil {
			return nil, err
		}
		if len(info.nodes) == 0 {
			s.report.Warn("'%s' draws after '%s', which has no drawable geometry", obj.Name, name)
			continue
		}
		after = append(after, info.nodes...)
	}
	return after, nil
}
