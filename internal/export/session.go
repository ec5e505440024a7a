package export

import (
	"errors"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/drawable"
	"github.com/Faultbox/spanbatch/internal/logger"
	"github.com/Faultbox/spanbatch/internal/render"
	"github.com/Faultbox/spanbatch/internal/span"
)

// Session errors.
var (
	ErrUnknownKind     = errors.New("unknown object kind")
	ErrDuplicateObject = errors.New("duplicate object name")
	ErrNoMesh          = errors.New("mesh object has no mesh data")
	ErrFinalized       = errors.New("session already finalized")
	ErrAlreadyExported = errors.New("object already exported")
)

// Options controls a session.
type Options struct {
	// MaxDependencyDepth bounds draw-after chains. Non-positive values use
	// render.DefaultMaxDepth.
	MaxDependencyDepth int
	// SkipFailedObjects reports capacity errors and keeps exporting.
	SkipFailedObjects bool
}

// Session owns every per-export map. Create one per export and drop it when
// the export ends; it is not safe for concurrent use.
type Session struct {
	opts       Options
	resolver   MaterialResolver
	locations  LocationAllocator
	classifier *render.Classifier
	registry   *drawable.Registry
	log        *zap.Logger
	report     *logger.Report

	objects map[string]*Object
	info    map[*Object]*objectInfo
	records map[string]*Record
	shared  map[string]*SharedMesh
}

// NewSession returns a session exporting into a fresh registry. compiler
// and log may be nil.
func NewSession(opts Options, resolver MaterialResolver, locations LocationAllocator,
	compiler drawable.SpanCompiler, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		opts:       opts,
		resolver:   resolver,
		locations:  locations,
		classifier: render.NewClassifier(opts.MaxDependencyDepth),
		registry:   drawable.NewRegistry(compiler, log.Named("drawable")),
		log:        log,
		report:     logger.NewReport(log),
		objects:    make(map[string]*Object),
		info:       make(map[*Object]*objectInfo),
		records:    make(map[string]*Record),
		shared:     make(map[string]*SharedMesh),
	}
}

// Registry returns the session's group registry.
func (s *Session) Registry() *drawable.Registry {
	return s.registry
}

// Report returns the session's export report.
func (s *Session) Report() *logger.Report {
	return s.report
}

// Register makes objects known to the session so they can be named as
// draw-after dependencies. Export registers its arguments itself.
func (s *Session) Register(objs ...*Object) error {
	for _, obj := range objs {
		if other, ok := s.objects[obj.Name]; ok && other != obj {
			return pkgerrors.Wrapf(ErrDuplicateObject, "register %q", obj.Name)
		}
		s.objects[obj.Name] = obj
	}
	return nil
}

// Export registers objs and exports them in order. Capacity errors are
// reported and skipped when SkipFailedObjects is set; every other error
// aborts the export.
func (s *Session) Export(objs []*Object) error {
	if err := s.Register(objs...); err != nil {
		return err
	}
	for _, obj := range objs {
		if _, err := s.ExportObject(obj); err != nil {
			if s.opts.SkipFailedObjects && span.IsCapacityError(err) {
				s.report.Error(err)
				continue
			}
			return err
		}
	}
	return nil
}

// ExportObject exports one object and returns its record.
func (s *Session) ExportObject(obj *Object) (*Record, error) {
	if s.registry.Finalized() {
		return nil, pkgerrors.Wrapf(ErrFinalized, "export %q", obj.Name)
	}
	if obj.Kind >= numKinds {
		return nil, pkgerrors.Wrapf(ErrUnknownKind, "export %q: %s", obj.Name, obj.Kind)
	}
	if _, ok := s.records[obj.Name]; ok {
		return nil, pkgerrors.Wrapf(ErrAlreadyExported, "export %q", obj.Name)
	}
	if err := s.Register(obj); err != nil {
		return nil, err
	}

	rec, err := kindExporters[obj.Kind](s, obj)
	if err != nil {
		return nil, err
	}
	s.records[obj.Name] = rec
	return rec, nil
}

// Finalize composes every drawable group. It must run once, after every
// object has been exported.
func (s *Session) Finalize() error {
	s.report.Msg("Finalizing Geometry")
	if err := s.registry.Finalize(); err != nil {
		return err
	}
	s.log.Info("export finished",
		zap.Int("objects", len(s.records)),
		zap.Int("groups", s.registry.Len()),
		zap.Int("shared_meshes", len(s.shared)),
		zap.Int("warnings", len(s.report.Warnings())),
		zap.Int("errors", len(s.report.Errors())))
	return nil
}

// Record returns the record of the named object, or nil.
func (s *Session) Record(name string) *Record {
	return s.records[name]
}

// Records returns every record ordered by object name.
func (s *Session) Records() []*Record {
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Object < out[j].Object })
	return out
}

// SharedMeshes returns every shared mesh ordered by name.
func (s *Session) SharedMeshes() []*SharedMesh {
	out := make([]*SharedMesh, 0, len(s.shared))
	for _, m := range s.shared {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
