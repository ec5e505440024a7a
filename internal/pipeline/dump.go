package pipeline

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/spanbatch/internal/drawable"
	"github.com/Faultbox/spanbatch/internal/export"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

// GroupSummary is the dump form of a drawable group.
type GroupSummary struct {
	ID        drawable.GroupID
	Level     string
	Criteria  uint32
	Spans     []string
	DIIndices [][]int
}

// SharedSummary is the dump form of a shared mesh.
type SharedSummary struct {
	Name  string
	Spans []string
}

// Summarize lists the groups of s ordered by id.
func Summarize(s *export.Session) []GroupSummary {
	var out []GroupSummary
	for _, g := range s.Registry().Groups() {
		sum := GroupSummary{
			ID:        g.ID,
			Level:     g.Criteria.Level.String(),
			Criteria:  g.Criteria.Bits(),
			DIIndices: g.DIIndices,
		}
		for _, sp := range g.Spans {
			sum.Spans = append(sum.Spans, fmt.Sprintf("%s:%s (%d verts, %d tris, %s)",
				sp.Object, sp.Material, len(sp.Vertices), sp.TriangleCount(), sp.Props))
		}
		out = append(out, sum)
	}
	return out
}

// Dump writes the records, groups and shared meshes of res to w.
func Dump(w io.Writer, res *Result) {
	s := res.Session
	var shared []SharedSummary
	for _, m := range s.SharedMeshes() {
		sum := SharedSummary{Name: m.Name}
		for _, sp := range m.Spans {
			sum.Spans = append(sum.Spans, fmt.Sprintf("%s:%s (%s)", sp.Object, sp.Material, sp.Props))
		}
		shared = append(shared, sum)
	}

	fmt.Fprintln(w, "# records")
	spewConfig.Fdump(w, s.Records())
	fmt.Fprintln(w, "# groups")
	spewConfig.Fdump(w, Summarize(s))
	if len(shared) > 0 {
		fmt.Fprintln(w, "# shared meshes")
		spewConfig.Fdump(w, shared)
	}
}
