package compiler

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/spanbatch/internal/geom"
)

// maxLeafItems is the largest leaf the tree builder produces.
const maxLeafItems = 1

// SpaceNode is a bounding volume node. Each node takes 32 bytes.
type SpaceNode struct {
	// Min is the bounding box min extent. For an inner node W is > 0 and
	// holds the index of the left child; for a leaf W is <= 0 and holds the
	// negated index of the leaf's first entry in SpaceTree.Items.
	Min mgl32.Vec4

	// Max is the bounding box max extent. For an inner node W holds the
	// index of the right child; for a leaf W is < 0 and holds the negated
	// item count.
	Max mgl32.Vec4
}

// IsLeaf reports whether n is a leaf.
func (n SpaceNode) IsLeaf() bool {
	return n.Max.W() < 0
}

// Children returns the child indices of an inner node.
func (n SpaceNode) Children() (left, right int) {
	return int(n.Min.W()), int(n.Max.W())
}

// Leaf returns the item range of a leaf.
func (n SpaceNode) Leaf() (first, count int) {
	return int(-n.Min.W()), int(-n.Max.W())
}

// Bounds returns the node's box.
func (n SpaceNode) Bounds() geom.Bounds {
	return geom.Bounds{Min: n.Min.Vec3(), Max: n.Max.Vec3()}
}

// SpaceTree is a bounding volume hierarchy over icicles. Node 0 is the root.
type SpaceTree struct {
	Nodes []SpaceNode
	// Items maps leaf slots to icicle indices.
	Items []int
}

// BuildSpaceTree builds a tree over bounds, splitting at the median centre
// along the longest axis of the centre extents. An empty input gives an
// empty tree.
func BuildSpaceTree(bounds []geom.Bounds) *SpaceTree {
	t := &SpaceTree{Items: make([]int, len(bounds))}
	for i := range t.Items {
		t.Items[i] = i
	}
	if len(bounds) == 0 {
		return t
	}
	t.Nodes = make([]SpaceNode, 1, 2*len(bounds)-1)
	t.build(0, bounds, 0, len(bounds))
	return t
}

func (t *SpaceTree) build(node int, bounds []geom.Bounds, first, last int) {
	box := geom.EmptyBounds()
	centers := geom.EmptyBounds()
	for _, item := range t.Items[first:last] {
		box.Union(bounds[item])
		centers.Extend(bounds[item].Center())
	}

	count := last - first
	if count <= maxLeafItems {
		t.Nodes[node] = SpaceNode{
			Min: box.Min.Vec4(float32(-first)),
			Max: box.Max.Vec4(float32(-count)),
		}
		return
	}

	axis := longestAxis(centers.Max.Sub(centers.Min))
	items := t.Items[first:last]
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := bounds[items[i]].Center()[axis], bounds[items[j]].Center()[axis]
		if ci != cj {
			return ci < cj
		}
		return items[i] < items[j]
	})
	mid := first + count/2

	left := len(t.Nodes)
	t.Nodes = append(t.Nodes, SpaceNode{})
	right := len(t.Nodes)
	t.Nodes = append(t.Nodes, SpaceNode{})
	t.Nodes[node] = SpaceNode{
		Min: box.Min.Vec4(float32(left)),
		Max: box.Max.Vec4(float32(right)),
	}
	t.build(left, bounds, first, mid)
	t.build(right, bounds, mid, last)
}

func longestAxis(ext mgl32.Vec3) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if ext[i] > ext[axis] {
			axis = i
		}
	}
	return axis
}

// Query returns the icicle indices whose leaf boxes intersect b, in tree
// order.
func (t *SpaceTree) Query(b geom.Bounds) []int {
	if len(t.Nodes) == 0 {
		return nil
	}
	var out []int
	stack := []int{0}
	for len(stack) > 0 {
		n := t.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !overlaps(n.Bounds(), b) {
			continue
		}
		if n.IsLeaf() {
			first, count := n.Leaf()
			out = append(out, t.Items[first:first+count]...)
			continue
		}
		left, right := n.Children()
		stack = append(stack, right, left)
	}
	return out
}

func overlaps(a, b geom.Bounds) bool {
	for i := 0; i < 3; i++ {
		if a.Max[i] < b.Min[i] || b.Max[i] < a.Min[i] {
			return false
		}
	}
	return true
}
