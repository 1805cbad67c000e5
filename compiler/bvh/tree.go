package bvh

import (
	"fmt"
	"sort"

	"github.com/altair-render/altair/types"
)

const boundsEpsilon float32 = 1e-4

// Validate re-checks the structural invariants of the tree: every node's
// bounds contain its children (or its triangles, for leaves) and the leaf
// ranges partition the reordered triangle array exactly, with no gaps,
// overlaps or duplicates. Intended for tests and debug builds.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("bvh: tree has no nodes")
	}

	type span struct{ start, end uint32 }
	var leafSpans []span

	stack := []int32{0}
	visited := make([]bool, len(t.Nodes))
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if index < 0 || int(index) >= len(t.Nodes) {
			return fmt.Errorf("bvh: child index %d out of range", index)
		}
		if visited[index] {
			return fmt.Errorf("bvh: node %d reachable twice", index)
		}
		visited[index] = true

		node := &t.Nodes[index]
		if node.Leaf() {
			if node.Count == 0 {
				return fmt.Errorf("bvh: leaf %d holds no triangles", index)
			}
			if int(node.Offset)+int(node.Count) > len(t.Triangles) {
				return fmt.Errorf("bvh: leaf %d range [%d, %d) exceeds triangle count %d",
					index, node.Offset, node.Offset+node.Count, len(t.Triangles))
			}
			for i := node.Offset; i < node.Offset+node.Count; i++ {
				tmin, tmax := t.Triangles[i].Bounds()
				if !contains(node.Min, node.Max, tmin, tmax) {
					return fmt.Errorf("bvh: leaf %d does not contain triangle %d", index, i)
				}
			}
			leafSpans = append(leafSpans, span{node.Offset, node.Offset + node.Count})
			continue
		}

		if node.Right < 0 {
			return fmt.Errorf("bvh: internal node %d has no right child", index)
		}
		for _, child := range [2]int32{node.Left, node.Right} {
			if int(child) >= len(t.Nodes) {
				return fmt.Errorf("bvh: node %d child %d out of range", index, child)
			}
			c := &t.Nodes[child]
			if !contains(node.Min, node.Max, c.Min, c.Max) {
				return fmt.Errorf("bvh: node %d does not contain child %d", index, child)
			}
		}
		stack = append(stack, node.Right, node.Left)
	}

	sort.Slice(leafSpans, func(i, j int) bool { return leafSpans[i].start < leafSpans[j].start })
	var next uint32
	for _, sp := range leafSpans {
		if sp.start != next {
			return fmt.Errorf("bvh: leaf ranges have a gap or overlap at triangle %d", sp.start)
		}
		next = sp.end
	}
	if int(next) != len(t.Triangles) {
		return fmt.Errorf("bvh: leaf ranges cover %d of %d triangles", next, len(t.Triangles))
	}

	return nil
}

// Maximum leaf depth of the tree.
func (t *Tree) Depth() int {
	type item struct {
		node  int32
		depth int
	}
	maxDepth := 0
	stack := []item{{0, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.depth > maxDepth {
			maxDepth = it.depth
		}
		node := &t.Nodes[it.node]
		if !node.Leaf() {
			stack = append(stack, item{node.Left, it.depth + 1}, item{node.Right, it.depth + 1})
		}
	}
	return maxDepth
}

func contains(outerMin, outerMax, innerMin, innerMax types.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if innerMin[axis] < outerMin[axis]-boundsEpsilon || innerMax[axis] > outerMax[axis]+boundsEpsilon {
			return false
		}
	}
	return true
}
