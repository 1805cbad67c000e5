// Package bvh builds binary bounding-volume hierarchies over triangle lists
// using binned surface-area-heuristic splitting. The produced triangle array
// is reordered so each leaf references a contiguous slice of it.
package bvh

import (
	"errors"
	"sort"
	"time"

	"github.com/chewxy/math32"

	"github.com/altair-render/altair/compiler"
	"github.com/altair-render/altair/log"
	"github.com/altair-render/altair/types"
)

const (
	// Splits are not evaluated along an axis whose centroid extent is
	// below this threshold.
	minCentroidExtent float32 = 1e-6
)

var ErrEmptyTriangleList = errors.New("bvh: cannot build a tree from an empty triangle list")

// Build parameters.
type Options struct {
	// Maximum number of triangles a leaf may hold.
	LeafSize int

	// Maximum tree depth; nodes at this depth become leaves regardless of
	// triangle count.
	MaxDepth int

	// Number of spatial bins evaluated per axis.
	Bins int
}

func DefaultOptions() Options {
	return Options{
		LeafSize: 6,
		MaxDepth: 32,
		Bins:     16,
	}
}

// A BVH node. Internal nodes carry child indices; leaves carry a triangle
// range into the reordered triangle array. Exactly one of the two holds:
// a leaf has Left == Right == compiler.NoIndex and Count > 0.
type Node struct {
	Min types.Vec3
	Max types.Vec3

	Left  int32
	Right int32

	Offset uint32
	Count  uint32
}

// True if the node is a leaf.
func (n *Node) Leaf() bool {
	return n.Left == compiler.NoIndex
}

// The result of a build: the node array (root at index 0) and the triangle
// array reordered so every leaf's range is contiguous.
type Tree struct {
	Nodes     []Node
	Triangles []compiler.Triangle
}

type buildStats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type builder struct {
	logger log.Logger
	opts   Options

	src []compiler.Triangle

	// Per-triangle cached bounds and centroids, indexed by source order.
	bmin      []types.Vec3
	bmax      []types.Vec3
	centroids []types.Vec3

	// The permutation being partitioned in place. Leaf ranges address this
	// array's final order.
	indices []int32
	scratch []int32

	nodes []Node
	stats buildStats
}

type buildItem struct {
	node  int32
	start int32
	end   int32
	depth int
}

// Build constructs a BVH over the given triangles. The input slice is not
// modified; the returned tree owns a reordered copy. For a fixed input order
// the output is bit-reproducible: scoring is sequential and ties resolve to
// the first-found minimum.
func Build(tris []compiler.Triangle, opts Options) (*Tree, error) {
	if len(tris) == 0 {
		return nil, ErrEmptyTriangleList
	}
	if opts.LeafSize <= 0 {
		opts.LeafSize = DefaultOptions().LeafSize
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	if opts.Bins < 2 {
		opts.Bins = DefaultOptions().Bins
	}

	b := &builder{
		logger:    log.New("bvh"),
		opts:      opts,
		src:       tris,
		bmin:      make([]types.Vec3, len(tris)),
		bmax:      make([]types.Vec3, len(tris)),
		centroids: make([]types.Vec3, len(tris)),
		indices:   make([]int32, len(tris)),
		scratch:   make([]int32, len(tris)),
		nodes:     make([]Node, 0, 2*len(tris)/opts.LeafSize+1),
	}
	for i := range tris {
		b.bmin[i], b.bmax[i] = tris[i].Bounds()
		b.centroids[i] = b.bmin[i].Add(b.bmax[i]).Mul(0.5)
		b.indices[i] = int32(i)
	}

	start := time.Now()
	b.partition()

	reordered := make([]compiler.Triangle, len(tris))
	for pos, idx := range b.indices {
		reordered[pos] = tris[idx]
	}

	b.logger.Debugf(
		"built tree over %d triangles in %d ms: %d nodes, %d leafs, max depth %d",
		len(tris), time.Since(start).Nanoseconds()/1e6,
		b.stats.nodes, b.stats.leafs, b.stats.maxDepth,
	)

	return &Tree{Nodes: b.nodes, Triangles: reordered}, nil
}

// Iteratively partition the index array with an explicit work stack.
func (b *builder) partition() {
	b.nodes = append(b.nodes, Node{})
	b.stats.nodes = 1

	stack := make([]buildItem, 0, 64)
	stack = append(stack, buildItem{node: 0, start: 0, end: int32(len(b.indices)), depth: 0})

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.depth > b.stats.maxDepth {
			b.stats.maxDepth = item.depth
		}

		node := &b.nodes[item.node]
		node.Min, node.Max = b.rangeBounds(item.start, item.end)

		count := item.end - item.start
		if int(count) <= b.opts.LeafSize || item.depth >= b.opts.MaxDepth {
			b.makeLeaf(item.node, item.start, item.end)
			continue
		}

		mid, ok := b.splitSAH(item.start, item.end, node.Min, node.Max)
		if !ok {
			mid = b.splitMedian(item.start, item.end)
		}

		left := int32(len(b.nodes))
		right := left + 1
		b.nodes = append(b.nodes, Node{}, Node{})
		b.stats.nodes += 2

		node = &b.nodes[item.node] // re-take: append may have moved the array
		node.Left = left
		node.Right = right

		// Push right first so the left child is processed next and lands
		// adjacent to its parent in depth-first order.
		stack = append(stack,
			buildItem{node: right, start: mid, end: item.end, depth: item.depth + 1},
			buildItem{node: left, start: item.start, end: mid, depth: item.depth + 1},
		)
	}
}

// Union of triangle bounds over an index range.
func (b *builder) rangeBounds(start, end int32) (bmin, bmax types.Vec3) {
	bmin = types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	bmax = types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for i := start; i < end; i++ {
		idx := b.indices[i]
		bmin = types.MinVec3(bmin, b.bmin[idx])
		bmax = types.MaxVec3(bmax, b.bmax[idx])
	}
	return bmin, bmax
}

func (b *builder) makeLeaf(nodeIndex, start, end int32) {
	node := &b.nodes[nodeIndex]
	node.Left = compiler.NoIndex
	node.Right = compiler.NoIndex
	node.Offset = uint32(start)
	node.Count = uint32(end - start)
	b.stats.leafs++
}

// Half surface area of a box; the constant factor cancels out in SAH cost
// comparisons.
func surfaceArea(bmin, bmax types.Vec3) float32 {
	side := bmax.Sub(bmin)
	if side[0] < 0 || side[1] < 0 || side[2] < 0 {
		return 0
	}
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}

// Evaluate binned SAH splits across all three axes and, when a winning
// boundary is found, partition the index range around it. Returns the
// partition midpoint. ok is false when no boundary beats keeping the range
// whole (degenerate centroid distributions included); callers then fall
// back to a median split.
func (b *builder) splitSAH(start, end int32, nodeMin, nodeMax types.Vec3) (int32, bool) {
	count := end - start

	cmin := types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	cmax := types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for i := start; i < end; i++ {
		c := b.centroids[b.indices[i]]
		cmin = types.MinVec3(cmin, c)
		cmax = types.MaxVec3(cmax, c)
	}

	numBins := b.opts.Bins
	binMin := make([]types.Vec3, numBins)
	binMax := make([]types.Vec3, numBins)
	binCount := make([]int32, numBins)

	// Cost of leaving the range unsplit, in the same units as the split
	// costs below.
	bestScore := float32(count) * surfaceArea(nodeMin, nodeMax)
	bestAxis := -1
	bestBoundary := -1

	for axis := 0; axis < 3; axis++ {
		extent := cmax[axis] - cmin[axis]
		if extent < minCentroidExtent {
			continue
		}
		scale := float32(numBins) / extent

		for bin := 0; bin < numBins; bin++ {
			binMin[bin] = types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
			binMax[bin] = types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
			binCount[bin] = 0
		}

		for i := start; i < end; i++ {
			idx := b.indices[i]
			bin := int((b.centroids[idx][axis] - cmin[axis]) * scale)
			if bin >= numBins {
				bin = numBins - 1
			}
			binMin[bin] = types.MinVec3(binMin[bin], b.bmin[idx])
			binMax[bin] = types.MaxVec3(binMax[bin], b.bmax[idx])
			binCount[bin]++
		}

		// Sweep the numBins-1 boundaries. Left side accumulates forward;
		// the right side is recomputed per boundary from suffix sums.
		leftArea := make([]float32, numBins)
		leftCount := make([]int32, numBins)
		accMin := types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
		accMax := types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
		var accCount int32
		for bin := 0; bin < numBins-1; bin++ {
			accMin = types.MinVec3(accMin, binMin[bin])
			accMax = types.MaxVec3(accMax, binMax[bin])
			accCount += binCount[bin]
			leftCount[bin] = accCount
			if accCount > 0 {
				leftArea[bin] = surfaceArea(accMin, accMax)
			}
		}

		accMin = types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
		accMax = types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
		accCount = 0
		for bin := numBins - 1; bin > 0; bin-- {
			accMin = types.MinVec3(accMin, binMin[bin])
			accMax = types.MaxVec3(accMax, binMax[bin])
			accCount += binCount[bin]

			boundary := bin - 1
			lc := leftCount[boundary]
			if lc == 0 || accCount == 0 {
				continue
			}
			score := float32(lc)*leftArea[boundary] + float32(accCount)*surfaceArea(accMin, accMax)
			if score < bestScore {
				bestScore = score
				bestAxis = axis
				bestBoundary = boundary
			}
		}
	}

	if bestAxis < 0 {
		return 0, false
	}

	// Stable partition around the winning boundary so the output order is a
	// pure function of the input order.
	scale := float32(numBins) / (cmax[bestAxis] - cmin[bestAxis])
	left := start
	rightCount := int32(0)
	for i := start; i < end; i++ {
		idx := b.indices[i]
		bin := int((b.centroids[idx][bestAxis] - cmin[bestAxis]) * scale)
		if bin >= numBins {
			bin = numBins - 1
		}
		if bin <= bestBoundary {
			b.indices[left] = idx
			left++
		} else {
			b.scratch[rightCount] = idx
			rightCount++
		}
	}
	copy(b.indices[left:end], b.scratch[:rightCount])

	if left == start || left == end {
		// Should not happen (both sides were scored non-empty); treat as a
		// degenerate distribution.
		return 0, false
	}
	return left, true
}

// Median split along the widest centroid axis. Used when SAH finds no
// boundary worth splitting at but the range is too large for a leaf.
func (b *builder) splitMedian(start, end int32) int32 {
	cmin := types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	cmax := types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for i := start; i < end; i++ {
		c := b.centroids[b.indices[i]]
		cmin = types.MinVec3(cmin, c)
		cmax = types.MaxVec3(cmax, c)
	}
	axis := cmax.Sub(cmin).MaxAxis()

	sub := b.indices[start:end]
	sort.Slice(sub, func(i, j int) bool {
		ci := b.centroids[sub[i]][axis]
		cj := b.centroids[sub[j]][axis]
		if ci != cj {
			return ci < cj
		}
		// Tie-break on the original triangle index for reproducibility.
		return sub[i] < sub[j]
	})

	return start + (end-start)/2
}
