package packer

import (
	"github.com/altair-render/altair/compiler"
	"github.com/altair-render/altair/compiler/bvh"
)

// Each BVH node occupies 3 pixels:
//
//	0: bounds min xyz, left child index
//	1: bounds max xyz, right child index
//	2: triangle offset, triangle count, padding
//
// Child indices address the node array itself (the builder emits nodes in
// depth-first order); an absent child encodes compiler.NoIndex.
const NodePixels = 3

// PackNodes serializes the BVH node array into a pooled buffer. Zero nodes
// yields a nil buffer.
func PackNodes(nodes []bvh.Node, pool *Pool) *Buffer {
	if len(nodes) == 0 {
		return nil
	}

	totalPixels := len(nodes) * NodePixels
	width, height := dimsNearSquare(totalPixels)

	buf := pool.Get(NodeData, Float32, width, height, 1)
	buf.Records = uint32(len(nodes))

	for i := range nodes {
		node := &nodes[i]
		dst := buf.Float[i*NodePixels*4:]

		copy3(dst, node.Min)
		dst[3] = float32(node.Left)
		copy3(dst[4:], node.Max)
		dst[7] = float32(node.Right)
		if node.Leaf() {
			dst[8] = float32(node.Offset)
			dst[9] = float32(node.Count)
		} else {
			dst[8] = float32(compiler.NoIndex)
			dst[9] = 0
		}
		dst[10] = 0
		dst[11] = 0
	}

	assertRecordsFit(buf, len(nodes), NodePixels)
	return buf
}
