package geometry

import (
	"sort"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
)

// SplitStrategy selects how interior nodes partition their primitives
type SplitStrategy int

const (
	// SplitSAH places splits with a binned surface area heuristic
	SplitSAH SplitStrategy = iota
	// SplitMedian halves the primitives along the widest centroid axis
	SplitMedian
)

// String returns the flag name of the strategy
func (s SplitStrategy) String() string {
	if s == SplitMedian {
		return "median"
	}
	return "sah"
}

// BuildConfig controls BVH construction
type BuildConfig struct {
	LeafSize int           // nodes with this many primitives or fewer become leaves
	Strategy SplitStrategy // split placement
	Bins     int           // SAH buckets per axis
}

// DefaultBuildConfig returns sensible default values
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		LeafSize: 4,
		Strategy: SplitSAH,
		Bins:     16,
	}
}

// BVHNode is one entry of the flattened hierarchy. Leaves own the range
// [Start, Start+Count) of the BVH's primitive index permutation; interior
// nodes have Count == 0 and refer to their children by node index.
type BVHNode struct {
	Bounds      core.AABB
	Left, Right int32
	Start       int32
	Count       int32
}

// IsLeaf reports whether the node stores primitives
func (n *BVHNode) IsLeaf() bool {
	return n.Count > 0
}

// BVHStats summarizes the shape of a built hierarchy
type BVHStats struct {
	Nodes        int
	Leaves       int
	MaxDepth     int
	AvgLeafDepth float64
	MaxLeafSize  int
	Primitives   int
}

// BVH is a bounding volume hierarchy over a fixed list of primitives. It is
// immutable once built and safe for concurrent queries.
type BVH struct {
	nodes      []BVHNode
	indices    []int32 // primitive indices, grouped by leaf
	primitives []Primitive
	stats      BVHStats
}

// NewBVH builds a hierarchy over primitives. The slice is referenced, not
// copied, and must not be modified afterwards.
func NewBVH(primitives []Primitive, config BuildConfig) *BVH {
	if config.LeafSize < 1 {
		config.LeafSize = 1
	}
	if config.Bins < 2 {
		config.Bins = 2
	}

	bvh := &BVH{primitives: primitives}
	if len(primitives) == 0 {
		return bvh
	}

	b := &bvhBuilder{
		config:    config,
		bounds:    make([]core.AABB, len(primitives)),
		centroids: make([]core.Vec3, len(primitives)),
		indices:   make([]int32, len(primitives)),
		nodes:     make([]BVHNode, 0, 2*len(primitives)/config.LeafSize+1),
	}
	for i, p := range primitives {
		b.bounds[i] = p.Bounds()
		b.centroids[i] = p.Centroid()
		b.indices[i] = int32(i)
	}

	b.build(0, len(primitives), 0)

	bvh.nodes = b.nodes
	bvh.indices = b.indices
	bvh.stats = b.stats
	bvh.stats.Nodes = len(b.nodes)
	bvh.stats.Primitives = len(primitives)
	if b.stats.Leaves > 0 {
		bvh.stats.AvgLeafDepth = b.depthSum / float64(b.stats.Leaves)
	}
	return bvh
}

// Bounds returns the box around every primitive, or an empty box
func (bvh *BVH) Bounds() core.AABB {
	if len(bvh.nodes) == 0 {
		return core.EmptyAABB()
	}
	return bvh.nodes[0].Bounds
}

// Stats returns statistics collected while building
func (bvh *BVH) Stats() BVHStats {
	return bvh.stats
}

// Nodes exposes the flattened node array for inspection
func (bvh *BVH) Nodes() []BVHNode {
	return bvh.nodes
}

// LeafPrimitives returns the primitive indices stored in a leaf node
func (bvh *BVH) LeafPrimitives(node *BVHNode) []int32 {
	return bvh.indices[node.Start : node.Start+node.Count]
}

type traversalEntry struct {
	node  int32
	entry float64
}

// IntersectClosest returns the nearest hit closer than best. Children are
// visited nearest first and skipped once their entry distance is no longer
// below the closest hit found so far.
func (bvh *BVH) IntersectClosest(ray core.Ray, best float64) (Intersection, bool) {
	if len(bvh.nodes) == 0 {
		return Intersection{}, false
	}

	entry, _, ok := bvh.nodes[0].Bounds.SlabIntersect(ray, best)
	if !ok {
		return Intersection{}, false
	}

	var buf [64]traversalEntry
	stack := append(buf[:0], traversalEntry{node: 0, entry: entry})

	var closest Intersection
	found := false

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.entry >= best {
			continue
		}

		node := &bvh.nodes[top.node]
		if node.IsLeaf() {
			for _, pi := range bvh.LeafPrimitives(node) {
				if hit, ok := bvh.primitives[pi].Intersect(ray, best); ok {
					closest, best, found = hit, hit.Distance, true
				}
			}
			continue
		}

		leftEntry, _, leftOK := bvh.nodes[node.Left].Bounds.SlabIntersect(ray, best)
		rightEntry, _, rightOK := bvh.nodes[node.Right].Bounds.SlabIntersect(ray, best)

		switch {
		case leftOK && rightOK:
			near, far := traversalEntry{node.Left, leftEntry}, traversalEntry{node.Right, rightEntry}
			if rightEntry < leftEntry {
				near, far = far, near
			}
			// Far goes first so near is popped next
			stack = append(stack, far, near)
		case leftOK:
			stack = append(stack, traversalEntry{node.Left, leftEntry})
		case rightOK:
			stack = append(stack, traversalEntry{node.Right, rightEntry})
		}
	}

	return closest, found
}

type bvhBuilder struct {
	config    BuildConfig
	bounds    []core.AABB
	centroids []core.Vec3
	indices   []int32
	nodes     []BVHNode
	stats     BVHStats
	depthSum  float64
}

// build creates the node for indices[start:end] and returns its index
func (b *bvhBuilder) build(start, end, depth int) int32 {
	bounds := core.EmptyAABB()
	centroidBounds := core.EmptyAABB()
	for _, pi := range b.indices[start:end] {
		bounds = bounds.Union(b.bounds[pi])
		centroidBounds = centroidBounds.Include(b.centroids[pi])
	}

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, BVHNode{Bounds: bounds})
	b.stats.MaxDepth = max(b.stats.MaxDepth, depth)

	count := end - start
	if count <= b.config.LeafSize {
		b.makeLeaf(nodeIndex, start, end, depth)
		return nodeIndex
	}

	var mid int
	var ok bool
	switch b.config.Strategy {
	case SplitMedian:
		mid, ok = b.splitMedian(start, end, centroidBounds)
	default:
		mid, ok = b.splitSAH(start, end, bounds, centroidBounds)
	}
	if !ok {
		b.makeLeaf(nodeIndex, start, end, depth)
		return nodeIndex
	}

	left := b.build(start, mid, depth+1)
	right := b.build(mid, end, depth+1)
	b.nodes[nodeIndex].Left = left
	b.nodes[nodeIndex].Right = right
	return nodeIndex
}

func (b *bvhBuilder) makeLeaf(nodeIndex int32, start, end, depth int) {
	node := &b.nodes[nodeIndex]
	node.Start = int32(start)
	node.Count = int32(end - start)

	b.stats.Leaves++
	b.stats.MaxLeafSize = max(b.stats.MaxLeafSize, end-start)
	b.depthSum += float64(depth)
}

// splitMedian sorts the range by centroid along the widest centroid axis
// and cuts it in half
func (b *bvhBuilder) splitMedian(start, end int, centroidBounds core.AABB) (int, bool) {
	axis := centroidBounds.LongestAxis()
	span := b.indices[start:end]
	sort.Slice(span, func(i, j int) bool {
		return b.centroids[span[i]].Axis(axis) < b.centroids[span[j]].Axis(axis)
	})
	return start + (end-start)/2, true
}

type sahBin struct {
	bounds core.AABB
	count  int
}

// splitSAH scores every bin boundary on every axis with
// leftCount*leftArea + rightCount*rightArea and keeps the cheapest, provided
// it beats leaving the node as a single leaf
func (b *bvhBuilder) splitSAH(start, end int, bounds, centroidBounds core.AABB) (int, bool) {
	count := end - start
	bestCost := float64(count) * bounds.SurfaceArea()
	bestAxis, bestBin := -1, 0

	bins := make([]sahBin, b.config.Bins)
	rightArea := make([]float64, b.config.Bins)
	rightCount := make([]int, b.config.Bins)

	for axis := 0; axis < 3; axis++ {
		lo := centroidBounds.Min.Axis(axis)
		extent := centroidBounds.Max.Axis(axis) - lo
		if extent <= 0 {
			continue
		}

		for i := range bins {
			bins[i] = sahBin{bounds: core.EmptyAABB()}
		}
		for _, pi := range b.indices[start:end] {
			bin := b.binOf(b.centroids[pi].Axis(axis), lo, extent)
			bins[bin].count++
			bins[bin].bounds = bins[bin].bounds.Union(b.bounds[pi])
		}

		// Sweep from the right to get the cost of everything past each boundary
		acc, n := core.EmptyAABB(), 0
		for i := len(bins) - 1; i > 0; i-- {
			acc = acc.Union(bins[i].bounds)
			n += bins[i].count
			rightArea[i], rightCount[i] = acc.SurfaceArea(), n
		}

		acc, n = core.EmptyAABB(), 0
		for i := 0; i < len(bins)-1; i++ {
			acc = acc.Union(bins[i].bounds)
			n += bins[i].count
			if n == 0 || rightCount[i+1] == 0 {
				continue
			}
			cost := float64(n)*acc.SurfaceArea() + float64(rightCount[i+1])*rightArea[i+1]
			if cost < bestCost {
				bestCost, bestAxis, bestBin = cost, axis, i
			}
		}
	}

	if bestAxis < 0 {
		return 0, false
	}

	lo := centroidBounds.Min.Axis(bestAxis)
	extent := centroidBounds.Max.Axis(bestAxis) - lo

	// In-place partition: bins up to bestBin to the front
	mid := start
	for i := start; i < end; i++ {
		pi := b.indices[i]
		if b.binOf(b.centroids[pi].Axis(bestAxis), lo, extent) <= bestBin {
			b.indices[i], b.indices[mid] = b.indices[mid], b.indices[i]
			mid++
		}
	}
	return mid, true
}

func (b *bvhBuilder) binOf(c, lo, extent float64) int {
	bin := int(float64(b.config.Bins) * (c - lo) / extent)
	return max(0, min(b.config.Bins-1, bin))
}
