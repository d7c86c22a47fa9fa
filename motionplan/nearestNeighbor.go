package motionplan

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"go.viam.com/carplan/spatialmath"
)

const (
	// rtree fan out, as used for planar obstacle indexes.
	indexMinChildren = 25
	indexMaxChildren = 50

	// half-width of the box a node occupies in the index.
	indexPointTolerance = 1e-9
)

// Nearest returns the id of the node whose position is closest to p. Ties go to the lowest id.
// Heading is ignored.
func (t *Tree) Nearest(p spatialmath.Pose) int {
	id, _ := t.nearest(p, nil)
	return id
}

// nearestUntried is Nearest restricted to nodes that have not been grown towards the goal yet.
// It reports false once every node has been.
func (t *Tree) nearestUntried(p spatialmath.Pose) (int, bool) {
	if t.untried == 0 {
		return -1, false
	}
	return t.nearest(p, func(id int) bool { return t.goalTried[id] })
}

func (t *Tree) nearest(p spatialmath.Pose, skip func(id int) bool) (int, bool) {
	if len(t.nodes) > neighborsBeforeIndexing {
		if t.index == nil {
			t.index = newNodeIndex(t.nodes)
		}
		id := t.index.nearest(p, skip)
		return id, id >= 0
	}
	id := linearNearest(t.nodes, p, skip)
	return id, id >= 0
}

// linearNearest scans every node not skipped. It returns -1 when there is none.
func linearNearest(nodes []Node, p spatialmath.Pose, skip func(id int) bool) int {
	best := -1
	bestDist := math.Inf(1)
	for _, n := range nodes {
		if skip != nil && skip(n.ID) {
			continue
		}
		// strict comparison keeps the lowest id on ties
		if dist := n.Pose.DistanceSquared(p); dist < bestDist {
			bestDist = dist
			best = n.ID
		}
	}
	return best
}

type indexedNode struct {
	id   int
	pose spatialmath.Pose
	rect rtreego.Rect
}

func (in *indexedNode) Bounds() rtreego.Rect {
	return in.rect
}

// nodeIndex answers nearest neighbor queries for large trees. The rtree narrows the search to
// the nodes inside the box around the query that contains its nearest hit; the exact distance
// and tie rules are then applied to that handful of candidates.
type nodeIndex struct {
	rtree *rtreego.Rtree
}

func newNodeIndex(nodes []Node) *nodeIndex {
	objs := make([]rtreego.Spatial, 0, len(nodes))
	for _, n := range nodes {
		objs = append(objs, newIndexedNode(n))
	}
	return &nodeIndex{rtree: rtreego.NewTree(2, indexMinChildren, indexMaxChildren, objs...)}
}

func newIndexedNode(n Node) *indexedNode {
	return &indexedNode{
		id:   n.ID,
		pose: n.Pose,
		rect: rtreego.Point{n.Pose.X, n.Pose.Y}.ToRect(indexPointTolerance),
	}
}

func (idx *nodeIndex) insert(n Node) {
	idx.rtree.Insert(newIndexedNode(n))
}

func (idx *nodeIndex) nearest(p spatialmath.Pose, skip func(id int) bool) int {
	var filters []rtreego.Filter
	if skip != nil {
		filters = append(filters, func(_ []rtreego.Spatial, obj rtreego.Spatial) (bool, bool) {
			in, ok := obj.(*indexedNode)
			return !ok || skip(in.id), false
		})
	}
	query := rtreego.Point{p.X, p.Y}
	hits := idx.rtree.NearestNeighbors(1, query, filters...)
	if len(hits) == 0 {
		return -1
	}
	hit, ok := hits[0].(*indexedNode)
	if !ok {
		return -1
	}
	radius := hit.pose.Distance(p) + 2*indexPointTolerance
	candidates := idx.rtree.SearchIntersect(query.ToRect(radius), filters...)

	best := hit.id
	bestDist := hit.pose.DistanceSquared(p)
	for _, c := range candidates {
		cand, ok := c.(*indexedNode)
		if !ok {
			continue
		}
		dist := cand.pose.DistanceSquared(p)
		if dist < bestDist || (dist == bestDist && cand.id < best) {
			best = cand.id
			bestDist = dist
		}
	}
	return best
}
