package motionplan

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/carplan/spatialmath"
)

// Node is one reachable vehicle pose in the search tree. The root is its own parent. Target is
// the sample that was being steered towards when the node was added.
type Node struct {
	ID       int              `json:"id"`
	ParentID int              `json:"parent_id"`
	Pose     spatialmath.Pose `json:"pose"`
	Target   spatialmath.Pose `json:"target"`
	Steering float64          `json:"steering"`
	Length   float64          `json:"length"`
}

// Arc returns the arc that drives from the parent's pose to this node's pose.
func (n Node) Arc() spatialmath.Arc {
	return spatialmath.Arc{Pose: n.Pose, Steering: n.Steering, Length: n.Length}
}

// IsRoot reports whether the node is the start of its tree.
func (n Node) IsRoot() bool {
	return n.ID == 0
}

// Edge is a node together with its parent. For the root both are the same node.
type Edge struct {
	Node   Node `json:"node"`
	Parent Node `json:"parent"`
}

// Tree is an append-only store of the poses explored for one start/goal problem. Node ids are
// dense and every parent id is smaller than its child's id, so following parents always ends
// at the root.
type Tree struct {
	start    spatialmath.Pose
	goal     spatialmath.Pose
	nodes    []Node
	capacity int
	index    *nodeIndex

	// goalTried marks nodes that have already been grown towards the goal. untried counts the
	// rest.
	goalTried []bool
	untried   int
}

// NewTree returns a tree holding only the root node at start. capacity bounds the total
// number of nodes, root included; values below one leave the tree unbounded.
func NewTree(start, goal spatialmath.Pose, capacity int) *Tree {
	initial := capacity
	if initial <= 0 || initial > 4*defaultPlanIter {
		initial = defaultPlanIter
	}
	t := &Tree{
		start:    start,
		goal:     goal,
		nodes:    make([]Node, 0, initial),
		capacity: capacity,
	}
	t.nodes = append(t.nodes, Node{ID: 0, ParentID: 0, Pose: start, Target: start})
	t.goalTried = append(t.goalTried, false)
	t.untried = 1
	return t
}

// Start returns the root pose.
func (t *Tree) Start() spatialmath.Pose {
	return t.start
}

// Goal returns the pose the tree is growing towards.
func (t *Tree) Goal() spatialmath.Pose {
	return t.goal
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id.
func (t *Tree) Node(id int) (Node, bool) {
	if id < 0 || id >= len(t.nodes) {
		return Node{}, false
	}
	return t.nodes[id], true
}

// Insert appends a node reached from parentID by driving length at steering, and returns its id.
func (t *Tree) Insert(parentID int, pose, target spatialmath.Pose, steering, length float64) (int, error) {
	if parentID < 0 || parentID >= len(t.nodes) {
		return -1, errors.Errorf("parent node %d does not exist in a tree of %d nodes", parentID, len(t.nodes))
	}
	if t.capacity > 0 && len(t.nodes) >= t.capacity {
		return -1, errTreeFull
	}
	id := len(t.nodes)
	n := Node{ID: id, ParentID: parentID, Pose: pose, Target: target, Steering: steering, Length: length}
	t.nodes = append(t.nodes, n)
	t.goalTried = append(t.goalTried, false)
	t.untried++
	if t.index != nil {
		t.index.insert(n)
	}
	return id, nil
}

// PathTo walks parents back from id to the root and returns the arcs in driving order.
func (t *Tree) PathTo(id int) (spatialmath.Path, error) {
	if id < 0 || id >= len(t.nodes) {
		return nil, errors.Errorf("node %d does not exist in a tree of %d nodes", id, len(t.nodes))
	}
	path := spatialmath.Path{}
	for {
		n := t.nodes[id]
		path = append(path, n.Arc())
		if n.IsRoot() {
			break
		}
		id = n.ParentID
	}
	return lo.Reverse(path), nil
}

// Edges returns every node paired with its parent, in id order.
func (t *Tree) Edges() []Edge {
	return lo.Map(t.nodes, func(n Node, _ int) Edge {
		return Edge{Node: n, Parent: t.nodes[n.ParentID]}
	})
}

// markGoalTried records that id has been grown towards the goal. Growing towards a fixed
// target is deterministic, so a second try from the same node can only repeat the first.
func (t *Tree) markGoalTried(id int) {
	if id >= 0 && id < len(t.goalTried) && !t.goalTried[id] {
		t.goalTried[id] = true
		t.untried--
	}
}

// closestToGoal returns the node nearest the goal and its distance.
func (t *Tree) closestToGoal() (int, float64) {
	id := t.Nearest(t.goal)
	return id, t.nodes[id].Pose.Distance(t.goal)
}
