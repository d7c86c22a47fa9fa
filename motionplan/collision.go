package motionplan

import (
	"math"

	"go.viam.com/carplan/motionplan/bicycle"
	"go.viam.com/carplan/occupancy"
	"go.viam.com/carplan/spatialmath"
	"go.viam.com/carplan/utils"
)

// collisionChecker tests arcs against an inflated map. Arcs are split finely enough that
// consecutive samples are never more than one cell apart.
type collisionChecker struct {
	model       *bicycle.Model
	occ         *occupancy.Map
	minSegments int
}

func newCollisionChecker(model *bicycle.Model, occ *occupancy.Map, minSegments int) *collisionChecker {
	return &collisionChecker{model: model, occ: occ, minSegments: utils.MaxInt(minSegments, 1)}
}

func (cc *collisionChecker) segments(length float64) int {
	return utils.MaxInt(cc.minSegments, int(math.Ceil(length/cc.occ.Resolution())))
}

// poseFree reports whether a single pose is clear of obstacles.
func (cc *collisionChecker) poseFree(p spatialmath.Pose) bool {
	return !cc.occ.IsOccupied(p.X, p.Y)
}

// isFree reports whether driving arc from the pose from stays clear of obstacles, endpoints
// included.
func (cc *collisionChecker) isFree(from spatialmath.Pose, arc spatialmath.Arc) bool {
	_, ok := cc.clipAtGoal(from, arc, from, -1)
	return ok
}

// clipAtGoal checks arc sample by sample and cuts it short at the first sample within tolerance
// of goal. Samples past that point are not checked. It reports false when an earlier sample is
// occupied. A negative tolerance never cuts.
func (cc *collisionChecker) clipAtGoal(
	from spatialmath.Pose,
	arc spatialmath.Arc,
	goal spatialmath.Pose,
	tolerance float64,
) (spatialmath.Arc, bool) {
	if !cc.poseFree(from) {
		return spatialmath.Arc{}, false
	}
	n := cc.segments(arc.Length)
	for j := 1; j <= n; j++ {
		length := arc.Length * float64(j) / float64(n)
		p := cc.model.Advance(from, arc.Steering, length)
		if !cc.poseFree(p) {
			return spatialmath.Arc{}, false
		}
		if j < n && p.Distance(goal) <= tolerance {
			return spatialmath.Arc{Pose: p, Steering: arc.Steering, Length: length}, true
		}
	}
	return arc, true
}
