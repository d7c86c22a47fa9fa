package motionplan

import (
	"math"

	"go.viam.com/carplan/motionplan/bicycle"
	"go.viam.com/carplan/spatialmath"
)

// extender proposes the arc that drives a node towards a target. Candidate steering angles are
// precomputed once per planner.
type extender struct {
	model      *bicycle.Model
	maxStep    float64
	candidates []float64
}

func newExtender(model *bicycle.Model, maxStep float64, samples int) *extender {
	return &extender{model: model, maxStep: maxStep, candidates: model.SteeringCandidates(samples)}
}

// extend drives min(maxStep, distance to target) from the node along every candidate steering
// angle and keeps the endpoint closest to the target. It fails when the node already sits on
// the target or when no candidate ends strictly closer than the node started.
func (e *extender) extend(from Node, target spatialmath.Pose) (spatialmath.Arc, bool) {
	dist := from.Pose.Distance(target)
	if dist == 0 {
		return spatialmath.Arc{}, false
	}
	length := math.Min(e.maxStep, dist)

	var best spatialmath.Arc
	bestDist := math.Inf(1)
	for _, steering := range e.candidates {
		end := e.model.Advance(from.Pose, steering, length)
		if d := end.Distance(target); d < bestDist {
			bestDist = d
			best = spatialmath.Arc{Pose: end, Steering: steering, Length: length}
		}
	}
	if !(bestDist < dist) {
		return spatialmath.Arc{}, false
	}
	return best, true
}
